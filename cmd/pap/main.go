package main

// version is the build version, overridable via -ldflags.
var version = "dev"

func main() {
	Execute()
}
