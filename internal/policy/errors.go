package policy

import "errors"

// Sentinel errors for the policy package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrConfigNotFound is returned when a jurisdiction's rules or mappings
	// file is absent from the policy root.
	ErrConfigNotFound = errors.New("policy config file not found")

	// ErrConfigParse is returned when a rules or mappings document is not
	// valid structured data or fails schema validation.
	ErrConfigParse = errors.New("policy config parse error")

	// ErrUnknownKind is returned when a check declaration names a kind
	// outside the closed CheckKind vocabulary.
	ErrUnknownKind = errors.New("unknown check kind")
)
