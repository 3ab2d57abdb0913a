package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policyassurance/pap/internal/ratchet"
)

var ratchetCmd = &cobra.Command{
	Use:   "ratchet",
	Short: "Fail if a tracked metric regressed versus its baseline",
	Long: `Compare tracked "badness" metrics in a current snapshot against a
stored baseline snapshot. Exits 1 if any tracked metric increased.

The baseline only moves through an explicit operation:
  --init            Seed the baseline from the current snapshot
  --write-baseline  After a passing check, advance the baseline

This is distinct from the mutation gate inside 'pap run', which compares
against a flat operator-supplied cap rather than a stored baseline.`,
	RunE: runRatchet,
}

var (
	ratchetBaseline      string
	ratchetCurrent       string
	ratchetTrack         []string
	ratchetInit          bool
	ratchetWriteBaseline bool
)

func init() {
	ratchetCmd.Flags().StringVar(&ratchetBaseline, "baseline", "", "Baseline snapshot path")
	ratchetCmd.Flags().StringVar(&ratchetCurrent, "current", "", "Current snapshot path")
	ratchetCmd.Flags().StringSliceVar(&ratchetTrack, "track", []string{ratchet.MetricAllowedMutations}, "Metric names to compare")
	ratchetCmd.Flags().BoolVar(&ratchetInit, "init", false, "Seed the baseline from the current snapshot")
	ratchetCmd.Flags().BoolVar(&ratchetWriteBaseline, "write-baseline", false, "Advance the baseline after a passing check")
	//nolint:errcheck // flags are registered above
	ratchetCmd.MarkFlagRequired("baseline")
	//nolint:errcheck // flags are registered above
	ratchetCmd.MarkFlagRequired("current")
	ratchetCmd.MarkFlagsMutuallyExclusive("init", "write-baseline")
	rootCmd.AddCommand(ratchetCmd)
}

func runRatchet(cmd *cobra.Command, args []string) error {
	currentStore := ratchet.NewBaselineStore(ratchetCurrent)
	current, err := currentStore.ReadAll()
	if err != nil {
		return err
	}

	baselineStore := ratchet.NewBaselineStore(ratchetBaseline)

	if ratchetInit {
		if err := baselineStore.WriteAll(current.Metrics); err != nil {
			return err
		}
		fmt.Printf("Baseline initialized from %s (%d metrics)\n", ratchetCurrent, len(current.Metrics))
		return nil
	}

	gate := &ratchet.BaselineRatchet{Baseline: baselineStore}
	var regressions []ratchet.Regression
	for _, metric := range ratchetTrack {
		value, ok := current.Metrics[metric]
		if !ok {
			return fmt.Errorf("%w: %q in %s", ratchet.ErrMetricNotFound, metric, ratchetCurrent)
		}
		reg, err := gate.Check(metric, value)
		if err != nil {
			return err
		}
		if reg != nil {
			regressions = append(regressions, *reg)
			continue
		}
		VerbosePrintf("%s: %d (within baseline)\n", metric, value)
	}

	if len(regressions) > 0 {
		for _, reg := range regressions {
			fmt.Println(reg)
		}
		return fmt.Errorf("%d tracked metric(s) regressed", len(regressions))
	}

	if ratchetWriteBaseline {
		for _, metric := range ratchetTrack {
			if err := baselineStore.Write(metric, current.Metrics[metric]); err != nil {
				return err
			}
		}
		fmt.Printf("Baseline advanced for %d metric(s)\n", len(ratchetTrack))
	}

	fmt.Println("No regressions.")
	return nil
}
