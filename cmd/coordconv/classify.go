package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inodb/coordconv/internal/coord"
	"github.com/inodb/coordconv/internal/tsv"
)

// classification is the report printed by the classify command.
type classification struct {
	Chromosome   string `yaml:"chromosome"`
	Start        int64  `yaml:"start"`
	Stop         int64  `yaml:"stop"`
	Ref          string `yaml:"ref"`
	Var          string `yaml:"var"`
	MutationType string `yaml:"mutation_type"`
	System       string `yaml:"coordinate_system"`
	ZeroBased    string `yaml:"zero_based"`
	OneBased     string `yaml:"one_based"`
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <chromosome> <start> <stop> <ref> <var>",
		Short: "Classify a single coordinate and show it in both systems",
		Example: `  coordconv classify chr1 10 10 A T
  coordconv classify chr2 100 103 ATG -`,
		Args: exactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := tsv.ParsePosition(args[1])
			if err != nil {
				return &usageError{err: fmt.Errorf("invalid start position: %s", args[1])}
			}
			stop, err := tsv.ParsePosition(args[2])
			if err != nil {
				return &usageError{err: fmt.Errorf("invalid stop position: %s", args[2])}
			}

			report, err := classifyCoordinate(args[0], start, stop, args[3], args[4])
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(report)
			if err != nil {
				return fmt.Errorf("marshaling report: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func classifyCoordinate(chrom string, start, stop int64, ref, alt string) (*classification, error) {
	c, err := coord.New(chrom, start, stop, ref, alt)
	if err != nil {
		return nil, err
	}

	zero, err := c.ToZeroBased()
	if err != nil {
		return nil, err
	}
	one, err := c.ToOneBased()
	if err != nil {
		return nil, err
	}

	return &classification{
		Chromosome:   c.Chromosome(),
		Start:        c.Start(),
		Stop:         c.Stop(),
		Ref:          c.Ref(),
		Var:          c.Var(),
		MutationType: c.MutationType().String(),
		System:       c.System().String(),
		ZeroBased:    zero,
		OneBased:     one,
	}, nil
}
