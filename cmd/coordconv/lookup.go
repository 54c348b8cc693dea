package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/coordconv/internal/coord"
	"github.com/inodb/coordconv/internal/duckdb"
	"github.com/inodb/coordconv/internal/tsv"
)

func newLookupCmd() *cobra.Command {
	var (
		dbPath     string
		systemName string
		typeName   string
	)

	cmd := &cobra.Command{
		Use:   "lookup [flags] [<chromosome> <start> <stop>]",
		Short: "Query coordinates stored by convert --db",
		Long: `Look up stored coordinates either by span, given in the system chosen
with --system, or by mutation type with --type. Results are printed in the
--system coordinate system, followed by mutation type, source system and
input line.`,
		Example: `  coordconv lookup --db coords.duckdb -s zero_based 12 25398284 25398285
  coordconv lookup --db coords.duckdb --type del`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if typeName == "" && len(args) != 3 {
				return &usageError{err: errors.New("expected <chromosome> <start> <stop> or --type")}
			}
			if typeName != "" && len(args) != 0 {
				return &usageError{err: errors.New("--type does not take positional arguments")}
			}
			if dbPath == "" {
				dbPath = viper.GetString("convert.db")
			}
			if dbPath == "" {
				return &usageError{err: errors.New("no database given (use --db or set convert.db)")}
			}
			if systemName == "" {
				systemName = viper.GetString("convert.target")
			}
			system, err := coord.ParseSystem(systemName)
			if err != nil {
				return &usageError{err: err}
			}

			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			var rows []duckdb.CoordinateRow
			if typeName != "" {
				m, err := coord.ParseMutationType(typeName)
				if err != nil {
					return &usageError{err: err}
				}
				rows, err = store.SearchByMutationType(m)
				if err != nil {
					return err
				}
			} else {
				start, err := tsv.ParsePosition(args[1])
				if err != nil {
					return &usageError{err: fmt.Errorf("invalid start position: %s", args[1])}
				}
				stop, err := tsv.ParsePosition(args[2])
				if err != nil {
					return &usageError{err: fmt.Errorf("invalid stop position: %s", args[2])}
				}
				rows, err = store.LookupSpan(args[0], system, start, stop)
				if err != nil {
					return err
				}
			}

			return writeRows(cmd, rows, system)
		},
	}

	f := cmd.Flags()
	f.StringVar(&dbPath, "db", "", "DuckDB file written by convert --db (default: convert.db)")
	f.StringVarP(&systemName, "system", "s", "", "Coordinate system for the query and results (default: convert.target)")
	f.StringVar(&typeName, "type", "", "List all coordinates of a mutation type: snv, ins, del or sub")

	return cmd
}

func writeRows(cmd *cobra.Command, rows []duckdb.CoordinateRow, system coord.System) error {
	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, r := range rows {
		start, stop, err := r.Span(system)
		if err != nil {
			return err
		}
		fields := []string{
			r.Chrom,
			strconv.FormatInt(start, 10),
			strconv.FormatInt(stop, 10),
			r.Ref,
			r.Var,
			r.MutationType,
			r.SourceSystem,
			strconv.FormatInt(r.Line, 10),
		}
		if _, err := w.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
