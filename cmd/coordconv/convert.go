package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/coordconv/internal/coord"
	"github.com/inodb/coordconv/internal/duckdb"
	"github.com/inodb/coordconv/internal/maf"
	"github.com/inodb/coordconv/internal/normalize"
	"github.com/inodb/coordconv/internal/output"
	"github.com/inodb/coordconv/internal/tsv"
	"github.com/inodb/coordconv/internal/vcf"
)

func newConvertCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "convert [flags] <input-file>",
		Short: "Convert a coordinate file to zero-based or one-based positions",
		Long: `Convert every record of a five-column TSV (chromosome, start, stop, ref, var),
a MAF file or a VCF file to the target coordinate system.

VCF indels are rewritten without their anchor base before conversion.
Multi-allelic and symbolic VCF records are skipped.

Records whose positions do not fit either system for their mutation type are
skipped with a warning, or abort the run with --strict.`,
		Example: `  coordconv convert -t zero_based variants.tsv
  coordconv convert -t one_based -o out.tsv regions.bed.gz
  coordconv convert --annotate --db coords.duckdb data_mutations.txt
  coordconv convert -t zero_based calls.vcf.gz
  cat variants.tsv | coordconv convert -t zero_based -`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], outputFile)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	f.StringP("target", "t", "one_based", "Target coordinate system: zero_based or one_based")
	f.String("input-format", "", "Input format: tsv, maf, vcf (auto-detected if not specified)")
	f.Bool("strict", false, "Abort on the first record that cannot be classified")
	f.Bool("header", true, "Write a header line")
	f.Bool("annotate", false, "Append mutation_type and source_system columns")
	f.String("db", "", "Also store converted records in this DuckDB file")

	_ = viper.BindPFlag("convert.target", f.Lookup("target"))
	_ = viper.BindPFlag("convert.input_format", f.Lookup("input-format"))
	_ = viper.BindPFlag("convert.strict", f.Lookup("strict"))
	_ = viper.BindPFlag("convert.header", f.Lookup("header"))
	_ = viper.BindPFlag("convert.annotate", f.Lookup("annotate"))
	_ = viper.BindPFlag("convert.db", f.Lookup("db"))

	return cmd
}

func runConvert(cmd *cobra.Command, inputPath, outputFile string) (err error) {
	target, err := coord.ParseSystem(viper.GetString("convert.target"))
	if err != nil {
		return &usageError{err: err}
	}

	format := viper.GetString("convert.input_format")
	if format == "" {
		format = detectInputFormat(inputPath)
	}

	var (
		parser    tsv.RecordParser
		vcfParser *vcf.Parser
	)
	switch format {
	case "maf":
		parser, err = maf.NewParser(inputPath)
	case "vcf":
		vcfParser, err = vcf.NewParser(inputPath)
		parser = vcfParser
	case "tsv":
		parser, err = tsv.NewParser(inputPath)
	default:
		return &usageError{err: checkInputFormat(format)}
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("check that the file path is correct", zap.String("path", inputPath))
		}
		return err
	}
	defer parser.Close()

	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, cerr := os.Create(outputFile)
		if cerr != nil {
			return fmt.Errorf("create output file: %w", cerr)
		}
		// A failed run leaves no output file, matching the database, which
		// keeps nothing from a failed run either.
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", cerr)
			}
			if err != nil {
				os.Remove(outputFile)
			}
		}()
		out = f
	}

	writer := output.NewTabWriter(out, target)
	writer.SetAnnotate(viper.GetBool("convert.annotate"))

	n := normalize.NewNormalizer(target)
	n.SetStrict(viper.GetBool("convert.strict"))
	n.SetHeader(viper.GetBool("convert.header"))
	n.SetLogger(logger)

	logger.Debug("converting",
		zap.String("input", inputPath),
		zap.String("format", format),
		zap.Stringer("target", target))

	var (
		store *duckdb.Store
		fp    duckdb.FileFingerprint
	)
	if dbPath := viper.GetString("convert.db"); dbPath != "" {
		store, err = duckdb.Open(dbPath)
		if err != nil {
			return err
		}
		db := store
		defer func() {
			if cerr := db.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close database: %w", cerr)
			}
		}()

		if inputPath != "-" {
			if fp, err = duckdb.StatFile(inputPath); err != nil {
				return fmt.Errorf("stat input: %w", err)
			}
			loaded, count, err := store.SourceLoaded(fp)
			if err != nil {
				return err
			}
			if loaded {
				logger.Warn("input already stored in database, not storing again",
					zap.String("source", fp.String()),
					zap.Int64("records", count))
				store = nil
			}
		}
		if store != nil {
			n.SetSink(store)
		}
	}

	stats, err := n.Run(parser, writer)
	if err != nil {
		return err
	}

	if store != nil && fp.Path != "" {
		if err := store.RecordSource(fp, target.String(), stats.Converted, stats.Skipped); err != nil {
			return err
		}
	}

	if vcfParser != nil && vcfParser.Skipped() > 0 {
		logger.Warn("skipped multi-allelic or symbolic VCF records",
			zap.Int("count", vcfParser.Skipped()))
	}

	fields := []zap.Field{
		zap.Int("read", stats.Read),
		zap.Int("converted", stats.Converted),
		zap.Int("skipped", stats.Skipped),
		zap.Stringer("target", target),
	}
	for _, m := range []coord.MutationType{coord.SNV, coord.Insertion, coord.Deletion, coord.Substitution} {
		fields = append(fields, zap.Int(m.String(), stats.ByType[m]))
	}
	logger.Info("conversion complete", fields...)

	return nil
}

// checkInputFormat accepts the supported input formats and the empty
// string, which means auto-detect.
func checkInputFormat(format string) error {
	switch format {
	case "", "tsv", "maf", "vcf":
		return nil
	}
	return fmt.Errorf("unknown input format %q (use tsv, maf or vcf)", format)
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// detectInputFormat detects the input file format based on extension or content.
func detectInputFormat(path string) string {
	lowerPath := strings.ToLower(path)
	lowerPath = strings.TrimSuffix(lowerPath, ".gz")

	if strings.HasSuffix(lowerPath, ".maf") {
		return "maf"
	}
	if strings.HasSuffix(lowerPath, ".vcf") {
		return "vcf"
	}

	// cBioPortal MAF filenames
	baseName := filepath.Base(lowerPath)
	if baseName == "data_mutations.txt" || baseName == "data_mutations_extended.txt" {
		return "maf"
	}

	if path == "-" {
		return "tsv"
	}

	// Peek at the file; VCF and MAF headers name themselves.
	file, err := os.Open(path)
	if err != nil {
		return "tsv"
	}
	defer file.Close()

	r, gz, err := tsv.OpenMaybeGzip(file)
	if err != nil {
		return "tsv"
	}
	if gz != nil {
		defer gz.Close()
	}

	buf := make([]byte, 4096)
	n, _ := io.ReadFull(r, buf)
	content := string(buf[:n])

	if strings.HasPrefix(content, "##fileformat=VCF") || strings.HasPrefix(content, "#CHROM") {
		return "vcf"
	}
	if strings.Contains(content, maf.ColHugoSymbol) || strings.Contains(content, maf.ColStartPosition) {
		return "maf"
	}
	return "tsv"
}
