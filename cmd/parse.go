package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/payload"
	"github.com/wearlab/sensorsync/internal/serialize"
	"github.com/wearlab/sensorsync/internal/series"
)

var (
	parseFormat string
	parseOutput string
	parseTag    string
	parseExpand bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [input]",
	Short: "Parse one local recording to stdout or a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("parse"); err != nil {
			return err
		}

		name := cfg.Sync.Format
		if parseFormat != "" {
			name = parseFormat
		}
		format, err := serialize.ParseFormat(name)
		if err != nil {
			return err
		}

		input := "sample.csv"
		if len(args) == 1 {
			input = args[0]
		}
		in, err := os.Open(input)
		if err != nil {
			return eris.Wrap(err, "parse: open input")
		}
		defer in.Close()

		opts := parseOptions{
			Format:     format,
			Encoding:   cfg.Input.Encoding,
			Tag:        parseTag,
			Expand:     parseExpand,
			IntervalMS: cfg.Sync.DefaultIntervalMS,
		}

		if parseOutput == "" {
			err := runParse(in, os.Stdout, opts)
			if errors.Is(err, syscall.EPIPE) {
				// Allow piping into tools like head.
				return nil
			}
			return err
		}

		if dir := filepath.Dir(parseOutput); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return eris.Wrap(err, "parse: create output directory")
			}
		}
		out, err := os.Create(parseOutput)
		if err != nil {
			return eris.Wrap(err, "parse: create output")
		}
		if err := runParse(in, out, opts); err != nil {
			_ = out.Close()
			return err
		}
		return eris.Wrap(out.Close(), "parse: close output")
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "", "output format: csv or jsonl (default from config)")
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "", "write output to a file instead of stdout")
	parseCmd.Flags().StringVar(&parseTag, "tag", "", "only emit records with this type tag")
	parseCmd.Flags().BoolVar(&parseExpand, "expand", false, "fan multi-sample payloads out into per-sample rows")
	rootCmd.AddCommand(parseCmd)
}

// parseOptions configure one parse invocation.
type parseOptions struct {
	Format     serialize.Format
	Encoding   string
	Tag        string
	Expand     bool
	IntervalMS float64
}

// runParse reads one recording and writes it in the requested shape. Without
// Expand the records keep their multi-sample payload arrays; with Expand each
// tag group is sorted and fanned out into individually timestamped samples.
func runParse(in io.Reader, out io.Writer, opts parseOptions) error {
	records, err := payload.ParseRecording(in, payload.ReaderOptions{Encoding: opts.Encoding})
	if err != nil {
		return err
	}
	if opts.Tag != "" {
		kept := records[:0:0]
		for _, rec := range records {
			if rec.TypeTag == opts.Tag {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	if !opts.Expand {
		return serialize.WriteParsed(out, opts.Format, records)
	}

	expander := series.NewExpander(opts.IntervalMS)
	groups := series.GroupByTag(records)
	var expanded []model.ExpandedRecord
	for _, tag := range groups.Tags() {
		group := groups.Group(tag)
		series.SortByEpoch(group)
		expanded = append(expanded, expander.Expand(group)...)
	}
	return serialize.WriteExpanded(out, opts.Format, expanded)
}
