package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/docfold/internal/app"
	"github.com/dshills/docfold/internal/fold"
)

// scanBlock is one JSDoc block in scan output. Lines are 1-based.
type scanBlock struct {
	Start    int  `json:"start"`
	End      int  `json:"end"`
	Attached bool `json:"attached"`
	Fold     bool `json:"fold"`
}

// scanRange is a class body in scan output. Lines are 1-based.
type scanRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// scanResult is the report for one file.
type scanResult struct {
	File     string      `json:"file"`
	Language string      `json:"language"`
	Auto     bool        `json:"auto"`
	Blocks   []scanBlock `json:"blocks"`
	Classes  []scanRange `json:"classes,omitempty"`
	Fold     []int       `json:"fold"`
}

func scanCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON  bool
		classes bool
		match   string
	)

	cmd := &cobra.Command{
		Use:   "scan FILE...",
		Short: "Report JSDoc blocks and the folding decision for files",
		Long: `Report the JSDoc blocks of each file, which of them document a class or
export, and which lines a fold pass would fold. Nothing is modified.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), cmd.OutOrStdout(), flags, args, asJSON, classes, match)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON instead of text")
	cmd.Flags().BoolVar(&classes, "classes", false, "Include class body ranges")
	cmd.Flags().StringVar(&match, "match", "", "Start line rule: exact or prefix (default from config)")

	return cmd
}

func runScan(ctx context.Context, out io.Writer, flags *globalFlags, files []string, asJSON, classes bool, match string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	if match != "" {
		if _, err := fold.ParseStartMatch(match); err != nil {
			return err
		}
		cfg.Fold.StartMatch = match
	}
	cfg.Fold.DelayMS = 0

	host := &fold.RecordingHost{}
	a, err := app.New(app.Options{
		Config: cfg,
		Host:   host,
		Logger: newLogger(cfg, os.Stderr),
	})
	if err != nil {
		return err
	}
	defer a.Shutdown()

	results := make([]scanResult, 0, len(files))
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("scan %s: %w", path, err)
		}
		doc := app.NewDocument(path, content)

		host.Reset()
		dec, err := a.Engine().Pass(ctx, doc)
		if err != nil {
			return fmt.Errorf("scan %s: %w", path, err)
		}
		result := newScanResult(doc, dec, host.Calls())
		if classes {
			for _, r := range a.Engine().Scanner().Classes(doc) {
				result.Classes = append(result.Classes, scanRange{Start: r.Start + 1, End: r.End + 1})
			}
		}
		results = append(results, result)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		writeScanText(out, r)
	}
	return nil
}

// newScanResult builds the report of one pass. The fold lines are taken
// from the command the host received.
func newScanResult(doc *app.Document, dec fold.Decision, calls []fold.HostCall) scanResult {
	result := scanResult{
		File:     doc.Path,
		Language: doc.LanguageID(),
		Auto:     fold.IsSupported(doc.LanguageID()),
		Blocks:   make([]scanBlock, 0, len(dec.Blocks)),
		Fold:     []int{},
	}
	attached := make(map[int]bool, len(dec.Attached))
	for _, r := range dec.Attached {
		attached[r.Start] = true
	}
	folded := make(map[int]bool, len(dec.ToFold))
	for _, r := range dec.ToFold {
		folded[r.Start] = true
	}
	for _, r := range dec.Blocks {
		result.Blocks = append(result.Blocks, scanBlock{
			Start:    r.Start + 1,
			End:      r.End + 1,
			Attached: attached[r.Start],
			Fold:     folded[r.Start],
		})
	}
	for _, call := range calls {
		if call.Command != "fold" {
			continue
		}
		for _, line := range call.Lines {
			result.Fold = append(result.Fold, line+1)
		}
	}
	return result
}

func writeScanText(out io.Writer, r scanResult) {
	mode := ""
	if !r.Auto {
		mode = ", folded on command only"
	}
	fmt.Fprintf(out, "%s (%s%s)\n", r.File, r.Language, mode)
	if len(r.Blocks) == 0 {
		fmt.Fprintln(out, "  no JSDoc blocks")
	}
	for _, b := range r.Blocks {
		state := "open"
		switch {
		case b.Fold:
			state = "fold"
		case b.Attached:
			state = "attached"
		}
		fmt.Fprintf(out, "  jsdoc %d-%d  %s\n", b.Start, b.End, state)
	}
	for _, c := range r.Classes {
		fmt.Fprintf(out, "  class %d-%d\n", c.Start, c.End)
	}
}
