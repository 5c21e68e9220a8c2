package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/svcscan/svcscan/internal/catalog"
	"github.com/svcscan/svcscan/internal/cli"
	"github.com/svcscan/svcscan/internal/model"
	"github.com/svcscan/svcscan/internal/report"
	"github.com/svcscan/svcscan/internal/scanner"
	"github.com/svcscan/svcscan/internal/terminal"
	"github.com/svcscan/svcscan/internal/timer"
)

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	term := terminal.New()
	executable := filepath.Base(argv[0])

	opts, err := cli.ParseArgs(argv[1:])
	if err != nil {
		return fail(term, executable, err)
	}
	if opts.Help {
		fmt.Print(cli.Usage(executable))
		return 0
	}

	cfg, err := opts.ToScanConfig(argv)
	if err != nil {
		return fail(term, executable, err)
	}

	cat, err := catalog.Load()
	if err != nil {
		return fail(term, executable, err)
	}

	sched := scanner.New(cfg, cat, term)
	records, err := sched.Run(context.Background())
	if err != nil {
		return fail(term, executable, err)
	}

	if err := emitReport(term, cfg, records, sched.Elapsed(), executable); err != nil {
		return fail(term, executable, err)
	}

	return 0
}

// emitReport writes the table or JSON report (per cfg.JSONOutput) to
// cfg.OutputPath when set, and always prints it to stdout, per section 6:
// "If no output path is given, the report is written only to stdout."
func emitReport(term *terminal.Terminal, cfg *model.ScanConfig, records []*model.ServiceRecord, tm *timer.Timer, executable string) error {
	var rendered string

	if cfg.JSONOutput {
		doc := report.BuildDocument(cfg, records, tm, cfg.OutputPath, executable)
		out, err := report.MarshalJSON(doc)
		if err != nil {
			return err
		}
		rendered = string(out)
	} else {
		table, err := report.RenderTable(records)
		if err != nil {
			return err
		}
		rendered = table
	}

	fmt.Println(rendered)

	if cfg.Verbose {
		for _, r := range records {
			fmt.Print(report.FormatRecordDetail(r))
		}
	}

	if cfg.OutputPath != "" {
		if err := os.WriteFile(cfg.OutputPath, []byte(rendered), 0o644); err != nil {
			return &model.FilePathError{Path: cfg.OutputPath, Reason: err.Error()}
		}
		term.Success("Report written to %s", cfg.OutputPath)
	}

	return nil
}

func fail(term *terminal.Terminal, executable string, err error) int {
	term.Error("%v", err)
	fmt.Fprint(os.Stderr, cli.Usage(executable))
	return 1
}
