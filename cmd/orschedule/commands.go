package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"

	"github.com/joseph-ayodele/or-schedule/constants"
	"github.com/joseph-ayodele/or-schedule/internal/export"
	"github.com/joseph-ayodele/or-schedule/internal/ingest"
	"github.com/joseph-ayodele/or-schedule/internal/pipeline"
	"github.com/joseph-ayodele/or-schedule/internal/schedule"
)

func newProcessor(cmd *cli.Command, outputDir string) (*pipeline.Processor, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	return pipeline.NewProcessor(logger, pipeline.Config{
		OutputDir:         outputDir,
		Facilities:        cfg.Parser.Facilities,
		LegacyWorklistPop: cfg.Parser.LegacyWorklistPop,
	}, newExtractor(cfg, logger), nil, nil), nil
}

func parseCmd() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse one schedule document and print the result",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Write the envelope to this file instead of stdout"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "file")
			if err != nil {
				return err
			}
			proc, err := newProcessor(cmd, "")
			if err != nil {
				return err
			}
			out, err := proc.ProcessFile(ctx, path)
			if err != nil {
				return err
			}

			env := envelope{Status: "success", Data: out.Result}
			dest := cmd.String("out")
			if dest == "" {
				return writeEnvelope(os.Stdout, env)
			}
			var buf bytes.Buffer
			if err := writeEnvelope(&buf, env); err != nil {
				return err
			}
			if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			slog.Info("cli.parse.ok", "path", path, "out", dest, "entries", out.Stats.Entries)
			return nil
		},
	}
}

func segmentCmd() *cli.Command {
	return &cli.Command{
		Name:      "segment",
		Usage:     "Print the delimiter-annotated text the parser consumes",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "file")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			res, err := newExtractor(cfg, slog.Default()).Extract(ctx, path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(os.Stdout, schedule.Prepare(res.Text))
			return err
		},
	}
}

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Parse a document and write the schedule as an xlsx workbook",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Destination .xlsx file", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "file")
			if err != nil {
				return err
			}
			proc, err := newProcessor(cmd, "")
			if err != nil {
				return err
			}
			out, err := proc.ProcessFile(ctx, path)
			if err != nil {
				return err
			}
			data, err := export.NewService(slog.Default()).WriteXLSX(out.Result)
			if err != nil {
				return err
			}
			dest := cmd.String("out")
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			return writeEnvelope(os.Stdout, envelope{Status: "success", Data: map[string]any{
				"path":    dest,
				"sheets":  out.Result.ORSections.Len() + 1,
				"entries": out.Stats.Entries,
			}})
		},
	}
}

type batchItem struct {
	Path    string `json:"path"`
	Output  string `json:"output,omitempty"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}

func batchCmd() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Parse every supported document in a directory",
		ArgsUsage: "<dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out-dir", Usage: "Directory receiving one JSON file per document", Value: "out"},
			&cli.BoolFlag{Name: "include-hidden", Usage: "Also parse hidden files and directories"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := requireArg(cmd, "dir")
			if err != nil {
				return err
			}
			outDir, err := filepath.Abs(cmd.String("out-dir"))
			if err != nil {
				return err
			}
			proc, err := newProcessor(cmd, outDir)
			if err != nil {
				return err
			}

			var items []batchItem
			stats, err := ingest.ScanDirectory(ctx, root, constants.AllowedExtensions, !cmd.Bool("include-hidden"),
				func(ctx context.Context, path string) (bool, error) {
					out, err := proc.ProcessFile(ctx, path)
					item := batchItem{Path: path, Output: out.OutputPath, Entries: out.Stats.Entries}
					if err != nil {
						item.Error = err.Error()
					}
					items = append(items, item)
					return false, err
				})
			if err != nil {
				return err
			}
			slog.Info("cli.batch.done", "root", root, "matched", stats.Matched, "succeeded", stats.Succeeded, "failed", stats.Failed)
			return writeEnvelope(os.Stdout, envelope{Status: "success", Data: map[string]any{
				"stats": stats,
				"files": items,
			}})
		},
	}
}
