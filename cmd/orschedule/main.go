package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/extract"
	"github.com/joseph-ayodele/or-schedule/internal/ocr"
)

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_ = writeEnvelope(os.Stdout, envelope{Status: "error", Message: err.Error()})
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "orschedule",
		Usage: "Parse operating-room schedule documents",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file applied over the defaults"},
			&cli.BoolFlag{Name: "json-logs", Usage: "Log as JSON instead of text"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogger(os.Stderr, cmd.Bool("json-logs"), cmd.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			parseCmd(),
			segmentCmd(),
			exportCmd(),
			batchCmd(),
			serveCmd(),
		},
	}
}

func setupLogger(w io.Writer, jsonLogs, debug bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if jsonLogs {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func loadConfig(cmd *cli.Command) (*common.Config, error) {
	cfg, err := common.LoadConfigFile(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newExtractor(cfg *common.Config, logger *slog.Logger) extract.TextExtractor {
	e := ocr.NewExtractor(ocr.Config{
		TesseractLang:       cfg.OCR.Lang,
		DPI:                 cfg.OCR.DPI,
		TessdataDir:         cfg.OCR.TessdataDir,
		ArtifactCacheDir:    cfg.OCR.ArtifactCacheDir,
		HeicConverter:       cfg.OCR.HeicConverter,
		EnableTSVConfidence: true,
	}, logger)
	return extract.NewOCRAdapter(e, logger)
}

func writeEnvelope(w io.Writer, env envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.Args().First()
	if v == "" {
		return "", fmt.Errorf("%s argument is required", name)
	}
	return v, nil
}
