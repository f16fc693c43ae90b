package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  grpc_addr: ":9000"
worker:
  workers: 4
  process_timeout: 30s
parser:
  facilities:
    - "Lakeside Surgery Center"
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WORKERS", "8")
	t.Setenv("LEGACY_WORKLIST_POP", "true")

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Server.GRPCAddr != ":9000" {
		t.Errorf("GRPCAddr = %q", cfg.Server.GRPCAddr)
	}
	if cfg.Worker.Workers != 8 {
		t.Errorf("Workers = %d, env should win", cfg.Worker.Workers)
	}
	if cfg.Worker.ProcessTimeout != 30*time.Second {
		t.Errorf("ProcessTimeout = %v", cfg.Worker.ProcessTimeout)
	}
	if len(cfg.Parser.Facilities) != 1 || cfg.Parser.Facilities[0] != "Lakeside Surgery Center" {
		t.Errorf("Facilities = %v", cfg.Parser.Facilities)
	}
	if !cfg.Parser.LegacyWorklistPop {
		t.Error("LegacyWorklistPop should come from env")
	}
	if cfg.OCR.DPI != 300 || cfg.Worker.QueueSize != 64 {
		t.Errorf("defaults lost: dpi=%d queue=%d", cfg.OCR.DPI, cfg.Worker.QueueSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("worker: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfigFile(path)
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
		t.Fatalf("expected CONFIG_ERROR, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.Worker.Workers = 0
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
