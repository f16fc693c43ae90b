package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/schema"
)

// parse runs stage 2: schedule parsing, schema validation, persistence and
// the optional JSON output file.
func (p *Processor) parse(ctx context.Context, jobID uuid.UUID, source, text string) (Outcome, error) {
	out := Outcome{JobID: jobID}
	out.Result, out.Stats = p.Parser.Parse(text)

	data, err := json.Marshal(out.Result)
	if err != nil {
		return out, p.fail(ctx, jobID, fmt.Errorf("marshal result: %w", err))
	}
	if err := schema.ValidateJSONAgainstSchema(p.schema, data); err != nil {
		p.Logger.Error("pipeline.schema.invalid", "job_id", jobID, "err", err)
		return out, p.fail(ctx, jobID, fmt.Errorf("%w: %v", common.ErrValidation, err))
	}
	if out.Stats.Rejected > 0 || out.Stats.MalformedMetadata > 0 {
		p.Logger.Warn("pipeline.parse.partial",
			"job_id", jobID,
			"rejected", out.Stats.Rejected,
			"malformed_metadata", out.Stats.MalformedMetadata,
		)
	}

	if p.Entries != nil {
		if _, err := p.Entries.ReplaceForJob(ctx, jobID, out.Result.ORSections); err != nil {
			return out, p.fail(ctx, jobID, err)
		}
	}
	if p.Jobs != nil {
		if err := p.Jobs.FinishSuccess(ctx, jobID, out.Result.Company, data, out.Stats); err != nil {
			return out, err
		}
	}

	if p.Cfg.OutputDir != "" {
		path, err := writeJSON(p.Cfg.OutputDir, outputName(source, jobID), out.Result)
		if err != nil {
			// the job itself is already stored
			p.Logger.Error("pipeline.output.failed", "job_id", jobID, "dir", p.Cfg.OutputDir, "err", err)
			return out, fmt.Errorf("write output: %w", err)
		}
		out.OutputPath = path
	}
	return out, nil
}

func outputName(source string, jobID uuid.UUID) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = jobID.String()
	}
	return base + ".json"
}

// writeJSON writes v as indented JSON into dir/name through a temp file and
// a rename, so readers never observe a partial file.
func writeJSON(dir, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	dst := filepath.Join(dir, name)
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	return dst, nil
}
