package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/or-schedule/internal/pipeline"
	"github.com/joseph-ayodele/or-schedule/internal/repository"
)

const caseText = "OR 3\n\n09:00\n09:45\n30\nJane Doe appendectomy"

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newApp(t *testing.T, withStore bool) *fiber.App {
	t.Helper()
	logger := quietLogger()
	var (
		jobs    repository.ParseJobRepository
		entries repository.ScheduleEntryRepository
	)
	if withStore {
		db, err := repository.Open(context.Background(), repository.Config{DSN: "sqlite::memory:"}, logger)
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		t.Cleanup(db.Close)
		if err := db.Migrate(context.Background()); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		jobs = repository.NewParseJobRepository(db, logger)
		entries = repository.NewScheduleEntryRepository(db, logger)
	}
	proc := pipeline.NewProcessor(logger, pipeline.Config{}, nil, jobs, entries)
	return NewApp(proc, jobs, logger)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
	}
	return resp.StatusCode, env
}

func TestHealthz(t *testing.T) {
	code, env := do(t, newApp(t, false), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if code != http.StatusOK || env.Status != "success" || string(env.Data) != `{"status":"ok"}` {
		t.Fatalf("status = %d, env = %+v", code, env)
	}
}

func TestParse(t *testing.T) {
	app := newApp(t, true)
	code, env := do(t, app, httptest.NewRequest(http.MethodPost, "/v1/parse?source=day.txt", strings.NewReader(caseText)))
	if code != http.StatusOK || env.Status != "success" {
		t.Fatalf("status = %d, env = %+v", code, env)
	}

	var data struct {
		JobID      string                      `json:"job_id"`
		Company    *string                     `json:"company"`
		ORSections map[string][]map[string]any `json:"or_sections"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Company != nil {
		t.Fatalf("company = %v", *data.Company)
	}
	entries := data.ORSections["OR 3"]
	if len(entries) != 1 || entries[0]["surgeon"] != "Jane Doe" {
		t.Fatalf("or_sections = %v", data.ORSections)
	}

	code, env = do(t, app, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+data.JobID, nil))
	if code != http.StatusOK {
		t.Fatalf("get job status = %d, env = %+v", code, env)
	}
	var job struct {
		Status string `json:"status"`
		Source string `json:"source_path"`
	}
	if err := json.Unmarshal(env.Data, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.Status != "PARSED" || job.Source != "day.txt" {
		t.Fatalf("job = %+v", job)
	}
}

func TestParse_FacilityHint(t *testing.T) {
	app := newApp(t, false)
	code, env := do(t, app, httptest.NewRequest(http.MethodPost, "/v1/parse?facility=HAWTHORN+SURGERY+CENTER", strings.NewReader(caseText)))
	if code != http.StatusOK {
		t.Fatalf("status = %d, env = %+v", code, env)
	}
	if !strings.Contains(string(env.Data), `"company":"Hawthorn Surgery Center"`) {
		t.Fatalf("data = %s", env.Data)
	}

	code, env = do(t, app, httptest.NewRequest(http.MethodPost, "/v1/parse?facility=Nowhere", strings.NewReader(caseText)))
	if code != http.StatusBadRequest || env.Status != "error" {
		t.Fatalf("status = %d, env = %+v", code, env)
	}
}

func TestParse_EmptyBody(t *testing.T) {
	code, env := do(t, newApp(t, false), httptest.NewRequest(http.MethodPost, "/v1/parse", strings.NewReader("  \n")))
	if code != http.StatusBadRequest || env.Status != "error" || env.Message == "" {
		t.Fatalf("status = %d, env = %+v", code, env)
	}
}

func TestApplyErrorToResponse_UsesGivenLogger(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return ApplyErrorToResponse(c, logger, "boom", errors.New("disk on fire"))
	})

	code, env := do(t, app, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if code != http.StatusInternalServerError || env.Message != "boom" {
		t.Fatalf("status = %d, env = %+v", code, env)
	}
	if !strings.Contains(buf.String(), "http.request.error") || !strings.Contains(buf.String(), "disk on fire") {
		t.Fatalf("log = %q", buf.String())
	}
}

func TestGetJob_Errors(t *testing.T) {
	tests := []struct {
		name      string
		withStore bool
		path      string
		want      int
	}{
		{"bad id", true, "/v1/jobs/nope", http.StatusBadRequest},
		{"unknown id", true, "/v1/jobs/5f0c8a51-3a4e-4f4c-9d57-2b1f6a0f0a11", http.StatusNotFound},
		{"no store", false, "/v1/jobs/5f0c8a51-3a4e-4f4c-9d57-2b1f6a0f0a11", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, newApp(t, tt.withStore), httptest.NewRequest(http.MethodGet, tt.path, nil))
			if code != tt.want || env.Status != "error" {
				t.Fatalf("status = %d, env = %+v", code, env)
			}
		})
	}
}
