package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/or-schedule/internal/async"
	"github.com/joseph-ayodele/or-schedule/internal/extract"
	"github.com/joseph-ayodele/or-schedule/internal/pipeline"
	"github.com/joseph-ayodele/or-schedule/internal/repository"
)

const caseText = "OR 3\n\n09:00\n09:45\n30\nJane Doe appendectomy"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	client *ScheduleClient
	conn   *grpc.ClientConn
	queue  *async.ProcessorQueue
}

func startServer(t *testing.T, withStore bool) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := quietLogger()

	var (
		jobs    repository.ParseJobRepository
		entries repository.ScheduleEntryRepository
	)
	if withStore {
		db, err := repository.Open(ctx, repository.Config{DSN: "sqlite::memory:"}, logger)
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		t.Cleanup(db.Close)
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		jobs = repository.NewParseJobRepository(db, logger)
		entries = repository.NewScheduleEntryRepository(db, logger)
	}

	proc := pipeline.NewProcessor(logger, pipeline.Config{}, extract.StaticExtractor{Text: caseText}, jobs, entries)
	env := &testEnv{}
	var q async.Queue
	if withStore {
		env.queue = async.NewProcessorQueue(proc, logger, async.WithWorkers(1))
		q = env.queue
		t.Cleanup(func() { env.queue.Shutdown(context.Background()) })
	}

	gs, _ := NewGRPCServer(NewScheduleService(proc, jobs, q, logger), logger)
	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	env.conn = conn
	env.client = NewScheduleClient(conn)
	return env
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	st, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return st
}

func TestParseText(t *testing.T) {
	env := startServer(t, false)
	resp, err := env.client.ParseText(context.Background(), mustStruct(t, map[string]any{
		"text":     caseText,
		"facility": "golf surgical center",
	}))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	m := resp.AsMap()
	if m["company"] != "Golf Surgical Center" {
		t.Fatalf("company = %v", m["company"])
	}
	sections := m["or_sections"].(map[string]any)
	entries := sections["OR 3"].([]any)
	if len(entries) != 1 {
		t.Fatalf("entries = %v", entries)
	}
	e := entries[0].(map[string]any)
	if e["start_time"] != "09:00" || e["surgeon"] != "Jane Doe" || e["procedure"] != "appendectomy" {
		t.Fatalf("entry = %v", e)
	}
	if keys := m["or_keys"].([]any); len(keys) != 1 || keys[0] != "OR 3" {
		t.Fatalf("or_keys = %v", keys)
	}
}

func TestParseText_InvalidArgument(t *testing.T) {
	env := startServer(t, false)
	tests := []map[string]any{
		{},
		{"text": "   "},
		{"text": caseText, "facility": "Nowhere Clinic"},
	}
	for _, req := range tests {
		_, err := env.client.ParseText(context.Background(), mustStruct(t, req))
		if status.Code(err) != codes.InvalidArgument {
			t.Errorf("ParseText(%v) code = %v, want InvalidArgument", req, status.Code(err))
		}
	}
}

func TestParseFile_SyncAndGetJob(t *testing.T) {
	env := startServer(t, true)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "day.txt")
	if err := os.WriteFile(path, []byte(caseText), 0o644); err != nil {
		t.Fatal(err)
	}

	resp, err := env.client.ParseFile(ctx, mustStruct(t, map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	jobID, _ := resp.AsMap()["job_id"].(string)
	if jobID == "" {
		t.Fatalf("response = %v", resp.AsMap())
	}

	job, err := env.client.GetJob(ctx, mustStruct(t, map[string]any{"job_id": jobID}))
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	m := job.AsMap()
	if m["status"] != "PARSED" || m["entries"] != float64(1) {
		t.Fatalf("job = %v", m)
	}
	if _, ok := m["result"].(map[string]any); !ok {
		t.Fatalf("job result missing: %v", m)
	}
}

func TestParseFile_Async(t *testing.T) {
	env := startServer(t, true)
	ctx := context.Background()

	resp, err := env.client.ParseFile(ctx, mustStruct(t, map[string]any{"path": "/in/day.pdf", "async": true}))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	m := resp.AsMap()
	if m["queued"] != true {
		t.Fatalf("response = %v", m)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	env.queue.Shutdown(shutdownCtx)

	job, err := env.client.GetJob(ctx, mustStruct(t, map[string]any{"job_id": m["job_id"]}))
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got := job.AsMap()["status"]; got != "PARSED" {
		t.Fatalf("status = %v", got)
	}
}

func TestParseFile_Errors(t *testing.T) {
	env := startServer(t, true)
	tests := []struct {
		req  map[string]any
		code codes.Code
	}{
		{map[string]any{}, codes.InvalidArgument},
		{map[string]any{"path": "/in/notes.docx"}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		_, err := env.client.ParseFile(context.Background(), mustStruct(t, tt.req))
		if status.Code(err) != tt.code {
			t.Errorf("ParseFile(%v) code = %v, want %v", tt.req, status.Code(err), tt.code)
		}
	}
}

func TestGetJob_Errors(t *testing.T) {
	env := startServer(t, true)
	tests := []struct {
		id   string
		code codes.Code
	}{
		{"", codes.InvalidArgument},
		{"not-a-uuid", codes.InvalidArgument},
		{"5f0c8a51-3a4e-4f4c-9d57-2b1f6a0f0a11", codes.NotFound},
	}
	for _, tt := range tests {
		_, err := env.client.GetJob(context.Background(), mustStruct(t, map[string]any{"job_id": tt.id}))
		if status.Code(err) != tt.code {
			t.Errorf("GetJob(%q) code = %v, want %v", tt.id, status.Code(err), tt.code)
		}
	}
}

func TestHealth(t *testing.T) {
	env := startServer(t, false)
	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
}
