//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reslab/paperlens/internal/api/handlers"
	"github.com/reslab/paperlens/internal/api/middleware"
	"github.com/reslab/paperlens/internal/chunker"
	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/jobs"
	"github.com/reslab/paperlens/internal/pipeline"
	"github.com/reslab/paperlens/internal/repository"
	"github.com/reslab/paperlens/internal/server"
	"github.com/reslab/paperlens/internal/service"
	"github.com/reslab/paperlens/internal/storage"
	"github.com/reslab/paperlens/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	HTTPClient   *http.Client

	PaperRepo *repository.PaperRepository
	ChunkRepo *repository.ChunkRepository
	RunRepo   *repository.RunRepository
}

// SetupE2EEnv creates a full E2E test environment with containers, a running
// server and the background analysis worker.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "paperlens-e2e",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, s3Client, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		PaperRepo:    repository.NewPaperRepository(pool),
		ChunkRepo:    repository.NewChunkRepository(pool),
		RunRepo:      repository.NewRunRepository(pool),
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// SeedPaper stores a paper and its chunks directly, bypassing PDF extraction.
func (e *E2ETestEnv) SeedPaper(title, text string) *domain.Paper {
	now := time.Now().UTC().Truncate(time.Microsecond)
	paper := domain.NewPaper(uuid.NewString(), strings.ToLower(strings.ReplaceAll(title, " ", "-"))+".pdf",
		title, "", uuid.NewString(), 1, text, now)
	if err := e.PaperRepo.Create(e.Ctx, paper); err != nil {
		e.T.Fatalf("failed to seed paper: %v", err)
	}

	splitter := chunker.New(chunker.Config{MaxSize: 30000, Lookback: 2000})
	for _, c := range splitter.Split(text) {
		chunk := &domain.Chunk{
			ID:             uuid.NewString(),
			PaperID:        paper.ID,
			Index:          c.Index,
			Text:           c.Text,
			EndsMidSection: c.EndsMidSection,
			CreatedAt:      now,
		}
		if err := e.ChunkRepo.CreateBatch(e.Ctx, []*domain.Chunk{chunk}); err != nil {
			e.T.Fatalf("failed to seed chunk: %v", err)
		}
	}
	return paper
}

// SeedRun queues a pending analysis run for the worker to pick up.
func (e *E2ETestEnv) SeedRun(paperID string) *domain.AnalysisRun {
	run := domain.NewAnalysisRun(uuid.NewString(), paperID, domain.PromptTypeDefault,
		time.Now().UTC().Truncate(time.Microsecond))
	if err := e.RunRepo.Create(e.Ctx, run); err != nil {
		e.T.Fatalf("failed to seed run: %v", err)
	}
	return run
}

// WaitForRun polls the status endpoint until the run is terminal.
func (e *E2ETestEnv) WaitForRun(runID string, timeout time.Duration) *APIResponse {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := e.Get("/runs/" + runID + "/status")
		if err == nil {
			var status struct {
				Run struct {
					Status string `json:"status"`
				} `json:"run"`
			}
			if json.Unmarshal(resp.Data, &status) == nil {
				switch status.Run.Status {
				case "completed", "partially_failed", "failed":
					return resp
				}
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	e.T.Fatalf("run %s did not finish within %v", runID, timeout)
	return nil
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// UploadMultipart posts a multipart form upload to /papers.
func (e *E2ETestEnv) UploadMultipart(filename string, content []byte) (*http.Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", e.ServerURL+"/papers", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.HTTPClient.Do(req)
}

// scriptedCollaborator fakes the LLM with deterministic per-prompt output.
type scriptedCollaborator struct{}

func (c *scriptedCollaborator) respond(prompt string) string {
	switch {
	case strings.Contains(prompt, "Go deeper"):
		return "Deeper analysis of the summarized findings."
	case strings.Contains(prompt, "citation identifiers"):
		return "The paper cites foundational transformer work."
	case strings.Contains(prompt, "literature searches"):
		return "1. Scale the approach. 2. Test on new domains. 3. Ablate components."
	default:
		return "A concise summary of the paper's contribution."
	}
}

func (c *scriptedCollaborator) Complete(ctx context.Context, prompt string) (string, error) {
	return c.respond(prompt), nil
}

func (c *scriptedCollaborator) CompleteStreaming(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	out := c.respond(prompt)
	if onDelta != nil {
		onDelta(out)
	}
	return out, nil
}

func (c *scriptedCollaborator) Model() string { return "scripted" }

// startServer starts the HTTP server with all handlers and the worker
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, func()) {
	paperRepo := repository.NewPaperRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	runRepo := repository.NewRunRepository(pool)
	stageResultRepo := repository.NewStageResultRepository(pool)
	citationRepo := repository.NewCitationRepository(pool)
	comparisonRepo := repository.NewComparisonRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	collaborator := &scriptedCollaborator{}
	splitter := chunker.New(chunker.DefaultConfig())
	runner := pipeline.New(collaborator, pipeline.DefaultConfig())

	paperSvc := service.NewPaperService(paperRepo, chunkRepo, txRunner, splitter, s3Client)
	analysisSvc := service.NewAnalysisService(runRepo, stageResultRepo, citationRepo, paperRepo, chunkRepo, runner, nil, service.AnalysisConfig{
		ReportDir: t.TempDir(),
	})
	compareSvc := service.NewCompareService(paperRepo, stageResultRepo, comparisonRepo, collaborator)
	chatSvc := service.NewChatService(paperRepo, stageResultRepo, collaborator, 0)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	worker := jobs.NewWorker(jobs.NewAnalysisWorker(runRepo, analysisSvc), 250*time.Millisecond)
	go worker.Start(workerCtx)

	cfg := server.RouterConfig{
		PaperHandler:   handlers.NewPaperHandler(paperSvc, analysisSvc, 50*1024*1024),
		RunHandler:     handlers.NewRunHandler(analysisSvc),
		CompareHandler: handlers.NewCompareHandler(compareSvc),
		ChatHandler:    handlers.NewChatHandler(chatSvc),
		ReportHandler:  handlers.NewReportHandler(analysisSvc, s3Client),
		UploadLimiter:  middleware.NewUploadRateLimiter(100, time.Hour),
		MaxUploadBytes: 50 * 1024 * 1024,
	}

	router := server.NewRouter(cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		cancelWorker()
		worker.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
