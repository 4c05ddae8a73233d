//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/ragengine/internal/api/handlers"
	"github.com/cloo-solutions/ragengine/internal/api/middleware"
	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/repository"
	"github.com/cloo-solutions/ragengine/internal/server"
	"github.com/cloo-solutions/ragengine/internal/service"
	"github.com/cloo-solutions/ragengine/internal/storage"
	"github.com/cloo-solutions/ragengine/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dimensions = 768
	apiToken   = "e2e-secret-token"
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
	BinaryDir    string
	Chat         *scriptedChat
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC)

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "rag-uploads",
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

	chat := &scriptedChat{}
	serverURL, serverCloser := startServer(t, pool, s3Client, chat, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		Chat:         chat,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
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
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinaries builds the rag client binary
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "rag-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "rag"), "./cmd/rag")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build rag: %v\n%s", err, out)
	}
}

// RunRag runs the rag CLI against the test server
func (e *E2ETestEnv) RunRag(workDir string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "rag"), args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("RAG_API_TOKEN=%s", apiToken),
		fmt.Sprintf("RAG_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, authToken string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil, authToken)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, authToken string) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body, authToken)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, authToken string) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
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

	apiResp := APIResponse{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
	}

	return &apiResp, nil
}

// WriteFile writes content under dir and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// startServer starts the HTTP server with all handlers
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, chat *scriptedChat, port int) (string, func()) {
	documents := repository.NewDocumentRepository(pool, dimensions)
	embedder := keywordEmbedder{}

	retrieval := service.NewRetrievalTool(embedder, documents)
	ingestion := service.NewIngestionService(embedder, documents, service.WithArchive(s3Client))
	agent := service.NewAgent(chat, retrieval, service.AgentConfig{
		Instructions: "Answer from the documents.",
		Model:        "scripted",
		MaxSteps:     5,
		Timeout:      10 * time.Second,
	})

	router := server.NewRouter(server.RouterConfig{
		TokenValidator:  middleware.StaticTokenValidator{Token: apiToken},
		ChatHandler:     handlers.NewChatHandler(agent),
		IngestHandler:   handlers.NewIngestHandler(ingestion),
		DocumentHandler: handlers.NewDocumentHandler(service.NewDocumentService(documents, service.WithArchiveRemover(s3Client))),
		SearchHandler:   handlers.NewSearchHandler(retrieval),
	})

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

// keywords map topics onto orthogonal embedding axes.
var keywords = []string{"refund", "shipping", "warranty"}

// keywordEmbedder embeds text as the normalized sum of the axes of the
// keywords it mentions. Text without keywords lands on the last axis.
type keywordEmbedder struct{}

func (keywordEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, dimensions)
	lower := strings.ToLower(text)
	hits := 0
	for i, k := range keywords {
		if strings.Contains(lower, k) {
			v[i] = 1
			hits++
		}
	}
	if hits == 0 {
		v[dimensions-1] = 1
		return v, nil
	}
	norm := float32(1 / math.Sqrt(float64(hits)))
	for i := range v {
		v[i] *= norm
	}
	return v, nil
}

// scriptedChat asks for one searchFiles call and then answers with the tool
// output it was given.
type scriptedChat struct {
	mu      sync.Mutex
	queries []string
}

func (c *scriptedChat) StreamCompletion(_ context.Context, req domain.ChatRequest) (domain.CompletionStream, error) {
	last := req.Messages[len(req.Messages)-1]

	if last.Role == domain.RoleTool {
		return &scriptedStream{deltas: []domain.CompletionDelta{
			{Text: "From your documents: "},
			{Text: last.Content},
			{FinishReason: "stop"},
		}}, nil
	}

	c.mu.Lock()
	c.queries = append(c.queries, last.Content)
	c.mu.Unlock()

	args, _ := json.Marshal(map[string]string{"query": last.Content})
	return &scriptedStream{deltas: []domain.CompletionDelta{
		{ToolCalls: []domain.ToolCallDelta{{Index: 0, ID: "call_1", Name: service.SearchToolName}}},
		{ToolCalls: []domain.ToolCallDelta{{Index: 0, Arguments: string(args)}}},
		{FinishReason: "tool_calls"},
	}}, nil
}

// Queries returns the user questions the model was asked to search for.
func (c *scriptedChat) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

type scriptedStream struct {
	deltas []domain.CompletionDelta
	pos    int
}

func (s *scriptedStream) Recv() (domain.CompletionDelta, error) {
	if s.pos >= len(s.deltas) {
		return domain.CompletionDelta{}, io.EOF
	}
	d := s.deltas[s.pos]
	s.pos++
	return d, nil
}

func (s *scriptedStream) Close() error { return nil }
