package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"math-log-server/models"
	"math-log-server/services"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.StreamEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.StreamEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []models.StreamEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.StreamEvent(nil), p.events...)
}

type testServer struct {
	app       *fiber.App
	db        *services.DBService
	logger    *services.OperationLogger
	publisher *recordingPublisher
}

func setupServer(t *testing.T, publisher *recordingPublisher) *testServer {
	t.Helper()

	db, err := services.NewDBService("sqlite3", filepath.Join(t.TempDir(), "requests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema(context.Background()))

	storage, err := services.NewLocalStorageService(t.TempDir())
	require.NoError(t, err)

	if publisher == nil {
		publisher = &recordingPublisher{}
	}
	logger := services.NewOperationLogger(db, publisher, time.Second)
	export := services.NewExportService(db, storage)

	app := NewApp(AppOptions{AppName: "test"})
	SetupRoutes(app,
		NewMathHandler(services.NewMathService(0), logger),
		NewLogHandler(logger, export),
		NewHealthHandler(db, nil),
	)

	return &testServer{app: app, db: db, logger: logger, publisher: publisher}
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Detail string          `json:"detail"`
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, envelope, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	return resp.StatusCode, env, string(raw)
}

func (s *testServer) logs(t *testing.T, operation string) []models.OperationLog {
	t.Helper()

	path := "/api/logs"
	if operation != "" {
		path += "?operation=" + operation
	}
	status, env, _ := s.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, status)

	var logs []models.OperationLog
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	return logs
}

func TestRoot(t *testing.T) {
	s := setupServer(t, nil)

	status, env, _ := s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"info":"Welcome to the Math Microservice! Use /docs to explore the API."}`, string(env.Data))
}

func TestPow(t *testing.T) {
	s := setupServer(t, nil)
	body := `{"base": 2, "exponent": 10}`

	status, _, raw := s.do(t, http.MethodPost, "/api/pow", body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"data":{"result":1024.0}}`, raw)

	s.logger.Wait()
	logs := s.logs(t, "pow")
	require.Len(t, logs, 1)
	assert.Equal(t, "pow", logs[0].Operation)
	assert.Equal(t, body, logs[0].InputData)
	assert.Equal(t, "1024.0", logs[0].Result)

	events := s.publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, models.StreamEvent{Operation: "pow", Input: body, Result: "1024.0"}, events[0])
}

func TestPow_ComputationError(t *testing.T) {
	s := setupServer(t, nil)

	status, env, _ := s.do(t, http.MethodPost, "/api/pow", `{"base": -8, "exponent": 0.5}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, env.Detail, "math domain error")
	assert.Empty(t, s.logs(t, ""))
}

func TestFibonacci(t *testing.T) {
	s := setupServer(t, nil)

	status, env, _ := s.do(t, http.MethodPost, "/api/fibonacci", `{"n": 10}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"result":55}`, string(env.Data))

	logs := s.logs(t, "fibonacci")
	require.Len(t, logs, 1)
	assert.Equal(t, "55", logs[0].Result)
}

func TestIntegralFloatN(t *testing.T) {
	s := setupServer(t, nil)

	status, env, _ := s.do(t, http.MethodPost, "/api/fibonacci", `{"n": 10.0}`)
	require.Equal(t, http.StatusOK, status, env.Detail)
	assert.JSONEq(t, `{"result":55}`, string(env.Data))

	status, env, _ = s.do(t, http.MethodPost, "/api/factorial", `{"n": 5e0}`)
	require.Equal(t, http.StatusOK, status, env.Detail)
	assert.JSONEq(t, `{"result":120}`, string(env.Data))

	status, env, _ = s.do(t, http.MethodPost, "/api/factorial", `{"n": -2.0}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "n must be non-negative", env.Detail)

	logs := s.logs(t, "")
	require.Len(t, logs, 2)
	assert.Equal(t, `{"n": 5e0}`, logs[0].InputData)
}

func TestFactorial(t *testing.T) {
	s := setupServer(t, nil)

	status, env, _ := s.do(t, http.MethodPost, "/api/factorial", `{"n": 5}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"result":120}`, string(env.Data))

	status, _, raw := s.do(t, http.MethodPost, "/api/factorial", `{"n": 30}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"data":{"result":265252859812191058636308480000000}}`, raw)

	logs := s.logs(t, "factorial")
	require.Len(t, logs, 2)
	assert.Equal(t, "265252859812191058636308480000000", logs[0].Result)
	assert.Equal(t, "120", logs[1].Result)
}

func TestValidationErrors(t *testing.T) {
	s := setupServer(t, nil)

	tests := []struct {
		name   string
		path   string
		body   string
		detail string
	}{
		{name: "negative fibonacci", path: "/api/fibonacci", body: `{"n": -1}`, detail: "n must be non-negative"},
		{name: "negative factorial", path: "/api/factorial", body: `{"n": -3}`, detail: "n must be non-negative"},
		{name: "missing n", path: "/api/factorial", body: `{}`, detail: "n is required"},
		{name: "string n", path: "/api/fibonacci", body: `{"n": "5"}`},
		{name: "fractional n", path: "/api/fibonacci", body: `{"n": 1.5}`},
		{name: "not json", path: "/api/factorial", body: `n=5`},
		{name: "array body", path: "/api/pow", body: `[2, 10]`},
		{name: "missing exponent", path: "/api/pow", body: `{"base": 2}`, detail: "base and exponent are required"},
		{name: "string base", path: "/api/pow", body: `{"base": "two", "exponent": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env, _ := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, env.Detail)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, env.Detail)
			}
		})
	}

	t.Run("empty body", func(t *testing.T) {
		status, env, _ := s.do(t, http.MethodPost, "/api/fibonacci", "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "request body is required", env.Detail)
	})

	s.logger.Wait()
	assert.Empty(t, s.logs(t, ""), "validation errors never create records")
	assert.Empty(t, s.publisher.published())
}

func TestUnreachableStreamStillSucceeds(t *testing.T) {
	s := setupServer(t, &recordingPublisher{err: errors.New("dial tcp 127.0.0.1:6379: connection refused")})

	status, env, _ := s.do(t, http.MethodPost, "/api/factorial", `{"n": 5}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"result":120}`, string(env.Data))

	s.logger.Wait()
	logs := s.logs(t, "factorial")
	require.Len(t, logs, 1)
	assert.Equal(t, "120", logs[0].Result)
}

func TestPersistenceFailure(t *testing.T) {
	s := setupServer(t, nil)
	require.NoError(t, s.db.Close())

	status, env, _ := s.do(t, http.MethodPost, "/api/fibonacci", `{"n": 3}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotEmpty(t, env.Detail)

	s.logger.Wait()
	assert.Empty(t, s.publisher.published())
}

func TestLogs_FilterOrderAndRepeatability(t *testing.T) {
	s := setupServer(t, nil)

	for _, req := range []struct{ path, body string }{
		{"/api/pow", `{"base": 3, "exponent": 2}`},
		{"/api/fibonacci", `{"n": 7}`},
		{"/api/pow", `{"base": 2, "exponent": 3}`},
		{"/api/factorial", `{"n": 4}`},
	} {
		status, _, _ := s.do(t, http.MethodPost, req.path, req.body)
		require.Equal(t, http.StatusOK, status)
	}

	all := s.logs(t, "")
	require.Len(t, all, 4)
	assert.Equal(t, all, s.logs(t, ""))
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Timestamp, all[i].Timestamp)
		assert.Greater(t, all[i-1].ID, all[i].ID)
	}

	pows := s.logs(t, "pow")
	require.Len(t, pows, 2)
	assert.Equal(t, "8.0", pows[0].Result)
	assert.Equal(t, "9.0", pows[1].Result)
	for _, entry := range pows {
		assert.Equal(t, "pow", entry.Operation)
	}
}

func TestExportEndpoints(t *testing.T) {
	s := setupServer(t, nil)

	status, _, _ := s.do(t, http.MethodPost, "/api/fibonacci", `{"n": 10}`)
	require.Equal(t, http.StatusOK, status)

	status, env, _ := s.do(t, http.MethodPost, "/api/logs/export", "")
	require.Equal(t, http.StatusOK, status)

	var info models.SnapshotInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, 1, info.Count)
	require.NotEmpty(t, info.Key)

	status, env, _ = s.do(t, http.MethodGet, "/api/logs/export/"+info.Key, "")
	require.Equal(t, http.StatusOK, status)

	var snapshot models.LogSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	require.Len(t, snapshot.Records, 1)
	assert.Equal(t, "55", snapshot.Records[0].Result)

	status, env, _ = s.do(t, http.MethodGet, "/api/logs/export/"+url.PathEscape(info.Key), "")
	require.Equal(t, http.StatusOK, status, env.Detail)
	var escaped models.LogSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &escaped))
	assert.Equal(t, snapshot, escaped)

	status, env, _ = s.do(t, http.MethodGet, "/api/logs/export/snapshots/2000/01/01/missing.json", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, env.Detail)
}

func TestHealth(t *testing.T) {
	s := setupServer(t, nil)

	status, env, _ := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"UP","database":"UP","stream":"DISABLED"}`, string(env.Data))
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := setupServer(t, nil)

	status, env, _ := s.do(t, http.MethodGet, "/api/sqrt", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Cannot GET /api/sqrt", env.Detail)
}

func TestCORS(t *testing.T) {
	s := setupServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.com")

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
