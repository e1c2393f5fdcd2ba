package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"study-planner/internal/models"
	"study-planner/shared/monitoring"
	"study-planner/shared/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPlanner struct {
	err error
}

func (s stubPlanner) BuildPlan(ctx context.Context, topic string, totalMinutes float64) (*models.Plan, error) {
	if s.err != nil {
		return nil, s.err
	}
	title, url := "Goroutines in 10 minutes", "https://www.youtube.com/watch?v=abc"
	return &models.Plan{
		ID:           "plan-1",
		Topic:        topic,
		TotalMinutes: totalMinutes,
		CreatedAt:    time.Now(),
		Entries: []models.PlanEntry{
			{Subtopic: "goroutines", Importance: models.ImportanceHigh, TimeAllocated: 18, VideoTitle: &title, VideoURL: &url},
			{Subtopic: "select", Importance: models.ImportanceLow, TimeAllocated: 6, Error: models.ErrNoMatchFound.Error()},
		},
	}, nil
}

type stubSelector struct {
	selection models.VideoSelection
	err       error
	gotQuery  string
	gotMax    float64
}

func (s *stubSelector) SelectVideo(ctx context.Context, query string, maxDuration float64) (models.VideoSelection, error) {
	s.gotQuery, s.gotMax = query, maxDuration
	return s.selection, s.err
}

type stubDecomposer struct {
	subtopics []models.Subtopic
	err       error
}

func (s stubDecomposer) Decompose(ctx context.Context, topic string) ([]models.Subtopic, error) {
	return s.subtopics, s.err
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	return &Server{
		Planner:    stubPlanner{},
		Selector:   &stubSelector{},
		Decomposer: stubDecomposer{},
		Store:      store,
	}
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestChat_ReturnsEntriesAndStoresPlan(t *testing.T) {
	s := newTestServer(t)
	r := NewRouter(s)

	w := do(t, r, http.MethodPost, "/api/chat", gin.H{"input": "go concurrency", "totalMinutes": 30})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "plan-1", w.Header().Get("X-Plan-ID"))

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "goroutines", entries[0]["subtopic"])
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", entries[0]["videoUrl"])
	assert.Nil(t, entries[1]["videoTitle"])
	assert.Nil(t, entries[1]["videoUrl"])
	assert.Equal(t, models.ErrNoMatchFound.Error(), entries[1]["error"])

	stored, err := s.Store.Get(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "go concurrency", stored.Topic)
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("%w: totalMinutes must not be negative", models.ErrInvalidInput), http.StatusBadRequest},
		{"decomposition", fmt.Errorf("%w: upstream timeout", models.ErrDecompositionFailure), http.StatusBadGateway},
		{"other", fmt.Errorf("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.Planner = stubPlanner{err: tt.err}
			w := do(t, NewRouter(s), http.MethodPost, "/api/chat", gin.H{"input": "x", "totalMinutes": 10})
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.err.Error(), errorBody(t, w))
		})
	}
}

func TestChat_RequiresFields(t *testing.T) {
	r := NewRouter(newTestServer(t))

	w := do(t, r, http.MethodPost, "/api/chat", gin.H{"input": "go"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	sel := &stubSelector{selection: models.VideoSelection{
		Found: true, VideoTitle: "Joins", VideoURL: "https://www.youtube.com/watch?v=j",
	}}
	s.Selector = sel
	r := NewRouter(s)

	w := do(t, r, http.MethodPost, "/api/youtube/search", gin.H{"query": "sql joins explained in 10 minutes", "maxDuration": 20})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"videoTitle":"Joins","videoUrl":"https://www.youtube.com/watch?v=j"}`, w.Body.String())
	assert.Equal(t, "sql joins explained in 10 minutes", sel.gotQuery)
	assert.Equal(t, 20.0, sel.gotMax)
}

func TestSearch_NotFoundAndErrors(t *testing.T) {
	s := newTestServer(t)
	s.Selector = &stubSelector{selection: models.VideoSelection{Attempts: 5}}
	w := do(t, NewRouter(s), http.MethodPost, "/api/youtube/search", gin.H{"query": "q", "maxDuration": 10})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrNoMatchFound.Error(), errorBody(t, w))

	s.Selector = &stubSelector{err: fmt.Errorf("%w: quota exceeded", models.ErrProviderFailure)}
	w = do(t, NewRouter(s), http.MethodPost, "/api/youtube/search", gin.H{"query": "q", "maxDuration": 10})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = do(t, NewRouter(s), http.MethodPost, "/api/youtube/search", gin.H{"query": "q"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubtopics(t *testing.T) {
	s := newTestServer(t)
	s.Decomposer = stubDecomposer{subtopics: []models.Subtopic{
		{Name: "Channels", Importance: models.ImportanceHigh},
	}}
	w := do(t, NewRouter(s), http.MethodPost, "/api/gemini/subtopics", gin.H{"topic": "go"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"subtopic":"Channels","importance":"high"}]`, w.Body.String())

	s.Decomposer = stubDecomposer{err: fmt.Errorf("%w: empty response", models.ErrDecompositionFailure)}
	w = do(t, NewRouter(s), http.MethodPost, "/api/gemini/subtopics", gin.H{"topic": "go"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPlanHistory(t *testing.T) {
	s := newTestServer(t)
	r := NewRouter(s)

	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/chat", gin.H{"input": "go", "totalMinutes": 30}).Code)

	w := do(t, r, http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plans []models.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, "plan-1", plans[0].ID)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/plans/plan-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/plans?limit=zero", nil).Code)
	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/api/plans/plan-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/plans/plan-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/api/plans/plan-1", nil).Code)
}

func TestPlanHistory_Disabled(t *testing.T) {
	s := newTestServer(t)
	s.Store = nil
	w := do(t, NewRouter(s), http.MethodGet, "/api/plans", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t)
	monitor := monitoring.NewMonitor()
	s.Health = monitoring.NewHealthServer(monitor, "0")
	r := NewRouter(s)

	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OK - No runs yet")

	monitor.RecordCriticalFailure(fmt.Errorf("boom"), time.Second)
	w = do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, r, http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Last run failed")
}
