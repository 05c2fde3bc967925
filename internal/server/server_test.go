package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/archlab/turbarch/internal/config"
	"github.com/archlab/turbarch/internal/evaluation"
	"github.com/archlab/turbarch/internal/problem"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	p, err := problem.Default(evaluation.NewSurrogate(), time.Second)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Optimization.PopSize = 8
	cfg.Optimization.Generations = 2
	cfg.Optimization.Workers = 2
	return NewServer(cfg, zap.NewNop(), p)
}

func testRouter(t *testing.T) (*Server, chi.Router) {
	t.Helper()
	s := testServer(t)
	r := chi.NewRouter()
	s.RegisterRoutes(r)
	return s, r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(into))
}

func TestHealthz(t *testing.T) {
	_, r := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleSpace(t *testing.T) {
	s, r := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/space", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Catalog   string         `json:"catalog"`
		Variables []variableView `json:"variables"`
	}
	decode(t, w, &body)
	assert.Equal(t, "turbofan", body.Catalog)
	require.Len(t, body.Variables, s.problem.Space().Len())

	first := body.Variables[0]
	assert.Equal(t, "select_intake", first.Name)
	assert.Equal(t, "selection", first.Role)
	assert.Equal(t, "categorical", first.Kind)
	assert.NotEmpty(t, first.Options)
}

func TestHandleEvaluate(t *testing.T) {
	s, r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/evaluate",
		map[string]interface{}{"vector": s.problem.Space().Imputed()})
	require.Equal(t, http.StatusOK, w.Code)

	var body evaluateResponse
	decode(t, w, &body)
	assert.Len(t, body.Imputed, s.problem.Space().Len())
	assert.Len(t, body.Objectives, len(s.problem.Objectives()))
	assert.Len(t, body.Constraints, len(s.problem.Constraints()))
}

func TestHandleEvaluateBadRequests(t *testing.T) {
	_, r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/evaluate", map[string]interface{}{"vector": []float64{1, 2}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewBufferString("not json"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStats(t *testing.T) {
	s, r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/evaluate",
		map[string]interface{}{"vector": s.problem.Space().Imputed()})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats problem.Stats
	decode(t, w, &stats)
	assert.Equal(t, uint64(1), stats.Evaluations)
}

func TestOptimizeLifecycle(t *testing.T) {
	_, r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/optimize",
		map[string]interface{}{"pop_size": 6, "generations": 1, "seed": 4})
	require.Equal(t, http.StatusAccepted, w.Code)

	var started map[string]string
	decode(t, w, &started)
	id := started["id"]
	require.NotEmpty(t, id)

	deadline := time.Now().Add(30 * time.Second)
	for {
		w = doJSON(t, r, http.MethodGet, "/api/v1/optimize/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var state RunState
		decode(t, w, &state)
		if state.Status != "running" {
			require.Equal(t, "completed", state.Status, "error: %s", state.Error)
			require.NotNil(t, state.Result)
			assert.Equal(t, 12, state.Result.Evaluations)
			break
		}
		require.True(t, time.Now().Before(deadline), "run did not finish")
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOptimizeCancel(t *testing.T) {
	_, r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/optimize",
		map[string]interface{}{"pop_size": 6, "generations": 100000, "seed": 4})
	require.Equal(t, http.StatusAccepted, w.Code)
	var started map[string]string
	decode(t, w, &started)
	id := started["id"]

	w = doJSON(t, r, http.MethodDelete, "/api/v1/optimize/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	deadline := time.Now().Add(30 * time.Second)
	for {
		w = doJSON(t, r, http.MethodGet, "/api/v1/optimize/"+id, nil)
		var state RunState
		decode(t, w, &state)
		if state.Status != "running" {
			assert.Equal(t, "cancelled", state.Status)
			break
		}
		require.True(t, time.Now().Before(deadline), "run did not stop")
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOptimizeStatusDuringRun(t *testing.T) {
	_, r := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/optimize",
		map[string]interface{}{"pop_size": 6, "generations": 200, "seed": 11})
	require.Equal(t, http.StatusAccepted, w.Code)
	var started map[string]string
	decode(t, w, &started)
	id := started["id"]
	require.NotEmpty(t, id)

	// Poll from several goroutines while the run goroutine updates the
	// shared state on completion.
	var wg sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/optimize/"+id, nil)
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)
				assert.Equal(t, http.StatusOK, w.Code)
				var state RunState
				assert.NoError(t, json.NewDecoder(w.Body).Decode(&state))
				assert.Contains(t, []string{"running", "completed"}, state.Status)
			}
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(30 * time.Second)
	for {
		w = doJSON(t, r, http.MethodGet, "/api/v1/optimize/"+id, nil)
		var state RunState
		decode(t, w, &state)
		if state.Status != "running" {
			assert.Equal(t, "completed", state.Status)
			break
		}
		require.True(t, time.Now().Before(deadline), "run did not finish")
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOptimizeUnknownRun(t *testing.T) {
	_, r := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/optimize/no-such-run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/optimize/no-such-run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoadCatalog(t *testing.T) {
	cfg := &config.Config{}
	cat, err := LoadCatalog(cfg)
	require.NoError(t, err)
	assert.Equal(t, "turbofan", cat.Name)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `
name: custom
functions:
  - id: f
    required: true
    candidates: [c]
components:
  - id: c
    fulfills: f
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	cfg.Catalog.Path = path
	cat, err = LoadCatalog(cfg)
	require.NoError(t, err)
	assert.Equal(t, "custom", cat.Name)

	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = LoadCatalog(cfg)
	require.Error(t, err)
}
