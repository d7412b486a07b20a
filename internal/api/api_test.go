package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NyankoNyan/buildgen/pkg/cache"
	"github.com/NyankoNyan/buildgen/pkg/observability"
	"github.com/NyankoNyan/buildgen/pkg/pipeline"
	"github.com/NyankoNyan/buildgen/pkg/plan"
)

const gateDoc = `
version: "0.3"
parameters:
  floors: 2
blockGroups:
  - id: stone
    blocks:
      - {id: slab, pointType: Inside}
      - {id: wall, pointType: Boundary}
      - {id: pillar, pointType: Corner}
buildings:
  - id: gate
    name: Gate
    sections:
      - id: left
        blockGroupId: stone
        generationSettingsGrid: {size: [2, 1, $floors]}
      - id: right
        blockGroupId: stone
        position: [2, 0, 0]
        generationSettingsGrid: {size: [2, 1, $floors]}
  - id: broken
    sections:
      - id: room
        blockGroupId: stone
        generationSettingsGrid: {size: [$missing, 1, 1]}
`

const hutJSON = `{
  "blockGroups": [{"id": "wood", "blocks": [
    {"id": "log", "pointType": "Corner"},
    {"id": "plank", "pointType": "Boundary"},
    {"id": "beam", "pointType": "Inside"}
  ]}],
  "buildings": [{"id": "hut", "sections": [
    {"id": "room", "blockGroupId": "wood", "generationSettingsGrid": {"size": [2, 2, 1]}}
  ]}]
}`

type testServer struct {
	*Server
	store *plan.FileStore
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	store, err := plan.NewFileStore(t.TempDir())
	require.NoError(t, err)
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	runner := pipeline.NewRunner(fc, nil, nil)
	return &testServer{Server: NewServer(runner, store, opts...), store: store}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) create(t *testing.T, target, body string) *plan.Plan {
	t.Helper()
	rec := s.do(t, http.MethodPost, target, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p, err := plan.UnmarshalJSON(rec.Body.Bytes())
	require.NoError(t, err)
	return p
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
}

func TestCreateAndGetPlan(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/plans?building=gate&seed=7", gateDoc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created, err := plan.UnmarshalJSON(rec.Body.Bytes())
	require.NoError(t, err)

	assert.Equal(t, "/v1/plans/"+created.ID, rec.Header().Get("Location"))
	assert.Equal(t, "gate", created.BuildingID)
	assert.Equal(t, "Gate", created.BuildingName)
	assert.Equal(t, uint64(7), created.Seed)
	assert.Len(t, created.Sections, 2)
	assert.Equal(t, 8, created.BlockCount())
	assert.Len(t, created.CrossLinks, 4)

	rec = s.do(t, http.MethodGet, "/v1/plans/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := plan.UnmarshalJSON(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.CrossLinks, got.CrossLinks)

	rec = s.do(t, http.MethodGet, "/v1/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{created.ID}, list.Plans)
}

func TestCreatePlanDefaultsToFirstBuilding(t *testing.T) {
	s := newTestServer(t)
	p := s.create(t, "/v1/plans", gateDoc)

	assert.Equal(t, "gate", p.BuildingID)
	assert.Equal(t, pipeline.DefaultSeed, p.Seed)
}

func TestCreatePlanJSONConfig(t *testing.T) {
	s := newTestServer(t)
	p := s.create(t, "/v1/plans?format=json", hutJSON)

	assert.Equal(t, "hut", p.BuildingID)
	assert.Equal(t, 4, p.BlockCount())
	assert.Empty(t, p.CrossLinks)
}

func TestListPlansEmpty(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/v1/plans", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"plans": []}`, rec.Body.String())
}

func TestCreatePlanErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"bad seed", "/v1/plans?seed=-1", gateDoc, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad format", "/v1/plans?format=ini", gateDoc, http.StatusBadRequest, "INVALID_FORMAT"},
		{"empty body", "/v1/plans", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed yaml", "/v1/plans", "buildings: [", http.StatusBadRequest, "INVALID_CONFIG"},
		{"unknown building", "/v1/plans?building=castle", gateDoc, http.StatusNotFound, "NOT_FOUND"},
		{"unknown parameter", "/v1/plans?building=broken", gateDoc, http.StatusUnprocessableEntity, "UNKNOWN_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, http.MethodPost, tt.target, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestCreatePlanBodyLimit(t *testing.T) {
	s := newTestServer(t, WithMaxBodyBytes(16))
	rec := s.do(t, http.MethodPost, "/v1/plans", gateDoc)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
}

func TestGetPlanErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/plans/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)

	rec = s.do(t, http.MethodGet, "/v1/plans/00000000-0000-4000-8000-000000000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestGraph(t *testing.T) {
	s := newTestServer(t)
	p := s.create(t, "/v1/plans?building=gate", gateDoc)
	target := "/v1/plans/" + p.ID + "/graph.svg"

	rec := s.do(t, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	// Rendered graphs are served from the cache even without the plan.
	require.NoError(t, s.store.Delete(context.Background(), p.ID))
	rec = s.do(t, http.MethodGet, target, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, target+"?blocks=true", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePlan(t *testing.T) {
	s := newTestServer(t)
	p := s.create(t, "/v1/plans?building=gate", gateDoc)
	target := "/v1/plans/" + p.ID

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, target+"/graph.svg", "").Code)

	rec := s.do(t, http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, target, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, target+"/graph.svg", "").Code)

	rec = s.do(t, http.MethodDelete, "/v1/plans/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type recordingHooks struct {
	mu        sync.Mutex
	requests  []string
	responses []int
}

func (h *recordingHooks) OnRequest(_ context.Context, method, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, status)
}

func TestObserveHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := newTestServer(t)
	s.do(t, http.MethodGet, "/healthz", "")
	s.do(t, http.MethodGet, "/v1/plans/bad", "")
	s.do(t, http.MethodGet, "/missing", "")

	assert.Equal(t, []string{"GET /healthz", "GET /v1/plans/bad", "GET /missing"}, hooks.requests)
	assert.Equal(t, []int{http.StatusOK, http.StatusBadRequest, http.StatusNotFound}, hooks.responses)
}

func TestListenAndServeShutdown(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
