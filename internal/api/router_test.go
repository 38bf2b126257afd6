package api

import (
	"context"
	"encoding/json"
	"mpvrp-verify-service/internal/api/dto"
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/platform/obs"
	"mpvrp-verify-service/internal/ports"
	"mpvrp-verify-service/internal/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testInstance = `# api
1 1 1 2 1
0
1 100 1 1
1 3 4 1000
1 0 0
1 6 8 40
2 3 8 60
`

const testSolution = `1: 1 - 1 [100] - 1 (40) - 2 (60) - 1
1: 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0)

1
0
0.0
21.54
cbc
0.1
`

type memRepo struct {
	mu   sync.Mutex
	recs map[string]ports.VerdictRecord
}

func (m *memRepo) SaveVerdict(_ context.Context, rec ports.VerdictRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.Verdict.ID] = rec
	return nil
}

func (m *memRepo) GetVerdict(_ context.Context, id string) (*ports.VerdictRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, ports.ErrVerdictNotFound
	}
	return &rec, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]domain.Verdict
}

func (m *memCache) Get(_ context.Context, fp string) (*domain.Verdict, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[fp]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (m *memCache) Put(_ context.Context, fp string, v domain.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fp] = v
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *memRepo) {
	t.Helper()
	obs.RegisterDefault()
	repo := &memRepo{recs: map[string]ports.VerdictRecord{}}
	h := NewRouter(Deps{
		Verifier:     services.NewVerifier(zap.NewNop(), services.DefaultTolerance, 2),
		Cache:        &memCache{entries: map[string]domain.Verdict{}},
		Repo:         repo,
		MaxBodyBytes: 1 << 20,
	})
	return h, repo
}

func postVerify(t *testing.T, h http.Handler, body dto.VerifyRequest) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(string(b)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestVerifyStoresAndCachesVerdict(t *testing.T) {
	h, repo := newTestRouter(t)

	rec := postVerify(t, h, dto.VerifyRequest{Instance: testInstance, Solution: testSolution})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var first dto.VerdictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "certified", first.Outcome)
	assert.False(t, first.Cached)
	assert.True(t, first.Verdict.Feasible)
	assert.Equal(t, "ordered", first.Verdict.Format)
	require.NotEmpty(t, first.Verdict.ID)
	assert.Contains(t, repo.recs, first.Verdict.ID)

	rec = postVerify(t, h, dto.VerifyRequest{Instance: testInstance, Solution: testSolution})
	require.Equal(t, http.StatusOK, rec.Code)

	var second dto.VerdictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Verdict, second.Verdict)

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/verdicts/"+first.Verdict.ID, nil))
	require.Equal(t, http.StatusOK, get.Code)

	var stored dto.VerdictResponse
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &stored))
	assert.Equal(t, first.Verdict, stored.Verdict)
}

func TestVerifyStructuralError(t *testing.T) {
	h, repo := newTestRouter(t)

	rec := postVerify(t, h, dto.VerifyRequest{Instance: "1 1 1\n", Solution: testSolution})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var res dto.StructuralErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Field)
	assert.NotEmpty(t, res.Reason)
	assert.Empty(t, repo.recs)
}

func TestVerifyRejectsBadRequests(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{name: "wrong method", method: http.MethodGet, want: http.StatusMethodNotAllowed},
		{name: "not json", method: http.MethodPost, body: "nope", want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, body: `{"instance":"x","solution":"y","extra":1}`, want: http.StatusBadRequest},
		{name: "missing solution", method: http.MethodPost, body: `{"instance":"x"}`, want: http.StatusBadRequest},
		{name: "two objects", method: http.MethodPost, body: `{"instance":"x","solution":"y"}{}`, want: http.StatusBadRequest},
		{name: "too large", method: http.MethodPost, body: `{"instance":"` + strings.Repeat("x", 2<<20) + `","solution":"y"}`, want: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/verify", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestVerdictNotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verdicts/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/verdicts/{id}", routeLabel("/verdicts/123"))
	assert.Equal(t, "/verify", routeLabel("/verify"))
	assert.Equal(t, "other", routeLabel("/nope"))
}
