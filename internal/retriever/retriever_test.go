package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"policychat/internal/domain"
)

// mockEmbedder implements embedding.Embedder for testing.
type mockEmbedder struct {
	embedCalls int
}

func (m *mockEmbedder) Name() string                  { return "mock" }
func (m *mockEmbedder) Prepare(corpus []string) error { return nil }
func (m *mockEmbedder) Dimension() int                { return 3 }
func (m *mockEmbedder) Embed(text string) ([]float64, error) {
	m.embedCalls++
	return []float64{1, 0, 0}, nil
}

// mockStore implements vectorstore.Storage and records Search calls.
type mockStore struct {
	searchCalls int
	hits        []domain.SearchResult
	searchErr   error
}

func (m *mockStore) Init(dimension int) error { return nil }
func (m *mockStore) Upsert(records []domain.PolicyRecord, vectors [][]float64) error {
	return nil
}
func (m *mockStore) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	m.searchCalls++
	return m.hits, m.searchErr
}
func (m *mockStore) Count() (int, error) { return len(m.hits), nil }
func (m *mockStore) Clear() error        { return nil }
func (m *mockStore) Close() error        { return nil }

func testLookup() map[string]domain.PolicyRecord {
	return map[string]domain.PolicyRecord{
		"POL001": {PolicyID: "POL001", Premium: 400, CoverageAmount: 150000},
		"POL002": {PolicyID: "POL002", Premium: 700, CoverageAmount: 300000},
	}
}

func TestResolve_ExactLookup(t *testing.T) {
	store := &mockStore{}
	r := New(testLookup(), &mockEmbedder{}, store, 3, 0.25, zap.NewNop())

	result, err := r.Resolve(context.Background(), "What is the premium for POL001?")

	require.NoError(t, err)
	assert.True(t, result.Exact)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "POL001", result.Records[0].PolicyID)
	assert.Zero(t, store.searchCalls, "semantic search must not run when an ID token is present")
}

func TestResolve_LowercaseIDToken(t *testing.T) {
	store := &mockStore{}
	r := New(testLookup(), &mockEmbedder{}, store, 3, 0.25, zap.NewNop())

	result, err := r.Resolve(context.Background(), "premium for pol002 please")

	require.NoError(t, err)
	assert.Equal(t, "POL002", result.Records[0].PolicyID)
	assert.Zero(t, store.searchCalls)
}

func TestResolve_UnknownIDNeverFallsBackToSemantic(t *testing.T) {
	emb := &mockEmbedder{}
	store := &mockStore{hits: []domain.SearchResult{{Record: domain.PolicyRecord{PolicyID: "POL001"}, Score: 0.9}}}
	r := New(testLookup(), emb, store, 3, 0.25, zap.NewNop())

	_, err := r.Resolve(context.Background(), "What is the status of POL999?")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.searchCalls, "unknown ID is not-found, never a semantic fallback")
	assert.Zero(t, emb.embedCalls)
}

func TestResolve_SemanticPath(t *testing.T) {
	store := &mockStore{hits: []domain.SearchResult{
		{Record: domain.PolicyRecord{PolicyID: "POL001"}, Score: 0.8},
		{Record: domain.PolicyRecord{PolicyID: "POL002"}, Score: 0.1},
	}}
	r := New(testLookup(), &mockEmbedder{}, store, 3, 0.25, zap.NewNop())

	result, err := r.Resolve(context.Background(), "tell me about health coverage")

	require.NoError(t, err)
	assert.False(t, result.Exact)
	require.Len(t, result.Records, 1, "hits below the threshold are dropped")
	assert.Equal(t, "POL001", result.Records[0].PolicyID)
	assert.Equal(t, 1, store.searchCalls)
}

func TestResolve_AllBelowThreshold(t *testing.T) {
	store := &mockStore{hits: []domain.SearchResult{
		{Record: domain.PolicyRecord{PolicyID: "POL001"}, Score: 0.05},
	}}
	r := New(testLookup(), &mockEmbedder{}, store, 3, 0.25, zap.NewNop())

	_, err := r.Resolve(context.Background(), "something entirely unrelated")

	assert.ErrorIs(t, err, ErrAmbiguousQuery)
}

func TestResolve_SearchErrorWrapped(t *testing.T) {
	store := &mockStore{searchErr: errors.New("store down")}
	r := New(testLookup(), &mockEmbedder{}, store, 3, 0.25, zap.NewNop())

	_, err := r.Resolve(context.Background(), "health coverage")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAmbiguousQuery)
}
