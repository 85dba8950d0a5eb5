package retriever

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"policychat/internal/domain"
	"policychat/internal/embedding"
	"policychat/internal/vectorstore"
)

// ErrNotFound is returned when the query names a policy ID that does not
// exist in the dataset. The semantic path is never tried in that case.
var ErrNotFound = errors.New("policy not found")

// ErrAmbiguousQuery is returned when semantic search yields no candidate
// above the minimum similarity threshold.
var ErrAmbiguousQuery = errors.New("ambiguous query")

var policyIDRe = regexp.MustCompile(`(?i)\bPOL\d+\b`)

// Result is what one resolution produced: either the single exact match,
// or the ranked semantic candidates.
type Result struct {
	Exact      bool
	Records    []domain.PolicyRecord
	Candidates []domain.SearchResult
}

// Retriever resolves a query to policy records. The exact-ID path and the
// semantic path are mutually exclusive per call.
type Retriever struct {
	lookup   map[string]domain.PolicyRecord
	embedder embedding.Embedder
	store    vectorstore.Storage
	topK     int
	minScore float64
	logger   *zap.Logger
}

func New(lookup map[string]domain.PolicyRecord, embedder embedding.Embedder, store vectorstore.Storage, topK int, minScore float64, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		lookup:   lookup,
		embedder: embedder,
		store:    store,
		topK:     topK,
		minScore: minScore,
		logger:   logger,
	}
}

// Resolve maps the query to records. A POL-shaped token in the query
// forces the exact-lookup path: found means that one record, absent means
// ErrNotFound. Only ID-free queries fall through to similarity search.
func (r *Retriever) Resolve(ctx context.Context, query string) (Result, error) {
	if id, ok := extractPolicyID(query); ok {
		rec, found := r.lookup[id]
		if !found {
			r.logger.Debug("policy id not in dataset", zap.String("policy_id", id))
			return Result{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		r.logger.Debug("exact policy lookup", zap.String("policy_id", id))
		return Result{Exact: true, Records: []domain.PolicyRecord{rec}}, nil
	}

	vec, err := r.embedder.Embed(query)
	if err != nil {
		return Result{}, fmt.Errorf("embedding query: %w", err)
	}
	hits, err := r.store.Search(vec, r.topK)
	if err != nil {
		return Result{}, fmt.Errorf("similarity search: %w", err)
	}
	var kept []domain.SearchResult
	for _, h := range hits {
		if h.Score >= r.minScore {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		r.logger.Debug("no candidate above threshold",
			zap.Int("hits", len(hits)),
			zap.Float64("min_score", r.minScore))
		return Result{}, ErrAmbiguousQuery
	}
	records := make([]domain.PolicyRecord, len(kept))
	for i, h := range kept {
		records[i] = h.Record
	}
	return Result{Records: records, Candidates: kept}, nil
}

func extractPolicyID(query string) (string, bool) {
	m := policyIDRe.FindString(query)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}
