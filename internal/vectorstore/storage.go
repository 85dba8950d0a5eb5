package vectorstore

import "policychat/internal/domain"

// Storage persists policy vectors and supports similarity search.
// Upsert is keyed by policy ID, so re-indexing an unchanged dataset
// leaves the stored set identical.
type Storage interface {
	Init(dimension int) error
	Upsert(records []domain.PolicyRecord, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.SearchResult, error)
	Count() (int, error)
	Clear() error
	Close() error
}
