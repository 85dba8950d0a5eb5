package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"policychat/internal/domain"
)

// Storage is a persisted on-disk vector store backed by SQLite.
// Rows are keyed by policy ID (INSERT OR REPLACE), so indexing an
// unchanged dataset twice leaves the stored set identical.
type Storage struct {
	mu  sync.RWMutex
	db  *sql.DB
	dir string
}

// Exists reports whether a persisted store is already present under dir.
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "vectors.db"))
	return err == nil && info.Size() > 0
}

// NewStorage opens (or creates) the store under the given data directory.
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		dir = "./policy_index"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, "vectors.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Storage{db: db, dir: dir}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS policies (
		policy_id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL,
		policy_type TEXT NOT NULL,
		coverage_amount REAL NOT NULL,
		premium REAL NOT NULL,
		renewal_date TEXT NOT NULL,
		embedding BLOB NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	return nil
}

func (s *Storage) Upsert(records []domain.PolicyRecord, vectors [][]float64) error {
	if len(records) != len(vectors) {
		return errors.New("records and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO policies (policy_id, customer_name, policy_type, coverage_amount, premium, renewal_date, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		embeddingJSON, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		_, err = stmt.Exec(
			rec.PolicyID,
			rec.CustomerName,
			rec.PolicyType,
			rec.CoverageAmount,
			rec.Premium,
			rec.RenewalDate.Format("2006-01-02"),
			embeddingJSON,
		)
		if err != nil {
			return fmt.Errorf("inserting policy %s: %w", rec.PolicyID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 3
	}

	// Brute-force scan; the dataset is small enough that ANN indexing is not worth it.
	rows, err := s.db.Query(`
		SELECT policy_id, customer_name, policy_type, coverage_amount, premium, renewal_date, embedding
		FROM policies
	`)
	if err != nil {
		return nil, fmt.Errorf("querying policies: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var rec domain.PolicyRecord
		var renewal string
		var embeddingJSON []byte
		if err := rows.Scan(&rec.PolicyID, &rec.CustomerName, &rec.PolicyType, &rec.CoverageAmount, &rec.Premium, &renewal, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.RenewalDate, err = time.Parse("2006-01-02", renewal)
		if err != nil {
			continue
		}
		var emb []float64
		if err := json.Unmarshal(embeddingJSON, &emb); err != nil {
			continue
		}
		results = append(results, domain.SearchResult{Record: rec, Score: dot(emb, vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Storage) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM policies").Scan(&count)
	return count, err
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM policies")
	return err
}

func (s *Storage) Close() error { return s.db.Close() }

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
