package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"policychat/internal/domain"
)

var policyIDRe = regexp.MustCompile(`^POL\d+$`)

// expected CSV header, in order
var header = []string{"policy_id", "customer_name", "policy_type", "coverage_amount", "premium", "renewal_date"}

// Load reads the policy CSV at path into immutable PolicyRecords.
// The file must carry the canonical header row; policy IDs must be
// unique and POL-shaped.
func Load(path string) ([]domain.PolicyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	records := make([]domain.PolicyRecord, 0, len(rows)-1)
	seen := make(map[string]struct{}, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if _, dup := seen[rec.PolicyID]; dup {
			return nil, fmt.Errorf("row %d: duplicate policy id %s", i+2, rec.PolicyID)
		}
		seen[rec.PolicyID] = struct{}{}
		records = append(records, rec)
	}
	return records, nil
}

// BuildLookup indexes records by policy ID for the exact-match path.
func BuildLookup(records []domain.PolicyRecord) map[string]domain.PolicyRecord {
	m := make(map[string]domain.PolicyRecord, len(records))
	for _, r := range records {
		m[r.PolicyID] = r
	}
	return m
}

func checkHeader(row []string) error {
	if len(row) != len(header) {
		return fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}
	for i, col := range header {
		if row[i] != col {
			return fmt.Errorf("expected column %q at position %d, got %q", col, i, row[i])
		}
	}
	return nil
}

func parseRow(row []string) (domain.PolicyRecord, error) {
	var rec domain.PolicyRecord
	if len(row) != len(header) {
		return rec, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}
	if !policyIDRe.MatchString(row[0]) {
		return rec, fmt.Errorf("malformed policy id %q", row[0])
	}
	coverage, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return rec, fmt.Errorf("coverage_amount: %w", err)
	}
	premium, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return rec, fmt.Errorf("premium: %w", err)
	}
	renewal, err := time.Parse("2006-01-02", row[5])
	if err != nil {
		return rec, fmt.Errorf("renewal_date: %w", err)
	}
	rec = domain.PolicyRecord{
		PolicyID:       row[0],
		CustomerName:   row[1],
		PolicyType:     row[2],
		CoverageAmount: coverage,
		Premium:        premium,
		RenewalDate:    renewal,
	}
	return rec, nil
}
