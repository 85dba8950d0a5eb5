package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `policy_id,customer_name,policy_type,coverage_amount,premium,renewal_date
POL001,Jordan Miles,Auto,150000,400,2026-10-01
POL002,Casey Wren,Health,300000,700,2026-12-15
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	records, err := Load(writeCSV(t, sampleCSV))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "POL001", records[0].PolicyID)
	assert.Equal(t, "Jordan Miles", records[0].CustomerName)
	assert.Equal(t, "Auto", records[0].PolicyType)
	assert.Equal(t, 150000.0, records[0].CoverageAmount)
	assert.Equal(t, 400.0, records[0].Premium)
	assert.Equal(t, "2026-10-01", records[0].RenewalDate.Format("2006-01-02"))
}

func TestLoad_RejectsDuplicateIDs(t *testing.T) {
	csv := `policy_id,customer_name,policy_type,coverage_amount,premium,renewal_date
POL001,A,Auto,1000,100,2026-01-01
POL001,B,Home,2000,200,2026-02-01
`
	_, err := Load(writeCSV(t, csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate policy id")
}

func TestLoad_RejectsMalformedID(t *testing.T) {
	csv := `policy_id,customer_name,policy_type,coverage_amount,premium,renewal_date
XYZ01,A,Auto,1000,100,2026-01-01
`
	_, err := Load(writeCSV(t, csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed policy id")
}

func TestLoad_RejectsWrongHeader(t *testing.T) {
	csv := `id,name,type,coverage,premium,renewal
POL001,A,Auto,1000,100,2026-01-01
`
	_, err := Load(writeCSV(t, csv))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestBuildLookup(t *testing.T) {
	records, err := Load(writeCSV(t, sampleCSV))
	require.NoError(t, err)

	lookup := BuildLookup(records)

	assert.Len(t, lookup, 2)
	assert.Equal(t, 700.0, lookup["POL002"].Premium)
}
