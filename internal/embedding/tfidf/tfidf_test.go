package tfidf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_RequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed("premium details")
	require.Error(t, err)
}

func TestPrepare_EmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	require.Error(t, e.Prepare(nil))
}

func TestEmbed_VectorsAreNormalized(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"policy_id: POL001 premium: 400 coverage_amount: 150000",
		"policy_id: POL002 premium: 700 coverage_amount: 300000",
	}))

	vec, err := e.Embed("premium 400")
	require.NoError(t, err)
	require.Len(t, vec, e.Dimension())

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbed_SimilarTextScoresHigher(t *testing.T) {
	e := NewEmbedder()
	corpus := []string{
		"policy_type: Health coverage_amount: 300000 premium: 700",
		"policy_type: Auto coverage_amount: 150000 premium: 400",
	}
	require.NoError(t, e.Prepare(corpus))

	q, err := e.Embed("health coverage 300000")
	require.NoError(t, err)
	health, err := e.Embed(corpus[0])
	require.NoError(t, err)
	auto, err := e.Embed(corpus[1])
	require.NoError(t, err)

	assert.Greater(t, dot(q, health), dot(q, auto))
}

func TestEmbed_UnknownTokensProduceZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"premium coverage renewal"}))

	vec, err := e.Embed("zzz qqq")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
