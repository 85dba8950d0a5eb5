package qdrant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointID_IsAStableUUID(t *testing.T) {
	id := pointID("POL001")

	_, err := uuid.Parse(id)
	require.NoError(t, err, "point IDs must be UUIDs for the points API")

	assert.Equal(t, id, pointID("POL001"), "same policy maps to the same point")
	assert.NotEqual(t, id, pointID("POL002"))
}
