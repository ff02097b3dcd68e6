package uuidgen

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_GetID(t *testing.T) {
	g := New("res-")

	first, err := g.GetID(context.Background())
	require.NoError(t, err)

	second, err := g.GetID(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "res-"))

	_, err = uuid.Parse(strings.TrimPrefix(first, "res-"))
	assert.NoError(t, err)
}
