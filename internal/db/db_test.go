package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNotFound(t *testing.T) {
	assert.NoError(t, WrapNotFound(nil))

	assert.ErrorIs(t, WrapNotFound(pgx.ErrNoRows), ErrNotFound)

	// Wrapped no-rows errors still map through errors.Is, not string matching.
	wrappedNoRows := fmt.Errorf("scan schedule: %w", pgx.ErrNoRows)
	assert.ErrorIs(t, WrapNotFound(wrappedNoRows), ErrNotFound)

	boom := errors.New("connection reset")
	got := WrapNotFound(boom)
	require.Error(t, got)
	assert.ErrorIs(t, got, boom)
	assert.False(t, IsNotFound(got))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("db: %w", ErrNotFound)))
	assert.False(t, IsNotFound(nil))
	// A look-alike message is not enough without the sentinel in the chain.
	assert.False(t, IsNotFound(errors.New("no rows in result set")))
}
