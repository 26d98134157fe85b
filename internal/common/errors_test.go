package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_WithDetailsDoesNotMutateShared(t *testing.T) {
	withDetails := ErrNotFound.WithDetails("Listing not found.")

	assert.Equal(t, "Listing not found.", withDetails.Details)
	assert.Nil(t, ErrNotFound.Details)
}

func TestAPIError_IsMatchesOnCode(t *testing.T) {
	wrapped := fmt.Errorf("loading listing: %w", ErrForbidden.WithDetails("not yours"))

	assert.True(t, errors.Is(wrapped, ErrForbidden))
	assert.False(t, errors.Is(wrapped, ErrNotFound))

	apiErr, ok := IsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 403, apiErr.StatusCode)
}

func TestStringList_ValueScanRoundTrip(t *testing.T) {
	in := StringList{"https://cdn/a.jpg", "https://cdn/b.jpg"}
	v, err := in.Value()
	require.NoError(t, err)

	var out StringList
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	var empty StringList
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(21, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	empty := NewPagination(0, 1, 10)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}
