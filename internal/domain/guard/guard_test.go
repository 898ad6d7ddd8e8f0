package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeroom/internal/core/apperror"
)

func TestCheckASNAgainstPO_Boundary(t *testing.T) {
	// Ordered 100, one ASN already delivering 60.

	t.Run("delivering exactly the remainder succeeds", func(t *testing.T) {
		assert.NoError(t, CheckASNAgainstPO(100, 60, 40))
	})

	t.Run("delivering one over the remainder fails", func(t *testing.T) {
		err := CheckASNAgainstPO(100, 60, 41)
		require.Error(t, err)
		assert.True(t, apperror.IsQuantityBoundExceeded(err))

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, int64(40), appErr.Details["bound"])
		assert.Equal(t, int64(41), appErr.Details["requested"])
		assert.Equal(t, RelationPOToASN, appErr.Details["relation"])
	})

	t.Run("no prior deliveries allows full order", func(t *testing.T) {
		assert.NoError(t, CheckASNAgainstPO(100, 0, 100))
	})
}

func TestCheckReturnAgainstExport(t *testing.T) {
	// Exported 20, already returned 5.

	t.Run("within bound", func(t *testing.T) {
		assert.NoError(t, CheckReturnAgainstExport(20, 5, 15))
	})

	t.Run("cumulative over bound fails", func(t *testing.T) {
		err := CheckReturnAgainstExport(20, 5, 16)
		require.Error(t, err)
		assert.True(t, apperror.IsQuantityBoundExceeded(err))
	})

	t.Run("zero requested always passes", func(t *testing.T) {
		assert.NoError(t, CheckReturnAgainstExport(20, 20, 0))
	})
}
