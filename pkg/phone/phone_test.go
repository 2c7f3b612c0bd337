package phone

import (
	"testing"

	"github.com/promorail/promorail/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("Success - US number without prefix", func(t *testing.T) {
		got, err := Normalize("(415) 555-2671")
		require.NoError(t, err)
		assert.Equal(t, "+14155552671", got)
	})

	t.Run("Success - International number", func(t *testing.T) {
		got, err := Normalize("+44 20 7946 0958")
		require.NoError(t, err)
		assert.Equal(t, "+442079460958", got)
	})

	t.Run("Success - Empty passes through", func(t *testing.T) {
		got, err := Normalize("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Failure - Garbage input", func(t *testing.T) {
		_, err := Normalize("not a number")
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}
