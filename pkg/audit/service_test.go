package audit

import (
	"context"
	"testing"

	"github.com/promorail/promorail/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog(t *testing.T) {
	svc := NewService(database.OpenTest(t))
	ctx := context.Background()

	t.Run("Success - Rows come back newest first", func(t *testing.T) {
		require.NoError(t, svc.Log(ctx, 1, 5, "tier.create", "commission_tier", 1, "Bronze"))
		require.NoError(t, svc.Log(ctx, 1, 5, "tier.delete", "commission_tier", 1, ""))

		rows, err := svc.List(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "tier.delete", rows[0].Action)
		assert.Equal(t, "tier.create", rows[1].Action)
	})

	t.Run("Success - Tenant isolation", func(t *testing.T) {
		rows, err := svc.List(ctx, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
