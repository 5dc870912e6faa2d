package repository

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/usage/domain"
	"github.com/smallbiznis/courtside/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIncrementIsASingleUpsert(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.DailyUsage{}))

	var statements []string
	reads := 0
	require.NoError(t, conn.Callback().Create().After("gorm:create").Register("test:capture_create", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}))
	require.NoError(t, conn.Callback().Query().After("gorm:query").Register("test:count_query", func(*gorm.DB) {
		reads++
	}))

	repo := New(conn)
	ctx := context.Background()
	userID := snowflake.ID(5)

	require.NoError(t, repo.Increment(ctx, userID, "2025-03-01", domain.Delta{QAQueries: 1}))
	require.NoError(t, repo.Increment(ctx, userID, "2025-03-01", domain.Delta{QAQueries: 2, APIRequests: 1}))

	require.Len(t, statements, 2)
	assert.Zero(t, reads)
	for _, sql := range statements {
		assert.Contains(t, sql, "ON CONFLICT")
		assert.Contains(t, sql, "usage_daily.qa_queries + ?")
		assert.Contains(t, sql, "usage_daily.api_requests + ?")
	}

	row, err := repo.Get(ctx, userID, "2025-03-01")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, int64(3), row.QAQueries)
	assert.Equal(t, int64(1), row.APIRequests)
	assert.Equal(t, 1, reads)
}

func TestGetMissingRowIsNil(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.DailyUsage{}))

	row, err := New(conn).Get(context.Background(), snowflake.ID(1), "2025-03-01")
	require.NoError(t, err)
	assert.Nil(t, row)
}
