package staging

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/config"
	"github.com/wonny/fossbatch/pkg/database"
)

func TestCutoff(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2024, 12, 10, 7, 0, 0, 0, time.Local), "20241110"},
		{time.Date(2024, 3, 31, 7, 0, 0, 0, time.Local), "20240229"},
		{time.Date(2025, 1, 15, 7, 0, 0, 0, time.Local), "20241215"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, contracts.FormatDate(Cutoff(tt.now)))
		})
	}
}

func TestRepository_Integration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := database.New(config.DatabaseConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	filename := "it_test.20991231"
	lines := []contracts.OutboundLine{
		{InDate: "20991231081000", SendFilename: filename, Idx: 1, Text: "a;"},
		{InDate: "20991231081000", SendFilename: filename, Idx: 2, Text: "b;"},
	}

	repo := NewRepository(db.Pool)
	defer db.Pool.Exec(ctx, `DELETE FROM foss.bcp_data WHERE send_filename = $1`, filename)

	n, err := repo.Replace(ctx, filename, lines)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// rerun keeps a single copy
	_, err = repo.Replace(ctx, filename, lines)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM foss.bcp_data WHERE send_filename = $1`, filename).Scan(&count))
	assert.Equal(t, 2, count)
}
