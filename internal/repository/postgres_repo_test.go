package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a real database: TEST_DATABASE_URL=postgres://... go test ./...
func TestPostgresReservationRepository_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	repo, err := NewPostgresReservationRepository(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	before, err := repo.ListAll(ctx)
	require.NoError(t, err)

	want := newReservation(1)
	want.ID = uuid.NewString()
	want.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.Append(ctx, want))

	after, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)

	got := after[len(after)-1]
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Code, got.Code)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, want.DateTime.Equal(got.DateTime))
	assert.Equal(t, want.People, got.People)
	assert.Equal(t, want.Status, got.Status)
}
