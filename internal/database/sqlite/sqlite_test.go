package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dim = 4

func descriptor(label string, seed float32, enrollmentID string) database.StoredDescriptor {
	return database.StoredDescriptor{
		Label:        label,
		Embedding:    []float32{seed, seed + 0.1, seed + 0.2, seed + 0.3},
		Model:        "dlib",
		Dim:          dim,
		EnrollmentID: enrollmentID,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func openTemp(t *testing.T) *DescriptorRepository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "faces.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestDescriptorRepository_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	inserted, err := repo.AppendDescriptors(ctx, []database.StoredDescriptor{
		descriptor("alice", 0, "e1"),
		descriptor("alice", 1, "e1"),
	})
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Less(t, inserted[0].ID, inserted[1].ID)

	_, err = repo.AppendDescriptors(ctx, []database.StoredDescriptor{descriptor("bob", 5, "e2")})
	require.NoError(t, err)

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"alice", "alice", "bob"}, []string{all[0].Label, all[1].Label, all[2].Label})
	assert.Equal(t, descriptor("alice", 1, "e1").Embedding, all[1].Embedding)
	assert.Equal(t, "e1", all[0].EnrollmentID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	counts, err := repo.CountByLabel(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, counts)
}

func TestDescriptorRepository_FailedBatchRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	bad := descriptor("carol", 2, "e3")
	bad.Dim = 3
	_, err := repo.AppendDescriptors(ctx, []database.StoredDescriptor{descriptor("carol", 1, "e3"), bad})
	require.Error(t, err)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDescriptorRepository_DeleteLabel(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	_, err := repo.AppendDescriptors(ctx, []database.StoredDescriptor{descriptor("alice", 0, "e1"), descriptor("Alice", 1, "e2")})
	require.NoError(t, err)

	removed, err := repo.DeleteLabel(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "labels are case-sensitive")

	removed, err = repo.DeleteLabel(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestOpenBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")
	cfg := &config.DatabaseConfig{Driver: database.DriverSQLite, URL: path}

	w, err := database.OpenBackend(ctx, cfg)
	require.NoError(t, err)

	store := database.NewStore(dim, database.WithBackend(w))
	_, err = store.Append(ctx, "alice", []facematch.Vector{{0.1, 0.2, 0.3, 0.4}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	w, err = database.OpenBackend(ctx, cfg)
	require.NoError(t, err)
	reopened := database.NewStore(dim, database.WithBackend(w))
	defer reopened.Close()
	require.NoError(t, reopened.Load(ctx))

	assert.Equal(t, []database.LabelStats{{Label: "alice", Descriptors: 1}}, reopened.Labels())
	assert.Contains(t, database.RegisteredBackends(), database.DriverSQLite)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
