package jsonfile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/infra/adapter/persistence/jsonfile"
	"board-watcher/internal/repository"
)

func TestEntryRepo_SaveThenLoad(t *testing.T) {
	repo := jsonfile.NewEntryRepo()
	path := filepath.Join(t.TempDir(), "state", "dc.json")
	ctx := context.Background()

	want := []entity.Entry{
		{ObservedAt: 200, Title: "두 번째", Link: "https://example.com/2", SourceTag: entity.TagDC, IsNew: true},
		{ObservedAt: 100, Title: "first", DisplayDate: "12:01", Link: "https://example.com/1", SourceTag: entity.TagDC},
	}

	require.NoError(t, repo.Save(ctx, path, want))

	got, err := repo.Load(ctx, path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary files should be cleaned up")
}

func TestEntryRepo_Load_Missing(t *testing.T) {
	repo := jsonfile.NewEntryRepo()

	_, err := repo.Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.Is(err, repository.ErrStateNotFound))
}

func TestEntryRepo_Load_Corrupt(t *testing.T) {
	repo := jsonfile.NewEntryRepo()
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := repo.Load(context.Background(), path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrStateNotFound))
}

func TestEntryRepo_Load_EmptyAndNull(t *testing.T) {
	repo := jsonfile.NewEntryRepo()
	dir := t.TempDir()

	for name, content := range map[string]string{"empty": "  \n", "null": "null"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			got, err := repo.Load(context.Background(), path)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

// Files written by the earlier implementation carry the board label in "more"
// and extra keys; they must still decode.
func TestEntryRepo_Load_LegacyLayout(t *testing.T) {
	repo := jsonfile.NewEntryRepo()
	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `[{"timestamp":1700000000,"title":"제목","datetime":"11.14","link":"https://gall.dcinside.com/1","images":"","more":"디시","new":false,"extra":1},
{"link":"https://gall.dcinside.com/2"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	got, err := repo.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1700000000), got[0].ObservedAt)
	assert.Equal(t, "제목", got[0].Title)
	assert.Equal(t, int64(0), got[1].ObservedAt)
	assert.False(t, got[1].IsNew)
}

func TestEntryRepo_Save_Canceled(t *testing.T) {
	repo := jsonfile.NewEntryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, filepath.Join(t.TempDir(), "x.json"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEntryRepo_Save_NilWritesEmptyArray(t *testing.T) {
	repo := &jsonfile.EntryRepo{Indent: "  "}
	path := filepath.Join(t.TempDir(), "x.json")

	require.NoError(t, repo.Save(context.Background(), path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
