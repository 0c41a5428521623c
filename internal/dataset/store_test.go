package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/basketlens/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "milk,bread\nbread,eggs,butter\nmilk\n"

func TestAddGetOpen(t *testing.T) {
	s, err := dataset.NewStore(filepath.Join(t.TempDir(), "datasets"))
	require.NoError(t, err)

	d, err := s.Add("uploads/store_data.csv", []byte(sampleCSV), " weekly ")
	require.NoError(t, err)
	assert.Equal(t, "store_data.csv", d.Name)
	assert.Equal(t, "weekly", d.Description)
	assert.Equal(t, "data.csv", d.File)
	assert.Equal(t, 3, d.Summary.Rows)
	assert.Equal(t, 3, d.Summary.Columns)
	assert.FileExists(t, d.DataPath())
	assert.FileExists(t, filepath.Join(d.Dir(), "dataset.json"))

	got, err := s.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, d.Summary, got.Summary)

	byPrefix, err := s.Get(d.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, d.ID, byPrefix.ID)

	_, txs, err := s.Open(d.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, []string{"milk", "nan", "nan"}, []string(txs[2]))
}

func TestAddRejectsUnparseable(t *testing.T) {
	root := t.TempDir()
	s, err := dataset.NewStore(root)
	require.NoError(t, err)

	_, err = s.Add("bad.csv", []byte("a,\"b\n"), "")
	require.Error(t, err)
	_, err = s.Add("empty.csv", nil, "")
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetNotFound(t *testing.T) {
	s, err := dataset.NewStore(t.TempDir())
	require.NoError(t, err)
	for _, ref := range []string{"", "missing-id", "../etc", "ab"} {
		_, err := s.Get(ref)
		assert.ErrorIs(t, err, dataset.ErrNotFound, ref)
	}
}

func TestListAndRemove(t *testing.T) {
	s, err := dataset.NewStore(t.TempDir())
	require.NoError(t, err)

	a, err := s.Add("a.csv", []byte(sampleCSV), "")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "b.tsv")
	require.NoError(t, os.WriteFile(path, []byte("x\ty\n"), 0o644))
	b, err := s.AddFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "data.tsv", b.File)
	assert.Equal(t, 2, b.Summary.Columns)

	// stray directory without metadata is ignored
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), "junk"), 0o755))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	removed, err := s.Remove(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.ID)
	assert.NoDirExists(t, a.Dir())

	_, err = s.Get(a.ID)
	assert.ErrorIs(t, err, dataset.ErrNotFound)
	list, err = s.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
