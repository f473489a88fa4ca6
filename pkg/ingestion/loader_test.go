package ingestion

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Vector DBs\nThey store embeddings."), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.md", doc.Source)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 0, doc.Pages[0].Number)
	assert.Contains(t, doc.Pages[0].Text, "store embeddings")
}

func TestLoadFile_Unsupported(t *testing.T) {
	_, err := LoadFile("image.png")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadDir_SkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.bin"), []byte{0, 1}, 0o644))

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.txt", docs[0].Source)
	assert.Equal(t, "b.txt", docs[1].Source)
}

func TestSplitFormFeeds(t *testing.T) {
	pages := splitFormFeeds("one\f\ftwo\f")
	assert.Equal(t, []Page{{Number: 1, Text: "one"}, {Number: 3, Text: "two"}}, pages)
}
