package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
categories:
  - name: Fiction
    description: Novels
books:
  - isbn: "9780441172719"
    title: Dune
    author: Frank Herbert
    category: Fiction
    year: 1965
    copies: 3
  - isbn: "9780000000001"
    title: Untitled Draft
    author: Anonymous
`

func TestParse(t *testing.T) {
	file, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	require.Len(t, file.Categories, 1)
	assert.Equal(t, "Fiction", file.Categories[0].Name)

	require.Len(t, file.Books, 2)
	assert.Equal(t, "9780441172719", file.Books[0].ISBN)
	assert.Equal(t, 3, file.Books[0].Copies)
	assert.Equal(t, 1965, file.Books[0].Year)
	assert.Equal(t, 1, file.Books[1].Copies)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("books: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	file, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, file.Books, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
