package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KnockOutEZ/copydeck/internal/source"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content, msg string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(filepath.ToSlash(name))
	require.NoError(t, err)

	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestRepository(t *testing.T) {
	dir := t.TempDir()
	raw, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	first := commitFile(t, raw, dir, "docs/readme.txt", "v1\n", "first")
	second := commitFile(t, raw, dir, "docs/readme.txt", "v2\n", "second")

	// Opening from a subdirectory finds the repository root.
	r, err := Open(filepath.Join(dir, "docs"))
	require.NoError(t, err)

	head, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, second, head)

	parent, err := r.Resolve("HEAD~1")
	require.NoError(t, err)
	assert.Equal(t, first, parent)

	content, err := r.FileAt("HEAD", "docs/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2\n", content)

	item, err := r.FileItem(first, "./docs/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "v1\n", item.Content)
	assert.Equal(t, source.OriginGit, item.Origin)

	item, err = r.CommitItem("")
	require.NoError(t, err)
	assert.Equal(t, second, item.Content)
	assert.Equal(t, "HEAD", item.Name)

	_, err = r.FileAt("HEAD", "missing.txt")
	assert.True(t, errors.IsNotFound(errors.Cause(err)))

	_, err = r.Resolve("no-such-branch")
	assert.Error(t, err)
}

func TestOpenNotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.True(t, errors.IsNotFound(errors.Cause(err)))
}
