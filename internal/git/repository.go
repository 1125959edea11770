package git

import (
	stderrors "errors"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/juju/errors"

	"github.com/KnockOutEZ/copydeck/internal/source"
)

// DefaultRevision is used when no revision is given.
const DefaultRevision = "HEAD"

// Repository reads commit hashes and file contents out of a local git
// repository.
type Repository struct {
	repo *git.Repository
}

// Open opens the repository containing path, walking up to find .git.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.NewNotFound(err, "git repository at "+path)
		}
		return nil, errors.Annotatef(err, "opening repository at %s", path)
	}

	return &Repository{repo: repo}, nil
}

// Resolve returns the full commit hash rev points at.
func (r *Repository) Resolve(rev string) (string, error) {
	commit, err := r.commit(rev)
	if err != nil {
		return "", errors.Trace(err)
	}
	return commit.Hash.String(), nil
}

// FileAt returns the content of path as of rev. path is relative to the
// repository root.
func (r *Repository) FileAt(rev, path string) (string, error) {
	commit, err := r.commit(rev)
	if err != nil {
		return "", errors.Trace(err)
	}

	name := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
	file, err := commit.File(name)
	if err != nil {
		if stderrors.Is(err, object.ErrFileNotFound) {
			return "", errors.NotFoundf("%s at %s", name, rev)
		}
		return "", errors.Annotatef(err, "looking up %s at %s", name, rev)
	}

	content, err := file.Contents()
	if err != nil {
		return "", errors.Annotatef(err, "reading %s at %s", name, rev)
	}
	return content, nil
}

// CommitItem returns the commit hash of rev as a payload item.
func (r *Repository) CommitItem(rev string) (source.Item, error) {
	hash, err := r.Resolve(rev)
	if err != nil {
		return source.Item{}, errors.Trace(err)
	}
	return source.Item{
		Name:     revOrDefault(rev),
		Content:  hash,
		Origin:   source.OriginGit,
		Encoding: "UTF-8",
	}, nil
}

// FileItem returns path at rev as a payload item.
func (r *Repository) FileItem(rev, path string) (source.Item, error) {
	content, err := r.FileAt(rev, path)
	if err != nil {
		return source.Item{}, errors.Trace(err)
	}
	return source.Item{
		Name:     filepath.ToSlash(path) + "@" + revOrDefault(rev),
		Content:  content,
		Origin:   source.OriginGit,
		Encoding: "UTF-8",
	}, nil
}

func (r *Repository) commit(rev string) (*object.Commit, error) {
	rev = revOrDefault(rev)

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, errors.NotFoundf("revision %q", rev)
		}
		return nil, errors.Annotatef(err, "resolving %q", rev)
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Annotatef(err, "loading commit %s", hash)
	}
	return commit, nil
}

func revOrDefault(rev string) string {
	if rev == "" {
		return DefaultRevision
	}
	return rev
}
