// Package gitdiff finds catalog definitions touched between two
// revisions, so deploys can be limited to what actually changed.
package gitdiff

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"sqldeck/internal/catalog"
	"sqldeck/pkg/errors"
)

// definitionFiles are the file names that make a path a catalog definition
var definitionFiles = map[string]bool{
	catalog.RoutineFile:  true,
	catalog.ViewFile:     true,
	catalog.MetadataFile: true,
}

// ChangedDefinitions returns the repo-relative paths of definition
// files added or modified between sinceRev and HEAD, sorted. Deleted
// files are skipped; there is nothing to deploy for them.
func ChangedDefinitions(repoPath, sinceRev string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit,
			fmt.Sprintf("Failed to open repository at %s", repoPath))
	}

	sinceTree, err := treeAt(repo, sinceRev)
	if err != nil {
		return nil, err
	}
	headTree, err := treeAt(repo, "HEAD")
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(sinceTree, headTree)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "Failed to diff revisions")
	}

	seen := make(map[string]bool)
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeGit, "Failed to inspect change")
		}
		if action == merkletrie.Delete {
			continue
		}

		path := change.To.Name
		if definitionFiles[filepath.Base(path)] {
			seen[path] = true
		}
	}

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// ChangedDatasets maps changed definition paths to the dataset/name
// pairs they belong to (the parent directories of the definition file).
func ChangedDatasets(paths []string) []string {
	seen := make(map[string]bool)
	for _, path := range paths {
		dir := filepath.Dir(path)
		name := filepath.Base(dir)
		dataset := filepath.Base(filepath.Dir(dir))
		if dataset != "." && name != "." {
			seen[dataset+"."+name] = true
		}
	}

	qualified := make([]string, 0, len(seen))
	for name := range seen {
		qualified = append(qualified, name)
	}
	sort.Strings(qualified)
	return qualified
}

func treeAt(repo *git.Repository, rev string) (*object.Tree, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit,
			fmt.Sprintf("Failed to resolve revision %s", rev)).
			WithSuggestions("Verify the revision exists in the repository")
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit,
			fmt.Sprintf("Failed to read commit %s", hash))
	}

	return commit.Tree()
}
