package submission

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// LocalRepository describes the remote reference of a local checkout
type LocalRepository struct {
	RemoteURL string
	Branch    string
}

// ResolveLocalRepository reads the origin URL and checked-out branch of the
// git repository containing dir. Branch is empty for a detached HEAD.
func ResolveLocalRepository(dir string) (*LocalRepository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a git repository: %v", ErrInvalidInput, dir, err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return nil, fmt.Errorf("%w: %s has no origin remote", ErrInvalidInput, dir)
		}
		return nil, fmt.Errorf("read origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: origin remote of %s has no URL", ErrInvalidInput, dir)
	}

	local := &LocalRepository{RemoteURL: urls[0]}

	// HEAD is symbolic even before the first commit
	head, err := repo.Reference(plumbing.HEAD, false)
	if err == nil && head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		local.Branch = head.Target().Short()
	}

	return local, nil
}
