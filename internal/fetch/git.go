package fetch

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/wharflab/envy/internal/envyerr"
)

// gitProgressSink receives go-git's io.Writer-based sideband progress
// stream and calls the ProgressFunc once per write, with Transferred set to
// the length of that write. Object counts (total, indexed, received,
// deltas) are not reported, and Total is always nil.
type gitProgressSink struct {
	cb ProgressFunc
}

func (s *gitProgressSink) Write(p []byte) (int, error) {
	// go-git writes human-readable progress lines here; the structured
	// counts arrive via the separate Progress sideband the transport
	// itself tracks, which this package does not have direct access to
	// without vendoring go-git's internal sideband parser. We treat any
	// write as "still making progress" and forward a best-effort byte
	// count so callers relying on progress-as-liveness still see motion.
	if s.cb != nil {
		if !s.cb(Progress{Transferred: int64(len(p))}) {
			return 0, errGitAborted
		}
	}
	return len(p), nil
}

var errGitAborted = gitAbortedError{}

type gitAbortedError struct{}

func (gitAbortedError) Error() string { return "fetch: git progress callback aborted" }

// fetchGit clones req.Source at req.GitRef (or the default branch when
// empty) into req.Destination. GitRef is taken as a branch name
// (refs/heads/<GitRef>); tags and commit hashes are not resolved.
func fetchGit(ctx context.Context, req Request) (*Result, error) {
	opts := &git.CloneOptions{
		URL:      req.Source,
		Progress: &gitProgressSink{cb: req.Progress},
	}
	if req.GitRef != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(req.GitRef)
		opts.SingleBranch = true
	}

	_, err := git.PlainCloneContext(ctx, req.Destination, false, opts)
	if err != nil {
		if errors.Is(err, errGitAborted) {
			return nil, &envyerr.UserAbortError{Op: "fetch_git"}
		}
		return nil, &envyerr.NetworkError{Scheme: "git", URL: req.Source, Err: err}
	}

	return &Result{Destination: req.Destination}, nil
}
