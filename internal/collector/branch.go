package collector

import (
	"context"

	"github.com/commitscope/commitscope/internal/provider/github"
	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/logze/v2"
)

const fallbackBranch = "main"

// BranchDetector resolves which branch to collect from and caches
// repository metadata lookups so each repository is asked only once.
type BranchDetector struct {
	client *github.Client
	cache  *abstract.SafeMap[string, *github.Repository]
	logger logze.Logger
}

// NewBranchDetector creates a detector over the given client.
func NewBranchDetector(client *github.Client) *BranchDetector {
	return &BranchDetector{
		client: client,
		cache:  abstract.NewSafeMap(map[string]*github.Repository{}),
		logger: logze.With("component", "branch-detector"),
	}
}

// Repository returns repository metadata, consulting the cache first.
func (d *BranchDetector) Repository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	key := owner + "/" + repo
	if info := d.cache.Get(key); info != nil {
		return info, nil
	}
	info, err := d.client.GetRepository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	d.cache.Set(key, info)
	return info, nil
}

// Resolve picks the branch to collect from: an explicitly configured
// branch wins, otherwise the repository default branch, otherwise
// "main" when detection fails.
func (d *BranchDetector) Resolve(ctx context.Context, owner, repo, configured string) string {
	if configured != "" {
		return configured
	}
	info, err := d.Repository(ctx, owner, repo)
	if err != nil || info.DefaultBranch == "" {
		d.logger.Warn("could not detect default branch, falling back",
			"repository", owner+"/"+repo, "fallback", fallbackBranch, "error", err)
		return fallbackBranch
	}
	d.logger.Debug("detected default branch",
		"repository", owner+"/"+repo, "branch", info.DefaultBranch)
	return info.DefaultBranch
}
