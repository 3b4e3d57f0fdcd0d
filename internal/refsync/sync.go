// Package refsync implements the Reference Sync component: it pulls a pinned
// branch of the game-data git repository, parses its region and tech JSON
// files, rewrites the reference tables, and reconciles video rows whose
// coordinates no longer resolve.
package refsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/jackc/pgx/v5/pgxpool"

	"maprandovideos.io/videos/internal/catalog"
)

// Syncer owns the local working copy of the reference git repository and
// serializes every /update call behind a single mutex, per spec: sync is
// rare and slow, so one process-wide lock is sufficient (promote to a
// database advisory lock if this becomes a multi-process deployment).
type Syncer struct {
	mu sync.Mutex

	repoURL   string
	branch    string
	localPath string
	pool      *pgxpool.Pool
}

// NewSyncer builds a Syncer over the given git repository/branch/local
// working copy path, rewriting tables through pool.
func NewSyncer(repoURL, branch, localPath string, pool *pgxpool.Pool) *Syncer {
	return &Syncer{repoURL: repoURL, branch: branch, localPath: localPath, pool: pool}
}

// Update fetches the configured branch, hard-resets the working copy to it,
// reparses every region and tech file, rewrites the reference tables, and
// reconciles video rows against the new generation. It is safe to call
// concurrently; calls are serialized.
func (s *Syncer) Update(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.openOrClone(ctx)
	if err != nil {
		return fmt.Errorf("refsync: open repository: %w", err)
	}
	if err := s.fetchAndReset(ctx, repo); err != nil {
		return fmt.Errorf("refsync: update repository: %w", err)
	}

	data, err := ParseRegionFiles(s.localPath)
	if err != nil {
		return fmt.Errorf("refsync: parse region files: %w", err)
	}
	techs, err := ParseTechFile(filepath.Join(s.localPath, "tech.json"))
	if err != nil {
		return fmt.Errorf("refsync: parse tech file: %w", err)
	}
	data.Techs = techs

	if err := catalog.RewriteReferenceTables(ctx, s.pool, data); err != nil {
		return fmt.Errorf("refsync: rewrite reference tables: %w", err)
	}
	if err := catalog.ReconcileVideos(ctx, s.pool); err != nil {
		return fmt.Errorf("refsync: reconcile videos: %w", err)
	}
	return nil
}

// openOrClone clones the repository into localPath on first run, or opens
// the existing working copy otherwise.
func (s *Syncer) openOrClone(ctx context.Context) (*git.Repository, error) {
	if _, err := os.Stat(filepath.Join(s.localPath, ".git")); os.IsNotExist(err) {
		return git.PlainCloneContext(ctx, s.localPath, false, &git.CloneOptions{
			URL:           s.repoURL,
			ReferenceName: plumbing.NewBranchReferenceName(s.branch),
			SingleBranch:  true,
		})
	}
	return git.PlainOpen(s.localPath)
}

// fetchAndReset fetches the branch from origin and hard-resets the working
// copy to origin/<branch>, mirroring the original encoder's git2-based
// fetch+reset pair.
func (s *Syncer) fetchAndReset(ctx context.Context, repo *git.Repository) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   nil,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate && err != transport.ErrEmptyRemoteRepository {
		return fmt.Errorf("fetch: %w", err)
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", s.branch), true)
	if err != nil {
		return fmt.Errorf("resolve origin/%s: %w", s.branch, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := worktree.Reset(&git.ResetOptions{Mode: git.HardReset, Commit: remoteRef.Hash()}); err != nil {
		return fmt.Errorf("hard reset: %w", err)
	}
	return nil
}
