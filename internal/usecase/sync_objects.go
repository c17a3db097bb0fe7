package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-cob/internal/domain"
)

// SyncObjectsInput contains the input parameters for SyncObjects.
type SyncObjectsInput struct {
	Remote string // Remote name (default "origin")
	Fetch  bool   // Fetch peer namespaces
	Push   bool   // Push the own namespace
}

// SyncObjectsOutput reports what was done.
type SyncObjectsOutput struct {
	Remote  string
	Fetched bool
	Pushed  bool
}

// SyncObjects exchanges objects with a remote. Fetching runs first so a
// push never races ahead of what peers have published.
type SyncObjects struct {
	syncer domain.Syncer
	logger domain.Logger
}

// NewSyncObjects creates a new SyncObjects use case. A nil syncer means the
// configured backend cannot sync.
func NewSyncObjects(syncer domain.Syncer, logger domain.Logger) *SyncObjects {
	return &SyncObjects{syncer: syncer, logger: logger}
}

// Execute fetches and/or pushes. With neither flag set it does both.
func (uc *SyncObjects) Execute(ctx context.Context, in SyncObjectsInput) (*SyncObjectsOutput, error) {
	if uc.syncer == nil {
		return nil, domain.ErrSyncUnsupported
	}
	remote := in.Remote
	if remote == "" {
		remote = "origin"
	}
	fetch, push := in.Fetch, in.Push
	if !fetch && !push {
		fetch, push = true, true
	}

	out := &SyncObjectsOutput{Remote: remote}
	if fetch {
		if err := uc.syncer.Fetch(ctx, remote); err != nil {
			return nil, fmt.Errorf("fetch from %s: %w", remote, err)
		}
		out.Fetched = true
		uc.logger.Info("", "sync", "fetched from "+remote)
	}
	if push {
		if err := uc.syncer.Push(ctx, remote); err != nil {
			return nil, fmt.Errorf("push to %s: %w", remote, err)
		}
		out.Pushed = true
		uc.logger.Info("", "sync", "pushed to "+remote)
	}
	return out, nil
}
