package usecase

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/zots0127/filebin/internal/domain/repository"
)

// PendingSweeper removes presigned-upload records that were never
// confirmed. Without it an abandoned begin call would leak a pending row
// forever.
type PendingSweeper struct {
	files    repository.FileRepository
	blobs    repository.BlobStore
	ttl      time.Duration
	interval time.Duration
	logger   *log.Logger
}

func NewPendingSweeper(files repository.FileRepository, blobs repository.BlobStore, ttl, interval time.Duration, logger *log.Logger) *PendingSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &PendingSweeper{
		files:    files,
		blobs:    blobs,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *PendingSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				s.logger.Error("pending sweep failed", "err", err)
			} else if n > 0 {
				s.logger.Info("swept pending records", "count", n)
			}
		}
	}
}

// Sweep deletes pending records older than the TTL and returns how many it
// removed. The blob delete is best effort: most pending records never had
// their bytes uploaded at all.
func (s *PendingSweeper) Sweep(ctx context.Context) (int, error) {
	stale, err := s.files.ListPendingBefore(ctx, time.Now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, record := range stale {
		if err := s.blobs.Delete(ctx, record.StorageKey); err != nil {
			s.logger.Warn("blob delete during sweep", "key", record.StorageKey, "err", err)
		}
		if err := s.files.Delete(ctx, record.ID); err != nil {
			s.logger.Error("record delete during sweep", "id", record.ID, "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}
