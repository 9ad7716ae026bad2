package usecase_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zots0127/filebin/internal/domain/entities"
	"github.com/zots0127/filebin/internal/usecase"
	"github.com/zots0127/filebin/internal/usecase/mocks"
)

func TestPendingSweeper_Sweep(t *testing.T) {
	files := new(mocks.MockFileRepository)
	blobs := new(mocks.MockBlobStore)
	sweeper := usecase.NewPendingSweeper(files, blobs, 24*time.Hour, time.Hour, log.New(io.Discard))

	stale := []*entities.FileRecord{
		{ID: "f1", UserID: "u1", StorageKey: "u1/a.png"},
		{ID: "f2", UserID: "u2", StorageKey: "u2/b.png"},
	}
	files.On("ListPendingBefore", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		// Cutoff sits one TTL in the past.
		return time.Since(cutoff) > 23*time.Hour
	})).Return(stale, nil)

	// The first blob was never uploaded; its delete failing must not stop
	// the sweep.
	blobs.On("Delete", mock.Anything, "u1/a.png").Return(errors.New("no such key"))
	blobs.On("Delete", mock.Anything, "u2/b.png").Return(nil)
	files.On("Delete", mock.Anything, "f1").Return(nil)
	files.On("Delete", mock.Anything, "f2").Return(nil)

	removed, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	files.AssertExpectations(t)
	blobs.AssertExpectations(t)
}

func TestPendingSweeper_NothingStale(t *testing.T) {
	files := new(mocks.MockFileRepository)
	blobs := new(mocks.MockBlobStore)
	sweeper := usecase.NewPendingSweeper(files, blobs, 24*time.Hour, time.Hour, log.New(io.Discard))

	files.On("ListPendingBefore", mock.Anything, mock.Anything).
		Return([]*entities.FileRecord{}, nil)

	removed, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)

	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPendingSweeper_RunStopsOnCancel(t *testing.T) {
	files := new(mocks.MockFileRepository)
	blobs := new(mocks.MockBlobStore)
	sweeper := usecase.NewPendingSweeper(files, blobs, time.Hour, 10*time.Millisecond, log.New(io.Discard))

	files.On("ListPendingBefore", mock.Anything, mock.Anything).
		Return([]*entities.FileRecord{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
