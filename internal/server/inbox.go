package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/async"
	"github.com/saikiran76/SwipeAI/internal/repository"
)

// SucceededLookup finds the latest successful run for a content hash.
type SucceededLookup interface {
	LatestSucceeded(ctx context.Context, hash string) (*repository.Run, error)
}

// Inbox feeds watcher events into the queue, skipping content the journal
// already extracted successfully.
type Inbox struct {
	queue   async.Queue
	journal SucceededLookup // nil disables dedupe
	method  constants.Method
	logger  *slog.Logger
}

func NewInbox(queue async.Queue, journal SucceededLookup, method constants.Method, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	if method == "" {
		method = constants.MethodAuto
	}
	return &Inbox{queue: queue, journal: journal, method: method, logger: logger}
}

// Run consumes paths and errs until ctx is done or paths closes.
func (in *Inbox) Run(ctx context.Context, paths <-chan string, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			in.logger.Warn("inbox.watch.error", "error", err)
		case p, ok := <-paths:
			if !ok {
				return
			}
			if err := in.Submit(ctx, p); err != nil && !errors.Is(err, context.Canceled) {
				in.logger.Error("inbox.submit.failed", "path", p, "error", err)
			}
		}
	}
}

// Submit enqueues path unless its content already has a successful run.
func (in *Inbox) Submit(ctx context.Context, path string) error {
	if in.journal != nil {
		hash, err := hashFile(path)
		if err != nil {
			return err
		}
		run, err := in.journal.LatestSucceeded(ctx, hash)
		switch {
		case err == nil:
			in.logger.Info("inbox.skip.duplicate", "path", path, "content_hash", hash, "run_id", run.ID)
			return nil
		case !errors.Is(err, repository.ErrRunNotFound):
			in.logger.Warn("inbox.journal.lookup_failed", "path", path, "error", err)
		}
	}
	return in.queue.Enqueue(ctx, async.Job{Path: path, Method: in.method})
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
