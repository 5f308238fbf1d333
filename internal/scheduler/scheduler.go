package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deusflow/headlines/internal/app"
	"github.com/deusflow/headlines/internal/categorize"
	"github.com/deusflow/headlines/internal/pipeline"
)

type Refresher interface {
	Refresh(ctx context.Context, req app.Request) (app.Page, error)
	Categories() []categorize.Rule
}

// Warmer keeps the front page and every category page cached.
type Warmer struct {
	mu      sync.Mutex
	cron    *cron.Cron
	cronID  cron.EntryID
	svc     Refresher
	timeout time.Duration
	running atomic.Bool
	log     *slog.Logger
}

func NewWarmer(svc Refresher, timeout time.Duration, log *slog.Logger) *Warmer {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Warmer{
		cron:    cron.New(),
		svc:     svc,
		timeout: timeout,
		log:     log,
	}
}

// Start registers the warm-up job on schedule and starts the cron runner.
func (w *Warmer) Start(schedule string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	id, err := w.cron.AddFunc(schedule, func() {
		w.log.Info("cron triggered: warming headline cache")
		if err := w.RunOnce(context.Background()); err != nil {
			w.log.Warn("cache warm-up finished with errors", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	w.cronID = id
	w.cron.Start()
	w.log.Info("cron job started", "schedule", schedule)
	return nil
}

// Stop halts the scheduler. The returned context is done once a running
// job has finished.
func (w *Warmer) Stop() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cron.Stop()
}

// RunOnce refreshes the front page and each category. A run that starts
// while another is in progress is skipped.
func (w *Warmer) RunOnce(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		w.log.Info("warm-up skipped: previous run still busy")
		return nil
	}
	defer w.running.Store(false)

	reqs := []app.Request{{Strategy: pipeline.StrategyTop}}
	for _, r := range w.svc.Categories() {
		reqs = append(reqs, app.Request{Strategy: pipeline.StrategyCategory, Category: r.Slug})
	}

	var errs []error
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rctx, cancel := context.WithTimeout(ctx, w.timeout)
		page, err := w.svc.Refresh(rctx, req)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", req.Strategy, req.Category, err))
			continue
		}
		w.log.Debug("warmed", "strategy", req.Strategy, "category", req.Category, "articles", len(page.Articles))
	}
	return errors.Join(errs...)
}
