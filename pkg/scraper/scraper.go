package scraper

import (
	"fmt"
	"sync"
	"time"

	"dojofetch/internal/downloader"
	"dojofetch/pkg/config"
	"dojofetch/pkg/dojo"
	"dojofetch/pkg/feed"
	"dojofetch/pkg/logger"
	"dojofetch/pkg/ratelimit"
	"dojofetch/pkg/resolver"
	"dojofetch/pkg/store"
	"dojofetch/pkg/ui"
)

// Scraper orchestrates the feed traversal and attachment download process
type Scraper struct {
	client      *dojo.Client
	store       *store.Manager
	rateLimiter ratelimit.Limiter
	config      *config.Config
	logger      logger.Logger
}

// Summary is the final tally of a run.
type Summary struct {
	Items     int
	Tasks     int
	Succeeded int
	Skipped   int
	Failed    int
	FromCache bool
}

// New creates a new Scraper instance from an immutable configuration
// value. The configuration is not consulted again after construction.
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()

	client := dojo.NewClient(cfg.Download.DownloadTimeout, log)
	client.SetCookie(dojo.CookieLogSessionID, cfg.Dojo.LogSessionID)
	client.SetCookie(dojo.CookieLoginSID, cfg.Dojo.LoginSID)
	client.SetCookie(dojo.CookieHomeLoginSID, cfg.Dojo.HomeLoginSID)
	if cfg.Dojo.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Dojo.UserAgent)
	}

	policy, err := store.ParseCollisionPolicy(cfg.Output.OnCollision)
	if err != nil {
		return nil, err
	}

	storeManager, err := store.NewManager(cfg.Output.BaseDirectory, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	rpm := cfg.RateLimit.RequestsPerMinute
	if rpm <= 0 {
		rpm = 120
	}

	return &Scraper{
		client:      client,
		store:       storeManager,
		rateLimiter: ratelimit.NewTokenBucket(rpm, time.Minute),
		config:      cfg,
		logger:      log,
	}, nil
}

// SnapshotExists reports whether a previous run left a snapshot under
// the output root. The CLI uses this to decide whether to offer reuse.
func (s *Scraper) SnapshotExists() bool {
	return s.store.SnapshotExists()
}

// Run executes the full pipeline: obtain the story items, resolve them
// into download tasks, and fetch every attachment through the worker
// pool. When reuseSnapshot is true and a snapshot exists, the traversal
// is skipped and items come from disk.
func (s *Scraper) Run(reuseSnapshot bool) (*Summary, error) {
	summary := &Summary{}

	items, fromCache, err := s.collectItems(reuseSnapshot)
	if err != nil {
		return nil, err
	}
	summary.Items = len(items)
	summary.FromCache = fromCache

	after, err := s.config.AfterDate()
	if err != nil {
		return nil, err
	}

	tasks, err := resolver.Tasks(items, after, s.store.Root())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve download tasks: %w", err)
	}
	summary.Tasks = len(tasks)

	s.logger.InfoWithFields("download tasks resolved", map[string]interface{}{
		"items":      len(items),
		"tasks":      len(tasks),
		"after_date": s.config.Feed.AfterDate,
	})

	if len(tasks) == 0 {
		return summary, nil
	}

	s.downloadAll(tasks, summary)

	s.logger.InfoWithFields("run complete", map[string]interface{}{
		"succeeded": summary.Succeeded,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	})

	return summary, nil
}

// collectItems loads the snapshot or traverses the live feed and
// persists the result.
func (s *Scraper) collectItems(reuseSnapshot bool) ([]dojo.StoryItem, bool, error) {
	if reuseSnapshot && s.store.SnapshotExists() {
		s.logger.WithField("path", s.store.SnapshotPath()).Info("reusing existing snapshot")
		items, err := s.store.LoadSnapshot()
		if err != nil {
			return nil, false, err
		}
		return items, true, nil
	}

	traverser := feed.New(s.client, s.rateLimiter, s.config.Feed.MaxPages, s.logger)
	items, err := traverser.Walk(s.config.Feed.URL)
	if err != nil {
		return nil, false, fmt.Errorf("feed traversal failed: %w", err)
	}

	if err := s.store.SaveSnapshot(items); err != nil {
		return nil, false, err
	}
	s.logger.WithField("path", s.store.SnapshotPath()).Info("snapshot saved")

	return items, false, nil
}

// downloadAll dispatches every task to the worker pool and consumes the
// results into the summary. Individual failures are tallied, never
// fatal.
func (s *Scraper) downloadAll(tasks []resolver.Task, summary *Summary) {
	pool := downloader.NewWorkerPool(
		s.config.Download.ConcurrentDownloads,
		s.client,
		s.store,
		s.rateLimiter,
		s.logger,
	)
	pool.Start()

	progress := ui.NewProgress(len(tasks))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			switch {
			case result.Success && result.Skipped:
				summary.Skipped++
			case result.Success:
				summary.Succeeded++
			default:
				summary.Failed++
				s.logger.ErrorWithFields("download failed", map[string]interface{}{
					"url":   result.Job.URL,
					"dest":  result.Job.DestPath,
					"error": result.Error.Error(),
				})
			}

			progress.Increment()
			progress.Print()
		}
	}()

	for _, task := range tasks {
		if err := pool.Submit(downloader.JobFromTask(task)); err != nil {
			s.logger.WithError(err).WithField("url", task.SourceURL).Error("failed to submit download job")
			summary.Failed++
		}
	}

	pool.Stop()
	wg.Wait()
	progress.Finish()
}
