// Package scheduler owns the periodic trigger registry. Each job type runs on
// its own cadence with at most one active execution at a time.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/user/signal-service/internal/usecase"
	"go.uber.org/zap"
)

const (
	crawlProfilesSchedule = "@every 15m"
	crawlSearchesSchedule = "@every 30m"
	analyzePostsSchedule  = "@every 10m"
)

// Registry wires the periodic jobs to the cron runner. Its lifecycle is bound
// to process startup and shutdown by main.
type Registry struct {
	cron       *cron.Cron
	crawler    usecase.CrawlScheduler
	pipeline   usecase.SignalPipeline
	batchLimit int
	logger     *zap.Logger
}

// NewRegistry creates the registry. SkipIfStillRunning gives the
// replace/coalesce semantics: a still-running invocation blocks a new one
// from starting instead of queueing it.
func NewRegistry(crawler usecase.CrawlScheduler, pipeline usecase.SignalPipeline, batchLimit int, logger *zap.Logger) *Registry {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))
	if batchLimit <= 0 {
		batchLimit = usecase.DefaultAnalyzeBatchLimit
	}
	return &Registry{
		cron:       c,
		crawler:    crawler,
		pipeline:   pipeline,
		batchLimit: batchLimit,
		logger:     logger,
	}
}

// Start registers the jobs and starts the cron runner.
func (r *Registry) Start() error {
	if _, err := r.cron.AddFunc(crawlProfilesSchedule, r.runCrawlProfiles); err != nil {
		return err
	}
	if _, err := r.cron.AddFunc(crawlSearchesSchedule, r.runCrawlSearches); err != nil {
		return err
	}
	if _, err := r.cron.AddFunc(analyzePostsSchedule, r.runAnalyzePosts); err != nil {
		return err
	}

	r.cron.Start()
	r.logger.Info("Registered scheduled jobs",
		zap.String("crawl_profiles", crawlProfilesSchedule),
		zap.String("crawl_searches", crawlSearchesSchedule),
		zap.String("analyze_posts", analyzePostsSchedule),
	)
	return nil
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (r *Registry) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("Scheduler stopped")
}

func (r *Registry) runCrawlProfiles() {
	now := time.Now().UTC()
	if err := r.crawler.RunDueCrawls(context.Background(), now); err != nil {
		r.logger.Warn("Crawl profiles job ended with error", zap.Error(err))
	}
}

func (r *Registry) runCrawlSearches() {
	now := time.Now().UTC()
	if err := r.crawler.RunDueSearchCrawls(context.Background(), now); err != nil {
		r.logger.Warn("Crawl searches job ended with error", zap.Error(err))
	}
}

func (r *Registry) runAnalyzePosts() {
	if _, err := r.pipeline.AnalyzePending(context.Background(), r.batchLimit); err != nil {
		r.logger.Warn("Analyze posts job ended with error", zap.Error(err))
	}
}
