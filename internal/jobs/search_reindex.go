// File: internal/jobs/search_reindex.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/search"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reindexer rebuilds the search indexes from the primary store.
type Reindexer interface {
	ReindexAll(ctx context.Context) (search.ReindexStats, error)
}

// SearchReindexJob periodically reconciles the search indexes with the
// primary store, repairing records whose change event was lost.
type SearchReindexJob struct {
	reindexer     Reindexer
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
	timeout       time.Duration
}

// NewSearchReindexJob creates a new SearchReindexJob.
func NewSearchReindexJob(reindexer Reindexer, logger *zap.Logger, cfg *config.Config) *SearchReindexJob {
	cronLog := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.SkipIfStillRunning(cronLog)),
	)

	return &SearchReindexJob{
		reindexer:     reindexer,
		logger:        logger.Named("SearchReindexJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
		timeout:       30 * time.Minute,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *SearchReindexJob) SetupAndStart() error {
	jobSpec := j.cfg.SearchReindexJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Search reindex job schedule not defined (SEARCH_REINDEX_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule search reindex job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Search reindex job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *SearchReindexJob) runJob() {
	j.logger.Info("Starting search reindex job run...")
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	stats, err := j.reindexer.ReindexAll(ctx)
	if err != nil {
		j.logger.Error("Search reindex job run failed", zap.Error(err), zap.Any("stats", stats))
		return
	}
	j.logger.Info("Search reindex job run completed", zap.Any("stats", stats))
}

// Stop gracefully stops the cron scheduler.
func (j *SearchReindexJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping search reindex job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Search reindex job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Search reindex job scheduler stop timed out.")
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, fieldsFromKeysAndValues(keysAndValues)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := fieldsFromKeysAndValues(keysAndValues)
	cl.zl.Error(msg, append(fields, zap.Error(err))...)
}

func fieldsFromKeysAndValues(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, "MISSING_VALUE"))
		}
	}
	return fields
}
