package utils

import (
	"context"
	"fmt"
	"time"

	"learnhub/logger"
	"learnhub/services/ordering"
	"learnhub/storage"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// reapBatch caps how many parked assets one reaper run retries.
const reapBatch = 200

// jobTimeout bounds a single scheduled run.
const jobTimeout = 5 * time.Minute

// SchedulerSpecs holds the cron expressions of the maintenance jobs. An empty
// spec disables its job.
type SchedulerSpecs struct {
	AssetReaper string
	OrderAudit  string
}

// cronLogger routes robfig/cron's own logging through the app logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

// StartAssetReaper retries deletion of blobs whose release failed earlier.
func StartAssetReaper(c *cron.Cron, spec string, releaser *storage.Releaser, log *logger.Logger) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		cleared, err := releaser.Reap(ctx, reapBatch)
		if err != nil {
			log.Error("Asset reaper run failed", "error", err)
			return
		}
		if cleared > 0 {
			log.Info("Asset reaper cleared orphaned assets", "count", cleared)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule asset reaper %q: %w", spec, err)
	}
	log.Info("Asset reaper scheduled", "spec", spec)
	return nil
}

// StartOrderAudit repairs sibling sets whose order indices drifted from 0..n-1.
// The engine itself warns when it had to rewrite rows.
func StartOrderAudit(c *cron.Cron, spec string, engine *ordering.Engine, db *gorm.DB, log *logger.Logger) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		repaired, err := engine.AuditAll(ctx, db)
		if err != nil {
			log.Error("Order audit run failed", "error", err)
			return
		}
		log.Debug("Order audit finished", "rows_repaired", repaired)
	})
	if err != nil {
		return fmt.Errorf("schedule order audit %q: %w", spec, err)
	}
	log.Info("Order audit scheduled", "spec", spec)
	return nil
}

// InitializeSchedulers registers the maintenance jobs and starts the cron runner.
// Overlapping runs of the same job are skipped.
func InitializeSchedulers(specs SchedulerSpecs, releaser *storage.Releaser, engine *ordering.Engine, db *gorm.DB, log *logger.Logger) (*cron.Cron, error) {
	log = log.With("service", "Scheduler")
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if specs.AssetReaper != "" {
		if err := StartAssetReaper(c, specs.AssetReaper, releaser, log); err != nil {
			return nil, err
		}
	}
	if specs.OrderAudit != "" {
		if err := StartOrderAudit(c, specs.OrderAudit, engine, db, log); err != nil {
			return nil, err
		}
	}

	c.Start()
	log.Info("All schedulers initialized successfully", "jobs", len(c.Entries()))
	return c, nil
}
