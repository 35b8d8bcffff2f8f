package storage

import (
	"context"
	"sync"

	"learnhub/logger"
	"learnhub/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const releaseConcurrency = 8

// Releaser deletes blobs after their rows are gone. Deletes are best-effort:
// failures are logged and parked in orphan_assets for the reaper.
type Releaser struct {
	store AssetStore
	db    *gorm.DB
	log   *logger.Logger
}

func NewReleaser(store AssetStore, db *gorm.DB, log *logger.Logger) *Releaser {
	return &Releaser{store: store, db: db, log: log.With("service", "AssetReleaser")}
}

// Release issues one store delete per key, concurrently, and never fails.
func (r *Releaser) Release(ctx context.Context, keys []string) {
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return
	}

	var (
		mu     sync.Mutex
		failed = make(map[string]error)
		g      errgroup.Group
	)
	g.SetLimit(releaseConcurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := r.store.Delete(ctx, []string{key}); err != nil {
				mu.Lock()
				failed[key] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for key, err := range failed {
		r.log.Warn("Asset delete failed, parking for reaper", "key", key, "error", err)
		r.park(ctx, key, err)
	}
}

func (r *Releaser) park(ctx context.Context, key string, cause error) {
	row := models.OrphanAsset{Key: key, Attempts: 1, LastError: cause.Error()}
	err := r.db.WithContext(context.WithoutCancel(ctx)).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "object_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause.Error(),
		}),
	}).Create(&row).Error
	if err != nil {
		r.log.Error("Failed to record orphan asset", "key", key, "error", err)
	}
}

// Reap retries up to limit parked deletes and returns how many were cleared.
func (r *Releaser) Reap(ctx context.Context, limit int) (int, error) {
	var orphans []models.OrphanAsset
	if err := r.db.WithContext(ctx).Order("attempts asc, id asc").Limit(limit).Find(&orphans).Error; err != nil {
		return 0, err
	}

	cleared := 0
	for _, o := range orphans {
		if err := r.store.Delete(ctx, []string{o.Key}); err != nil {
			uerr := r.db.WithContext(ctx).Model(&models.OrphanAsset{}).Where("id = ?", o.ID).
				Updates(map[string]interface{}{"attempts": o.Attempts + 1, "last_error": err.Error()}).Error
			if uerr != nil {
				r.log.Warn("Failed to record reap attempt", "key", o.Key, "delete_error", err, "error", uerr)
			}
			continue
		}
		if err := r.db.WithContext(ctx).Delete(&models.OrphanAsset{}, o.ID).Error; err != nil {
			return cleared, err
		}
		cleared++
	}
	return cleared, nil
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
