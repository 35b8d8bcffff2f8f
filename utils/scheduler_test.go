package utils

import (
	"testing"

	"learnhub/models"
	"learnhub/models/course"
	"learnhub/services/ordering"
	"learnhub/storage"
	"learnhub/testutil"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeSchedulersRejectsBadSpec(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	releaser := storage.NewReleaser(testutil.NewFakeAssetStore(), db, log)

	_, err := InitializeSchedulers(SchedulerSpecs{AssetReaper: "every now and then"}, releaser, ordering.NewEngine(log), db, log)
	assert.ErrorContains(t, err, "schedule asset reaper")
}

func TestInitializeSchedulersSkipsEmptySpecs(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	releaser := storage.NewReleaser(testutil.NewFakeAssetStore(), db, log)

	c, err := InitializeSchedulers(SchedulerSpecs{OrderAudit: "@hourly"}, releaser, ordering.NewEngine(log), db, log)
	require.NoError(t, err)
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}

func TestAssetReaperJobClearsParkedKeys(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := testutil.NewFakeAssetStore()
	store.Put("stale.pdf")
	require.NoError(t, db.Create(&models.OrphanAsset{Key: "stale.pdf", Attempts: 1, LastError: "timeout"}).Error)

	c := cron.New()
	require.NoError(t, StartAssetReaper(c, "@every 1h", storage.NewReleaser(store, db, log), log))
	c.Entries()[0].Job.Run()

	var parked int64
	require.NoError(t, db.Model(&models.OrphanAsset{}).Count(&parked).Error)
	assert.Zero(t, parked)
	assert.False(t, store.Has("stale.pdf"))
}

func TestOrderAuditJobRepairsGaps(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	instr := testutil.Instructor(t, db)
	crs := testutil.Course(t, db, instr.ID, false)
	testutil.Module(t, db, crs.ID, 0)
	testutil.Module(t, db, crs.ID, 4)

	c := cron.New()
	require.NoError(t, StartOrderAudit(c, "@every 1h", ordering.NewEngine(log), db, log))
	c.Entries()[0].Job.Run()

	var indices []int
	require.NoError(t, db.Model(&course.Module{}).Where("course_id = ?", crs.ID).Order("order_index").Pluck("order_index", &indices).Error)
	assert.Equal(t, []int{0, 1}, indices)
}
