package enrollment_test

import (
	"context"
	"sync"
	"testing"

	"learnhub/apperr"
	"learnhub/models/course"
	"learnhub/notify"
	"learnhub/services/authz"
	"learnhub/services/enrollment"
	"learnhub/services/paging"
	"learnhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recorder struct {
	mu     sync.Mutex
	events []notify.EnrollmentEvent
}

func (r *recorder) EnrollmentCreated(_ context.Context, ev notify.EnrollmentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func setup(t *testing.T) (*gorm.DB, *enrollment.Service, *recorder) {
	t.Helper()
	db := testutil.DB(t)
	rec := &recorder{}
	svc := enrollment.NewService(db, authz.NewResolver(db), rec, testutil.Logger(t))
	t.Cleanup(svc.Wait)
	return db, svc, rec
}

func enrollmentCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&course.Enrollment{}).Count(&n).Error)
	return n
}

func TestEnrollOnceThenConflict(t *testing.T) {
	db, svc, rec := setup(t)
	ctx := context.Background()
	in := testutil.Instructor(t, db)
	st := testutil.Student(t, db, in.ID)
	c := testutil.Course(t, db, in.ID, true)

	e, err := svc.Enroll(ctx, st.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, e.CourseID)

	_, err = svc.Enroll(ctx, st.ID, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, int64(1), enrollmentCount(t, db))

	svc.Wait()
	require.Len(t, rec.events, 1)
	assert.Equal(t, e.ID, rec.events[0].EnrollmentID)
	assert.Equal(t, st.Email, rec.events[0].StudentEmail)
}

func TestEnrollGating(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()
	in := testutil.Instructor(t, db)
	other := testutil.Instructor(t, db)
	st := testutil.Student(t, db, in.ID)
	orphan := testutil.Student(t, db, 0)
	draft := testutil.Course(t, db, in.ID, false)
	foreign := testutil.Course(t, db, other.ID, true)
	open := testutil.Course(t, db, in.ID, true)

	tests := []struct {
		name      string
		studentID uint
		courseID  uint
		kind      apperr.Kind
	}{
		{"unpublished", st.ID, draft.ID, apperr.KindValidation},
		{"other instructor", st.ID, foreign.ID, apperr.KindForbidden},
		{"no instructor assigned", orphan.ID, open.ID, apperr.KindForbidden},
		{"missing course", st.ID, open.ID + 100, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Enroll(ctx, tt.studentID, tt.courseID)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
	assert.Zero(t, enrollmentCount(t, db))
}

func TestRecordProgressUpserts(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()
	in := testutil.Instructor(t, db)
	st := testutil.Student(t, db, in.ID)
	c := testutil.Course(t, db, in.ID, true)
	m := testutil.Module(t, db, c.ID, 0)
	l := testutil.Lesson(t, db, m.ID, 0)
	testutil.Enrollment(t, db, st.ID, c.ID)

	first, err := svc.RecordProgress(ctx, st.ID, l.ID, true, 120)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	second, err := svc.RecordProgress(ctx, st.ID, l.ID, true, 300)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 300, second.WatchTime)
	require.NotNil(t, second.CompletedAt)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt), "first completion time is kept")

	var n int64
	require.NoError(t, db.Model(&course.LessonProgress{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	undone, err := svc.RecordProgress(ctx, st.ID, l.ID, false, 310)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Nil(t, undone.CompletedAt)
}

func TestRecordProgressRequiresEnrollment(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()
	in := testutil.Instructor(t, db)
	st := testutil.Student(t, db, in.ID)
	c := testutil.Course(t, db, in.ID, true)
	other := testutil.Course(t, db, in.ID, true)
	m := testutil.Module(t, db, c.ID, 0)
	l := testutil.Lesson(t, db, m.ID, 0)
	// enrolled elsewhere: no cross-course writes
	testutil.Enrollment(t, db, st.ID, other.ID)

	_, err := svc.RecordProgress(ctx, st.ID, l.ID, true, 10)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.RecordProgress(ctx, st.ID, l.ID+100, true, 10)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.RecordProgress(ctx, st.ID, l.ID, true, -5)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestComputeProgress(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()
	in := testutil.Instructor(t, db)
	st := testutil.Student(t, db, in.ID)
	c := testutil.Course(t, db, in.ID, true)
	m1 := testutil.Module(t, db, c.ID, 0)
	m2 := testutil.Module(t, db, c.ID, 1)
	l1 := testutil.Lesson(t, db, m1.ID, 0)
	l2 := testutil.Lesson(t, db, m1.ID, 1)
	testutil.Lesson(t, db, m2.ID, 0)
	testutil.Lesson(t, db, m2.ID, 1)
	e := testutil.Enrollment(t, db, st.ID, c.ID)
	testutil.Progress(t, db, e.ID, l1.ID, true)
	testutil.Progress(t, db, e.ID, l2.ID, false)

	p, err := svc.ComputeProgress(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.TotalLessons)
	assert.Equal(t, int64(1), p.CompletedLessons)
	assert.Equal(t, 25, p.Percentage)

	empty := testutil.Course(t, db, in.ID, true)
	e2 := testutil.Enrollment(t, db, st.ID, empty.ID)
	p, err = svc.ComputeProgress(ctx, e2.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Percentage)
}

func TestPercentageRounding(t *testing.T) {
	assert.Equal(t, 0, enrollment.Percentage(0, 0))
	assert.Equal(t, 33, enrollment.Percentage(1, 3))
	assert.Equal(t, 67, enrollment.Percentage(2, 3))
	assert.Equal(t, 100, enrollment.Percentage(3, 3))
}

func TestListings(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()
	in := testutil.Instructor(t, db)
	st := testutil.Student(t, db, in.ID)
	c := testutil.Course(t, db, in.ID, true)
	m := testutil.Module(t, db, c.ID, 0)
	l := testutil.Lesson(t, db, m.ID, 0)
	testutil.Lesson(t, db, m.ID, 1)
	e := testutil.Enrollment(t, db, st.ID, c.ID)
	testutil.Progress(t, db, e.ID, l.ID, true)

	mine, err := svc.ListStudentEnrollments(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, c.Title, mine[0].Course.Title)
	assert.Equal(t, 50, mine[0].Progress.Percentage)

	roster, page, err := svc.ListCourseEnrollments(ctx, in.ID, c.ID, paging.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, roster, 1)
	assert.Equal(t, st.Name, roster[0].Student.Name)
	assert.Equal(t, 50, roster[0].Progress.Percentage)

	_, _, err = svc.ListCourseEnrollments(ctx, testutil.Instructor(t, db).ID, c.ID, paging.Params{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	detail, err := svc.StudentProgress(ctx, st.ID, e.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Lessons, 1)
	assert.Equal(t, 50, detail.Percentage)

	_, err = svc.StudentProgress(ctx, testutil.Student(t, db, in.ID).ID, e.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestEnrollAndProgressHoldTheirParentsInTheWriteTransaction(t *testing.T) {
	db, svc, _ := setup(t)
	ctx := context.Background()
	in := testutil.Instructor(t, db)
	st := testutil.Student(t, db, in.ID)
	c := testutil.Course(t, db, in.ID, true)
	l := testutil.Lesson(t, db, testutil.Module(t, db, c.ID, 0).ID, 0)

	locked := map[string]string{}
	record := func(tx *gorm.DB) {
		if cl, ok := tx.Statement.Clauses["FOR"]; ok {
			if lk, ok := cl.Expression.(clause.Locking); ok {
				locked[tx.Statement.Table] = lk.Strength
			}
		}
	}
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register("test:record_lock", record))
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:record_lock", record))

	_, err := svc.Enroll(ctx, st.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, clause.LockingStrengthShare, locked["courses"])

	_, err = svc.RecordProgress(ctx, st.ID, l.ID, true, 30)
	require.NoError(t, err)
	assert.Equal(t, clause.LockingStrengthShare, locked["lessons"])
	assert.Equal(t, clause.LockingStrengthShare, locked["enrollments"])
}
