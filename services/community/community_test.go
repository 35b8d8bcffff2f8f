package community_test

import (
	"context"
	"testing"

	"learnhub/apperr"
	"learnhub/models"
	communityModels "learnhub/models/community"
	"learnhub/services/authz"
	"learnhub/services/community"
	"learnhub/services/paging"
	"learnhub/storage"
	"learnhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	store   *testutil.FakeAssetStore
	svc     *community.Service
	ctx     context.Context
	owner   models.Principal
	student models.Principal
	room    *communityModels.Community
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := testutil.NewFakeAssetStore()
	svc := community.NewService(db, authz.NewResolver(db), store, storage.NewReleaser(store, db, log), storage.DefaultPolicy(), log)

	in := testutil.Instructor(t, db)
	st := testutil.Student(t, db, in.ID)
	ctx := context.Background()
	room, err := svc.CreateCommunity(ctx, in.ID, community.CommunityInput{Name: "Cohort 1"})
	require.NoError(t, err)

	return fixture{
		db:      db,
		store:   store,
		svc:     svc,
		ctx:     ctx,
		owner:   models.Principal{UserID: in.ID, Role: models.RoleInstructor, InstructorID: testutil.UintPtr(in.ID)},
		student: models.Principal{UserID: st.ID, Role: models.RoleStudent, StudentID: testutil.UintPtr(st.ID)},
		room:    room,
	}
}

func TestCreateCommunityValidatesCourseOwnership(t *testing.T) {
	f := setup(t)
	other := testutil.Instructor(t, f.db)
	foreign := testutil.Course(t, f.db, other.ID, true)

	_, err := f.svc.CreateCommunity(f.ctx, *f.owner.InstructorID, community.CommunityInput{Name: "x", CourseID: &foreign.ID})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.CreateCommunity(f.ctx, *f.owner.InstructorID, community.CommunityInput{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestJoinLeaveReactivates(t *testing.T) {
	f := setup(t)
	sid := *f.student.StudentID

	m, err := f.svc.Join(f.ctx, sid, f.room.ID)
	require.NoError(t, err)
	assert.True(t, m.IsActive)

	again, err := f.svc.Join(f.ctx, sid, f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)

	require.NoError(t, f.svc.Leave(f.ctx, sid, f.room.ID))
	assert.True(t, apperr.Is(f.svc.Leave(f.ctx, sid, f.room.ID), apperr.KindForbidden))

	back, err := f.svc.Join(f.ctx, sid, f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, back.ID)
	assert.True(t, back.IsActive)

	var n int64
	require.NoError(t, f.db.Model(&communityModels.Member{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	outsider := testutil.Student(t, f.db, testutil.Instructor(t, f.db).ID)
	_, err = f.svc.Join(f.ctx, outsider.ID, f.room.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestMessagesPinnedFirst(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Join(f.ctx, *f.student.StudentID, f.room.ID)
	require.NoError(t, err)

	first, err := f.svc.CreateMessage(f.ctx, f.owner, f.room.ID, community.MessageInput{Content: "Welcome!"}, nil)
	require.NoError(t, err)
	second, err := f.svc.CreateMessage(f.ctx, f.student, f.room.ID, community.MessageInput{Content: "Hi all"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, second.AuthorRole)

	pinned, err := f.svc.TogglePin(f.ctx, *f.owner.InstructorID, first.ID)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)

	msgs, page, err := f.svc.ListMessages(f.ctx, f.student, f.room.ID, paging.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)

	unpinned, err := f.svc.TogglePin(f.ctx, *f.owner.InstructorID, first.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
}

func TestMessageWriteAuthorization(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateMessage(f.ctx, f.student, f.room.ID, community.MessageInput{Content: "let me in"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "non-members cannot post")

	_, err = f.svc.Join(f.ctx, *f.student.StudentID, f.room.ID)
	require.NoError(t, err)
	ownerMsg, err := f.svc.CreateMessage(f.ctx, f.owner, f.room.ID, community.MessageInput{Content: "Rules"}, nil)
	require.NoError(t, err)
	mine, err := f.svc.CreateMessage(f.ctx, f.student, f.room.ID, community.MessageInput{Content: "typo"}, nil)
	require.NoError(t, err)

	_, err = f.svc.UpdateMessage(f.ctx, f.student, ownerMsg.ID, community.MessageInput{Content: "hijack"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	edited, err := f.svc.UpdateMessage(f.ctx, f.student, mine.ID, community.MessageInput{Content: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", edited.Content)

	intruder := testutil.Instructor(t, f.db)
	_, err = f.svc.TogglePin(f.ctx, intruder.ID, mine.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	// the owner moderates any message
	require.NoError(t, f.svc.DeleteMessage(f.ctx, f.owner, mine.ID))
}

func TestDeleteMessageReleasesAttachment(t *testing.T) {
	f := setup(t)
	msg, err := f.svc.CreateMessage(f.ctx, f.owner, f.room.ID, community.MessageInput{Content: "Homework"},
		&storage.FilePart{Name: "hw.pdf", Data: testutil.PDFBytes})
	require.NoError(t, err)
	require.NotEmpty(t, msg.AttachmentKey)
	assert.True(t, f.store.Has(msg.AttachmentKey))

	require.NoError(t, f.svc.DeleteMessage(f.ctx, f.owner, msg.ID))
	assert.False(t, f.store.Has(msg.AttachmentKey))
	assert.Equal(t, 1, f.store.DeleteCalls())
}

func TestListCommunitiesShowsMembership(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Join(f.ctx, *f.student.StudentID, f.room.ID)
	require.NoError(t, err)

	list, err := f.svc.ListCommunities(f.ctx, f.student)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsMember)
	assert.Equal(t, int64(1), list[0].Members)

	list, err = f.svc.ListCommunities(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListCommunitiesCountsActiveMembersPerCommunity(t *testing.T) {
	f := setup(t)
	sid := *f.student.StudentID
	peer := testutil.Student(t, f.db, *f.owner.InstructorID)
	quiet, err := f.svc.CreateCommunity(f.ctx, *f.owner.InstructorID, community.CommunityInput{Name: "Cohort 2"})
	require.NoError(t, err)
	empty, err := f.svc.CreateCommunity(f.ctx, *f.owner.InstructorID, community.CommunityInput{Name: "Cohort 3"})
	require.NoError(t, err)

	for _, join := range []struct{ student, room uint }{{sid, f.room.ID}, {peer.ID, f.room.ID}, {peer.ID, quiet.ID}} {
		_, err := f.svc.Join(f.ctx, join.student, join.room)
		require.NoError(t, err)
	}
	_, err = f.svc.Join(f.ctx, sid, quiet.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Leave(f.ctx, sid, quiet.ID))

	list, err := f.svc.ListCommunities(f.ctx, f.student)
	require.NoError(t, err)
	require.Len(t, list, 3)
	byID := map[uint]community.CommunityView{}
	for _, v := range list {
		byID[v.ID] = v
	}
	assert.Equal(t, int64(2), byID[f.room.ID].Members)
	assert.True(t, byID[f.room.ID].IsMember)
	assert.Equal(t, int64(1), byID[quiet.ID].Members)
	assert.False(t, byID[quiet.ID].IsMember)
	assert.Equal(t, int64(0), byID[empty.ID].Members)
	assert.False(t, byID[empty.ID].IsMember)
}

func TestJoinGivesUpAfterRepeatedDuplicateKeys(t *testing.T) {
	f := setup(t)
	attempts := 0
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:duplicate_member", func(tx *gorm.DB) {
		if tx.Statement.Table == "community_members" {
			attempts++
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	}))

	_, err := f.svc.Join(f.ctx, *f.student.StudentID, f.room.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 2, attempts)
}

func TestMessageLoadFailureIsNotReportedAsMissing(t *testing.T) {
	f := setup(t)
	msg, err := f.svc.CreateMessage(f.ctx, f.owner, f.room.ID, community.MessageInput{Content: "Rules"}, nil)
	require.NoError(t, err)

	_, err = f.svc.UpdateMessage(f.ctx, f.owner, msg.ID+100, community.MessageInput{Content: "x"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, f.db.Migrator().DropTable(&communityModels.Message{}))
	_, err = f.svc.UpdateMessage(f.ctx, f.owner, msg.ID, community.MessageInput{Content: "x"})
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}
