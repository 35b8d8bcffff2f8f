package community

import (
	"context"
	"errors"
	"strings"
	"time"

	"learnhub/apperr"
	"learnhub/logger"
	"learnhub/models"
	communityModels "learnhub/models/community"
	"learnhub/services/authz"
	"learnhub/storage"
	"learnhub/validators"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles communities, memberships and messages. Writes are allowed
// to the owning instructor and to students with an active membership.
type Service struct {
	db       *gorm.DB
	authz    *authz.Resolver
	store    storage.AssetStore
	releaser *storage.Releaser
	policy   storage.UploadPolicy
	log      *logger.Logger
}

func NewService(db *gorm.DB, resolver *authz.Resolver, store storage.AssetStore, releaser *storage.Releaser,
	policy storage.UploadPolicy, log *logger.Logger) *Service {
	return &Service{db: db, authz: resolver, store: store, releaser: releaser, policy: policy, log: log.With("service", "CommunityService")}
}

type CommunityInput struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description"`
	CourseID    *uint  `json:"course_id"`
}

// CommunityView is a community with the caller's membership state.
type CommunityView struct {
	communityModels.Community
	Members  int64 `json:"members"`
	IsMember bool  `json:"is_member"`
}

func (s *Service) CreateCommunity(ctx context.Context, instructorID uint, in CommunityInput) (*communityModels.Community, error) {
	if err := validators.Struct(&in); err != nil {
		return nil, err
	}
	if in.CourseID != nil {
		if _, err := s.authz.InstructorOwnsCourse(ctx, instructorID, *in.CourseID); err != nil {
			return nil, err
		}
	}
	c := communityModels.Community{
		InstructorID: instructorID,
		CourseID:     in.CourseID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperr.Internal("Failed to create community!", err)
	}
	return &c, nil
}

// ListCommunities lists the instructor's own communities, or for a student the
// communities of their assigned instructor.
func (s *Service) ListCommunities(ctx context.Context, p models.Principal) ([]CommunityView, error) {
	db := s.db.WithContext(ctx)

	var instructorID uint
	switch {
	case p.IsInstructor():
		instructorID = *p.InstructorID
	case p.IsStudent():
		id, err := s.authz.StudentInstructor(ctx, *p.StudentID)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			return []CommunityView{}, nil
		}
		instructorID = id
	default:
		return nil, apperr.Forbidden("Access denied!")
	}

	var rows []communityModels.Community
	if err := db.Where("instructor_id = ?", instructorID).Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, apperr.Internal("Failed to fetch communities!", err)
	}
	out := make([]CommunityView, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uint, len(rows))
	for i, c := range rows {
		ids[i] = c.ID
	}

	active := db.Model(&communityModels.Member{}).Where("community_id IN ? AND is_active = ?", ids, true).Session(&gorm.Session{})
	members, err := memberCounts(active)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch communities!", err)
	}
	joined := map[uint]int64{}
	if p.IsStudent() {
		if joined, err = memberCounts(active.Where("student_id = ?", *p.StudentID)); err != nil {
			return nil, apperr.Internal("Failed to fetch communities!", err)
		}
	}
	for i, c := range rows {
		out[i] = CommunityView{Community: c, Members: members[c.ID], IsMember: joined[c.ID] > 0}
	}
	return out, nil
}

// memberCounts groups the scoped membership rows by community.
func memberCounts(q *gorm.DB) (map[uint]int64, error) {
	var rows []struct {
		CommunityID uint
		N           int64
	}
	if err := q.Select("community_id, COUNT(*) AS n").Group("community_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.CommunityID] = r.N
	}
	return out, nil
}

// Join creates the membership or reactivates a previously left one. Joining
// while already active is a no-op.
func (s *Service) Join(ctx context.Context, studentID, communityID uint) (*communityModels.Member, error) {
	instructorID, err := s.authz.StudentInstructor(ctx, studentID)
	if err != nil {
		return nil, err
	}
	c, err := s.authz.Community(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if instructorID == 0 || c.InstructorID != instructorID {
		return nil, apperr.Forbidden("You can only join your instructor's communities!")
	}

	var m communityModels.Member
	// A duplicate key means a concurrent join created the row first; the
	// second attempt finds it.
	for attempt := 0; attempt < joinAttempts; attempt++ {
		if err = s.join(ctx, &m, studentID, communityID); !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Conflict("Membership is being updated, please retry!")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to join community!")
	}
	return &m, nil
}

const joinAttempts = 2

func (s *Service) join(ctx context.Context, m *communityModels.Member, studentID, communityID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		*m = communityModels.Member{}
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("community_id = ? AND student_id = ?", communityID, studentID).Take(m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			*m = communityModels.Member{CommunityID: communityID, StudentID: studentID, IsActive: true, JoinedAt: time.Now()}
			return tx.Create(m).Error
		}
		if err != nil {
			return err
		}
		if m.IsActive {
			return nil
		}
		m.IsActive, m.JoinedAt = true, time.Now()
		return tx.Model(m).Updates(map[string]interface{}{"is_active": true, "joined_at": m.JoinedAt}).Error
	})
}

// Leave soft-disables the membership so a later join can reactivate it.
func (s *Service) Leave(ctx context.Context, studentID, communityID uint) error {
	res := s.db.WithContext(ctx).Model(&communityModels.Member{}).
		Where("community_id = ? AND student_id = ? AND is_active = ?", communityID, studentID, true).
		Update("is_active", false)
	if res.Error != nil {
		return apperr.Internal("Failed to leave community!", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Forbidden("You are not a member of this community!")
	}
	return nil
}
