package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnhub/apperr"
	"learnhub/logger"

	"gorm.io/gorm"
)

const defaultMaxAttempts = 5

// SiblingSet names the rows sharing one parent and therefore one order_index space.
type SiblingSet struct {
	Table     string
	ParentCol string
	ParentID  uint
}

func Modules(courseID uint) SiblingSet {
	return SiblingSet{Table: "modules", ParentCol: "course_id", ParentID: courseID}
}

func Lessons(moduleID uint) SiblingSet {
	return SiblingSet{Table: "lessons", ParentCol: "module_id", ParentID: moduleID}
}

func Videos(lessonID uint) SiblingSet {
	return SiblingSet{Table: "lesson_videos", ParentCol: "lesson_id", ParentID: lessonID}
}

func (s SiblingSet) String() string {
	return fmt.Sprintf("%s(%s=%d)", s.Table, s.ParentCol, s.ParentID)
}

// kinds lists every sibling set family, used by the audit job.
var kinds = []SiblingSet{Modules(0), Lessons(0), Videos(0)}

type sibling struct {
	ID         uint
	OrderIndex int
	CreatedAt  time.Time
}

// Engine keeps order_index contiguous (0..n-1) within a sibling set. Every
// method takes the caller's transaction.
type Engine struct {
	log         *logger.Logger
	maxAttempts int
}

func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log.With("service", "OrderingEngine"), maxAttempts: defaultMaxAttempts}
}

func (e *Engine) scope(tx *gorm.DB, set SiblingSet) *gorm.DB {
	return tx.Table(set.Table).Where(set.ParentCol+" = ?", set.ParentID)
}

// siblings loads the set in display order; equal indices fall back to creation time then id.
func (e *Engine) siblings(tx *gorm.DB, set SiblingSet) ([]sibling, error) {
	var rows []sibling
	err := e.scope(tx, set).
		Select("id, order_index, created_at").
		Order("order_index asc, created_at asc, id asc").
		Scan(&rows).Error
	return rows, err
}

// NextIndex is the index an appended sibling receives.
func (e *Engine) NextIndex(tx *gorm.DB, set SiblingSet) (int, error) {
	var n int64
	if err := e.scope(tx, set).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// Append inserts a new sibling at NextIndex. A unique violation on
// (parent, order_index) means a concurrent append won the slot, so the set is
// repaired and the insert retried from a savepoint.
func (e *Engine) Append(tx *gorm.DB, set SiblingSet, insert func(tx *gorm.DB, index int) error) (int, error) {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		index, err := e.NextIndex(tx, set)
		if err != nil {
			return 0, err
		}

		sp := fmt.Sprintf("append_%d", attempt)
		if err := tx.SavePoint(sp).Error; err != nil {
			return 0, err
		}
		err = insert(tx, index)
		if err == nil {
			return index, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, err
		}

		e.log.Warn("Sibling index taken, retrying append", "set", set.String(), "index", index, "attempt", attempt)
		if err := tx.RollbackTo(sp).Error; err != nil {
			return 0, err
		}
		if _, err := e.Repair(tx, set); err != nil {
			return 0, err
		}
	}
	return 0, apperr.Conflict("Could not assign a position, please retry!")
}

// InsertAt opens a slot at position (clamped to 0..n) and inserts into it.
func (e *Engine) InsertAt(tx *gorm.DB, set SiblingSet, position int, insert func(tx *gorm.DB, index int) error) (int, error) {
	index, err := e.ReindexAfterInsertAt(tx, set, position)
	if err != nil {
		return 0, err
	}
	if err := insert(tx, index); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperr.Conflict("Position changed concurrently, please retry!")
		}
		return 0, err
	}
	return index, nil
}

// Place appends when position is nil and inserts at *position otherwise.
func (e *Engine) Place(tx *gorm.DB, set SiblingSet, position *int, insert func(tx *gorm.DB, index int) error) (int, error) {
	if position == nil {
		return e.Append(tx, set, insert)
	}
	return e.InsertAt(tx, set, *position, insert)
}

// ReindexAfterInsertAt shifts every sibling at or after position up by one and
// returns the freed slot.
func (e *Engine) ReindexAfterInsertAt(tx *gorm.DB, set SiblingSet, position int) (int, error) {
	rows, err := e.siblings(tx, set)
	if err != nil {
		return 0, err
	}
	position = clamp(position, 0, len(rows))

	targets := make([]int, len(rows))
	for i := range rows {
		if i < position {
			targets[i] = i
		} else {
			targets[i] = i + 1
		}
	}
	if err := e.apply(tx, set, rows, targets); err != nil {
		return 0, err
	}
	return position, nil
}

// ReindexAfterDelete compacts the remaining siblings to 0..n-1, keeping their order.
func (e *Engine) ReindexAfterDelete(tx *gorm.DB, set SiblingSet) error {
	rows, err := e.siblings(tx, set)
	if err != nil {
		return err
	}
	return e.apply(tx, set, rows, sequence(len(rows)))
}

// Move relocates one sibling to position (clamped to 0..n-1) and returns where it landed.
func (e *Engine) Move(tx *gorm.DB, set SiblingSet, id uint, position int) (int, error) {
	rows, err := e.siblings(tx, set)
	if err != nil {
		return 0, err
	}
	from := -1
	for i, r := range rows {
		if r.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return 0, apperr.NotOwned()
	}
	position = clamp(position, 0, len(rows)-1)

	moved := rows[from]
	reordered := make([]sibling, 0, len(rows))
	reordered = append(reordered, rows[:from]...)
	reordered = append(reordered, rows[from+1:]...)
	reordered = append(reordered[:position], append([]sibling{moved}, reordered[position:]...)...)

	if err := e.apply(tx, set, reordered, sequence(len(reordered))); err != nil {
		return 0, err
	}
	return position, nil
}

// Repair restores contiguity, warning when duplicate indices are found. It
// returns the number of rows whose index changed.
func (e *Engine) Repair(tx *gorm.DB, set SiblingSet) (int, error) {
	rows, err := e.siblings(tx, set)
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].OrderIndex == rows[i-1].OrderIndex {
			e.log.Warn("Duplicate sibling order_index, resolving by creation time",
				"set", set.String(), "order_index", rows[i].OrderIndex, "ids", []uint{rows[i-1].ID, rows[i].ID})
		}
	}

	targets := sequence(len(rows))
	changed := 0
	for i, r := range rows {
		if r.OrderIndex != targets[i] {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, e.apply(tx, set, rows, targets)
}

// apply writes targets in two passes: moved rows first park on unique negative
// slots so no intermediate state trips the (parent, order_index) constraint.
func (e *Engine) apply(tx *gorm.DB, set SiblingSet, rows []sibling, targets []int) error {
	var moved []int
	for i, r := range rows {
		if r.OrderIndex != targets[i] {
			moved = append(moved, i)
		}
	}
	if len(moved) == 0 {
		return nil
	}

	for _, i := range moved {
		if err := e.setIndex(tx, set, rows[i].ID, -(targets[i] + 1)); err != nil {
			return err
		}
	}
	for _, i := range moved {
		if err := e.setIndex(tx, set, rows[i].ID, targets[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) setIndex(tx *gorm.DB, set SiblingSet, id uint, index int) error {
	err := tx.Table(set.Table).Where("id = ?", id).UpdateColumn("order_index", index).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("Position changed concurrently, please retry!")
	}
	return err
}

// AuditAll repairs every sibling set in the database, one transaction per set.
func (e *Engine) AuditAll(ctx context.Context, db *gorm.DB) (int, error) {
	total := 0
	for _, kind := range kinds {
		var parents []uint
		if err := db.WithContext(ctx).Table(kind.Table).Distinct(kind.ParentCol).Pluck(kind.ParentCol, &parents).Error; err != nil {
			return total, err
		}
		for _, parentID := range parents {
			set := kind
			set.ParentID = parentID
			err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				n, err := e.Repair(tx, set)
				total += n
				return err
			})
			if err != nil {
				return total, fmt.Errorf("repair %s: %w", set, err)
			}
		}
	}
	if total > 0 {
		e.log.Warn("Ordering audit repaired sibling sets", "rows", total)
	}
	return total, nil
}

func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
