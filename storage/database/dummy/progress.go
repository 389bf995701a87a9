package dummydb

import (
	"context"
	"time"

	"github.com/trezcool/mentora/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

func copyProgress(p progress.Progress) progress.Progress {
	p.UnlockedLessons = append([]string(nil), p.UnlockedLessons...)
	return p
}

func (repo *progressRepository) GetProgress(_ context.Context, learnerID string) (progress.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.table[learnerID]
	if !ok {
		return progress.Progress{}, progress.ErrNotFound
	}
	return copyProgress(*p), nil
}

func (repo *progressRepository) CreateProgress(_ context.Context, p progress.Progress) (progress.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p = copyProgress(p)
	repo.db.table[p.LearnerID] = &p
	return copyProgress(p), nil
}

// AppendUnlockedLesson checks and appends under the same lock, so concurrent calls never duplicate a lesson.
func (repo *progressRepository) AppendUnlockedLesson(_ context.Context, learnerID, lessonID string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.table[learnerID]
	if !ok {
		return false, progress.ErrNotFound
	}
	if p.IsUnlocked(lessonID) {
		return false, nil
	}
	p.UnlockedLessons = append(p.UnlockedLessons, lessonID)
	p.CurrentLessonID = lessonID
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (repo *progressRepository) QueryProgress(_ context.Context, learnerIDs ...string) (map[string]progress.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	out := make(map[string]progress.Progress, len(learnerIDs))
	for _, id := range learnerIDs {
		if p, ok := repo.db.table[id]; ok {
			out[id] = copyProgress(*p)
		}
	}
	return out, nil
}

func (repo *progressRepository) DeleteProgress(_ context.Context, learnerIDs ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range learnerIDs {
		delete(repo.db.table, id)
	}
	return nil
}
