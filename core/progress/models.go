package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/curriculum"
)

// ErrNotFound is returned by repositories when the learner has no progress record.
var ErrNotFound = errors.New("progress not found")

// Progress is the per-learner progression state.
type Progress struct {
	LearnerID       string    `json:"learnerId"`
	CurrentLessonID string    `json:"currentLessonId"`
	UnlockedLessons []string  `json:"unlockedLessons"`
	CreatedAt       time.Time `json:"createdAt"` // UTC
	UpdatedAt       time.Time `json:"updatedAt"` // UTC
}

// New returns the initial progress of a learner: only `firstLessonID` is unlocked.
func New(learnerID, firstLessonID string) Progress {
	now := time.Now().UTC()
	return Progress{
		LearnerID:       learnerID,
		CurrentLessonID: firstLessonID,
		UnlockedLessons: []string{firstLessonID},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (p Progress) IsUnlocked(lessonID string) bool {
	for _, id := range p.UnlockedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

type (
	Repository interface {
		GetProgress(ctx context.Context, learnerID string) (Progress, error)
		CreateProgress(ctx context.Context, p Progress) (Progress, error)
		// AppendUnlockedLesson atomically adds `lessonID` to the unlocked lessons if it is not there yet,
		// and makes it the current lesson. It reports whether the lesson was appended.
		// Calling it twice with the same lesson is safe. Fails with ErrNotFound if there is no record.
		AppendUnlockedLesson(ctx context.Context, learnerID, lessonID string) (bool, error)
		// QueryProgress returns the records of the given learners keyed by learner ID.
		QueryProgress(ctx context.Context, learnerIDs ...string) (map[string]Progress, error)
		DeleteProgress(ctx context.Context, learnerIDs ...string) error
	}

	// CurriculumReader provides point-in-time snapshots of the curriculum.
	CurriculumReader interface {
		GetCurriculum(ctx context.Context) (curriculum.Curriculum, error)
	}
)
