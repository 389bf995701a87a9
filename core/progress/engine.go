package progress

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/curriculum"
)

// Kind classifies why an unlock attempt failed.
type Kind string

const (
	Unauthenticated Kind = "Unauthenticated"
	InvalidArgument Kind = "InvalidArgument"
	NotFound        Kind = "NotFound"
	InvalidCode     Kind = "InvalidCode"
	Internal        Kind = "Internal"
)

// Error is the failure result of an unlock attempt. Message can be shown to the learner as is.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying error, never shown to the learner
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf returns the Kind of `err` if it is an unlock Error, or Internal.
func KindOf(err error) Kind {
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Kind
	}
	return Internal
}

func newError(kind Kind, msg string, err ...error) *Error {
	e := &Error{Kind: kind, Message: msg}
	if len(err) > 0 {
		e.Err = err[0]
	}
	return e
}

type (
	UnlockRequest struct {
		LearnerID       string `json:"-"`
		CurrentLessonID string `json:"currentLessonId"`
		SubmittedCode   string `json:"submittedCode"`
	}

	Outcome struct {
		Advanced     bool    `json:"advanced"`
		NextLessonID *string `json:"nextLessonId"`
		Message      string  `json:"message"`
	}
)

// Engine moves learners through the curriculum.
type Engine struct {
	curriculum CurriculumReader
	repo       Repository
}

func NewEngine(curriculum CurriculumReader, repo Repository) *Engine {
	return &Engine{curriculum: curriculum, repo: repo}
}

// Unlock checks the code submitted for the learner's current lesson and unlocks the next lesson
// of the curriculum. The curriculum is read again on every call so admin edits apply immediately.
// Every failure is an *Error; progress is only written once all checks have passed.
func (eng *Engine) Unlock(ctx context.Context, req UnlockRequest) (Outcome, error) {
	if req.LearnerID == "" {
		return Outcome{}, newError(Unauthenticated, "You must be signed in to unlock lessons.")
	}
	lessonID := core.CleanString(req.CurrentLessonID)
	code := core.CleanString(req.SubmittedCode, true /* lower */)
	if lessonID == "" {
		return Outcome{}, newError(InvalidArgument, "The current lesson is required.")
	}
	if code == "" {
		return Outcome{}, newError(InvalidArgument, "The unlock code is required.")
	}

	snapshot, err := eng.curriculum.GetCurriculum(ctx)
	if err != nil {
		return Outcome{}, newError(Internal, "Could not load the curriculum, please try again.", errors.Wrap(err, "getting curriculum"))
	}
	order := curriculum.BuildOrder(snapshot)

	idx := curriculum.IndexOf(order, lessonID)
	if idx < 0 {
		return Outcome{}, newError(NotFound, "This lesson does not exist anymore.")
	}

	lesson, _ := snapshot.Lesson(lessonID)
	if !codesMatch(code, lesson.UnlockCode) {
		return Outcome{}, newError(InvalidCode, "Incorrect code, please try again.")
	}

	if idx == len(order)-1 {
		return Outcome{
			Message: "Congratulations, you have completed the course!",
		}, nil
	}

	nextID := order[idx+1]
	if _, err = eng.repo.AppendUnlockedLesson(ctx, req.LearnerID, nextID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Outcome{}, newError(NotFound, "No progress record was found for your account.")
		}
		return Outcome{}, newError(Internal, "Could not save your progress, please try again.", errors.Wrap(err, "appending unlocked lesson"))
	}

	return Outcome{
		Advanced:     true,
		NextLessonID: &nextID,
		Message:      fmt.Sprintf("Correct! %q is now unlocked.", snapshot.LessonTitle(nextID)),
	}, nil
}

// codesMatch compares a cleaned submitted code with the stored one, case-insensitively.
func codesMatch(submitted, stored string) bool {
	stored = core.CleanString(stored, true /* lower */)
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}

func (eng *Engine) GetProgress(ctx context.Context, learnerID string) (Progress, error) {
	return eng.repo.GetProgress(ctx, learnerID)
}
