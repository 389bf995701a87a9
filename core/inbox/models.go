// Package inbox holds the mentorship conversations between admins and learners.
// A thread is identified by a (learner, lesson) pair.
package inbox

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mentora/core"
)

const (
	SenderAdmin   = "admin"
	SenderLearner = "learner"

	unknownUserName = "Unknown User"
)

type (
	Message struct {
		ID        string    `json:"id"`
		LearnerID string    `json:"learnerId"`
		LessonID  string    `json:"lessonId"`
		Sender    string    `json:"sender"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"createdAt"` // UTC
	}

	// Thread is the aggregate of the messages of a (learner, lesson) pair.
	Thread struct {
		LearnerID     string
		LessonID      string
		MessageCount  int
		LastMessageAt time.Time
	}

	ThreadSummary struct {
		LearnerID     string    `json:"learnerId"`
		LearnerName   string    `json:"learnerName"`
		LessonID      string    `json:"lessonId"`
		LessonTitle   string    `json:"lessonTitle"`
		MessageCount  int       `json:"messageCount"`
		LastMessageAt time.Time `json:"lastMessageAt"`
	}

	// NewMessage contains information needed to post a message in a thread.
	// LearnerID, LessonID and Sender come from the request context, never from the body.
	NewMessage struct {
		LearnerID string `json:"-" validate:"required"`
		LessonID  string `json:"-" validate:"required"`
		Sender    string `json:"-" validate:"required,oneof=admin learner"`
		Text      string `json:"text" validate:"required,max=4000"`
	}
)

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Text = core.CleanString(nm.Text)
	return validate.Struct(nm)
}
