package inbox

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/curriculum"
	"github.com/trezcool/mentora/core/progress"
	"github.com/trezcool/mentora/core/user"
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryThread returns the messages of a thread, oldest first.
		QueryThread(ctx context.Context, learnerID, lessonID string) ([]Message, error)
		QueryThreads(ctx context.Context) ([]Thread, error)
		DeleteLearnerMessages(ctx context.Context, learnerIDs ...string) error
	}

	Service struct {
		repo       Repository
		users      user.Repository
		curriculum progress.CurriculumReader
	}
)

func NewService(repo Repository, users user.Repository, curriculum progress.CurriculumReader) *Service {
	return &Service{repo: repo, users: users, curriculum: curriculum}
}

// ListThreads returns a summary of every thread, most recently active first.
func (svc *Service) ListThreads(ctx context.Context) ([]ThreadSummary, error) {
	threads, err := svc.repo.QueryThreads(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying threads")
	}
	if len(threads) == 0 {
		return []ThreadSummary{}, nil
	}

	learners, err := svc.users.QueryUsers(ctx, &user.QueryFilter{Roles: []string{user.RoleLearner}}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying learners")
	}
	names := make(map[string]string, len(learners))
	for _, l := range learners {
		names[l.ID] = l.Name
	}
	c, err := svc.curriculum.GetCurriculum(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting curriculum")
	}

	summaries := make([]ThreadSummary, 0, len(threads))
	for _, th := range threads {
		name, ok := names[th.LearnerID]
		if !ok || name == "" {
			name = unknownUserName
		}
		summaries = append(summaries, ThreadSummary{
			LearnerID:     th.LearnerID,
			LearnerName:   name,
			LessonID:      th.LessonID,
			LessonTitle:   c.LessonTitle(th.LessonID),
			MessageCount:  th.MessageCount,
			LastMessageAt: th.LastMessageAt,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
	})
	return summaries, nil
}

func (svc *Service) GetThread(ctx context.Context, learnerID, lessonID string) ([]Message, error) {
	msgs, err := svc.repo.QueryThread(ctx, learnerID, lessonID)
	if err != nil {
		return nil, errors.Wrap(err, "querying thread")
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

// Post adds a message to a thread. The learner must exist and the lesson must be part of the current curriculum.
func (svc *Service) Post(ctx context.Context, nm NewMessage) (Message, error) {
	usr, err := svc.users.GetUser(ctx, user.GetFilter{ID: nm.LearnerID})
	if err != nil {
		return Message{}, err
	}
	if !usr.IsLearner() {
		return Message{}, user.ErrNotFound
	}
	c, err := svc.curriculum.GetCurriculum(ctx)
	if err != nil {
		return Message{}, errors.Wrap(err, "getting curriculum")
	}
	if _, ok := c.Lesson(nm.LessonID); !ok {
		return Message{}, curriculum.ErrLessonNotFound
	}

	return svc.repo.CreateMessage(ctx, Message{
		ID:        uuid.New().String(),
		LearnerID: nm.LearnerID,
		LessonID:  nm.LessonID,
		Sender:    nm.Sender,
		Text:      nm.Text,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) DeleteLearnerMessages(ctx context.Context, learnerIDs ...string) error {
	return svc.repo.DeleteLearnerMessages(ctx, learnerIDs...)
}
