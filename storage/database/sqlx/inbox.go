package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/inbox"
)

type messageRow struct {
	ID        string    `db:"id"`
	LearnerID string    `db:"learner_id"`
	LessonID  string    `db:"lesson_id"`
	Sender    string    `db:"sender"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

func (r messageRow) message() inbox.Message {
	return inbox.Message{
		ID:        r.ID,
		LearnerID: r.LearnerID,
		LessonID:  r.LessonID,
		Sender:    r.Sender,
		Text:      r.Text,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type messageRepository struct {
	exec core.DBExecutor
}

var _ inbox.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(exec core.DBExecutor) inbox.Repository {
	return &messageRepository{exec: exec}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg inbox.Message) (inbox.Message, error) {
	row := messageRow{
		ID:        msg.ID,
		LearnerID: msg.LearnerID,
		LessonID:  msg.LessonID,
		Sender:    msg.Sender,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt.UTC(),
	}
	q := `INSERT INTO messages (id, learner_id, lesson_id, sender, text, created_at)
		VALUES (:id, :learner_id, :lesson_id, :sender, :text, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return inbox.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo *messageRepository) QueryThread(ctx context.Context, learnerID, lessonID string) ([]inbox.Message, error) {
	var rows []messageRow
	q := `SELECT id, learner_id, lesson_id, sender, text, created_at FROM messages
		WHERE learner_id::text = $1 AND lesson_id = $2 ORDER BY created_at, id`
	if err := repo.exec.SelectContext(ctx, &rows, q, learnerID, lessonID); err != nil {
		return nil, errors.Wrap(err, "querying thread")
	}
	msgs := make([]inbox.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.message())
	}
	return msgs, nil
}

func (repo *messageRepository) QueryThreads(ctx context.Context) ([]inbox.Thread, error) {
	var rows []struct {
		LearnerID     string    `db:"learner_id"`
		LessonID      string    `db:"lesson_id"`
		MessageCount  int       `db:"message_count"`
		LastMessageAt time.Time `db:"last_message_at"`
	}
	q := `SELECT learner_id, lesson_id, COUNT(*) AS message_count, MAX(created_at) AS last_message_at
		FROM messages GROUP BY learner_id, lesson_id ORDER BY last_message_at DESC`
	if err := repo.exec.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying threads")
	}
	threads := make([]inbox.Thread, 0, len(rows))
	for _, r := range rows {
		threads = append(threads, inbox.Thread{
			LearnerID:     r.LearnerID,
			LessonID:      r.LessonID,
			MessageCount:  r.MessageCount,
			LastMessageAt: r.LastMessageAt.UTC(),
		})
	}
	return threads, nil
}

func (repo *messageRepository) DeleteLearnerMessages(ctx context.Context, learnerIDs ...string) error {
	if len(learnerIDs) == 0 {
		return nil
	}
	if _, err := repo.exec.ExecContext(ctx, "DELETE FROM messages WHERE learner_id::text = ANY($1)", pq.Array(learnerIDs)); err != nil {
		return errors.Wrap(err, "deleting messages")
	}
	return nil
}
