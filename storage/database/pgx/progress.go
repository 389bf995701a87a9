package pgxrepos

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/progress"
)

const progressColumns = "learner_id::text, current_lesson_id, unlocked_lessons, created_at, updated_at"

type progressRepository struct {
	pool *pgxpool.Pool
	tx   *Transactor
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(pool *pgxpool.Pool) progress.Repository {
	return &progressRepository{pool: pool, tx: NewTransactor(pool)}
}

func scanProgress(row pgx.Row) (progress.Progress, error) {
	var p progress.Progress
	if err := row.Scan(&p.LearnerID, &p.CurrentLessonID, &p.UnlockedLessons, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return progress.Progress{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if p.UnlockedLessons == nil {
		p.UnlockedLessons = []string{}
	}
	return p, nil
}

func (repo *progressRepository) GetProgress(ctx context.Context, learnerID string) (progress.Progress, error) {
	row := repo.pool.QueryRow(ctx, "SELECT "+progressColumns+" FROM progress WHERE learner_id::text = $1", learnerID)
	p, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return progress.Progress{}, progress.ErrNotFound
		}
		return progress.Progress{}, errors.Wrap(err, "finding progress")
	}
	return p, nil
}

func (repo *progressRepository) CreateProgress(ctx context.Context, p progress.Progress) (progress.Progress, error) {
	if p.UnlockedLessons == nil {
		p.UnlockedLessons = []string{}
	}
	q := `INSERT INTO progress (learner_id, current_lesson_id, unlocked_lessons, created_at, updated_at)
		VALUES ($1::text::uuid, $2, $3, $4, $5)`
	if _, err := repo.pool.Exec(ctx, q, p.LearnerID, p.CurrentLessonID, p.UnlockedLessons, p.CreatedAt.UTC(), p.UpdatedAt.UTC()); err != nil {
		return progress.Progress{}, errors.Wrap(err, "inserting progress")
	}
	return p, nil
}

// AppendUnlockedLesson relies on a single conditional UPDATE: Postgres row locking makes concurrent appends
// of the same lesson apply once. The existence check runs in the same transaction.
func (repo *progressRepository) AppendUnlockedLesson(ctx context.Context, learnerID, lessonID string) (bool, error) {
	var appended bool
	err := repo.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE progress
			SET unlocked_lessons = array_append(unlocked_lessons, $2), current_lesson_id = $2, updated_at = $3
			WHERE learner_id::text = $1 AND NOT ($2 = ANY(unlocked_lessons))`,
			learnerID, lessonID, time.Now().UTC())
		if err != nil {
			return errors.Wrap(err, "appending unlocked lesson")
		}
		if tag.RowsAffected() > 0 {
			appended = true
			return nil
		}

		var exists bool
		if err = tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM progress WHERE learner_id::text = $1)", learnerID).Scan(&exists); err != nil {
			return errors.Wrap(err, "checking progress")
		}
		if !exists {
			return progress.ErrNotFound
		}
		return nil
	})
	return appended, err
}

func (repo *progressRepository) QueryProgress(ctx context.Context, learnerIDs ...string) (map[string]progress.Progress, error) {
	out := make(map[string]progress.Progress, len(learnerIDs))
	if len(learnerIDs) == 0 {
		return out, nil
	}

	rows, err := repo.pool.Query(ctx, "SELECT "+progressColumns+" FROM progress WHERE learner_id::text = ANY($1)", learnerIDs)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning progress")
		}
		out[p.LearnerID] = p
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	return out, nil
}

func (repo *progressRepository) DeleteProgress(ctx context.Context, learnerIDs ...string) error {
	if len(learnerIDs) == 0 {
		return nil
	}
	if _, err := repo.pool.Exec(ctx, "DELETE FROM progress WHERE learner_id::text = ANY($1)", learnerIDs); err != nil {
		return errors.Wrap(err, "deleting progress")
	}
	return nil
}
