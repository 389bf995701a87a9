package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/curriculum"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	lessonColumns = "id, module_id, title, description, position, video_url, thumbnail_url, chatbot_id, unlock_code"
	insertModule  = `INSERT INTO modules (id, title, position) VALUES (:id, :title, :position)`
	insertLesson  = `INSERT INTO lessons (` + lessonColumns + `)
		VALUES (:id, :module_id, :title, :description, :position, :video_url, :thumbnail_url, :chatbot_id, :unlock_code)`
)

type (
	moduleRow struct {
		ID       string `db:"id"`
		Title    string `db:"title"`
		Position int    `db:"position"`
	}

	lessonRow struct {
		ID           string      `db:"id"`
		ModuleID     string      `db:"module_id"`
		Title        string      `db:"title"`
		Description  string      `db:"description"`
		Position     int         `db:"position"`
		VideoURL     null.String `db:"video_url"`
		ThumbnailURL null.String `db:"thumbnail_url"`
		ChatbotID    null.String `db:"chatbot_id"`
		UnlockCode   string      `db:"unlock_code"`
	}
)

func toLessonRow(l curriculum.Lesson) lessonRow {
	return lessonRow{
		ID:           l.ID,
		ModuleID:     l.ModuleID,
		Title:        l.Title,
		Description:  l.Description,
		Position:     l.Order,
		VideoURL:     null.NewString(l.VideoURL, l.VideoURL != ""),
		ThumbnailURL: null.NewString(l.ThumbnailURL, l.ThumbnailURL != ""),
		ChatbotID:    null.NewString(l.ChatbotID, l.ChatbotID != ""),
		UnlockCode:   l.UnlockCode,
	}
}

func (r lessonRow) lesson() curriculum.Lesson {
	return curriculum.Lesson{
		ID:           r.ID,
		ModuleID:     r.ModuleID,
		Title:        r.Title,
		Description:  r.Description,
		Order:        r.Position,
		VideoURL:     r.VideoURL.String,
		ThumbnailURL: r.ThumbnailURL.String,
		ChatbotID:    r.ChatbotID.String,
		UnlockCode:   r.UnlockCode,
	}
}

func pqErrCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

type curriculumRepository struct {
	db core.DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db core.DB) curriculum.Repository {
	return &curriculumRepository{db: db}
}

// GetCurriculum reads modules and lessons in a single read-only transaction so the snapshot is consistent.
func (repo *curriculumRepository) GetCurriculum(ctx context.Context) (curriculum.Curriculum, error) {
	tx, err := repo.db.BeginTxx(ctx, &sqlReadOnly)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var mods []moduleRow
	if err = tx.SelectContext(ctx, &mods, "SELECT id, title, position FROM modules"); err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	var lessons []lessonRow
	if err = tx.SelectContext(ctx, &lessons, "SELECT "+lessonColumns+" FROM lessons"); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}

	c := make(curriculum.Curriculum, len(mods))
	for _, m := range mods {
		c[m.ID] = curriculum.Module{ID: m.ID, Title: m.Title, Order: m.Position, Lessons: map[string]curriculum.Lesson{}}
	}
	for _, lr := range lessons {
		if mod, ok := c[lr.ModuleID]; ok {
			mod.Lessons[lr.ID] = lr.lesson()
		}
	}
	return c, tx.Commit()
}

func (repo *curriculumRepository) GetModule(ctx context.Context, id string) (curriculum.Module, error) {
	var m moduleRow
	if err := repo.db.GetContext(ctx, &m, "SELECT id, title, position FROM modules WHERE id = $1", id); err != nil {
		return curriculum.Module{}, trapNoRowsErr(err, curriculum.ErrModuleNotFound, "finding module")
	}
	var lessons []lessonRow
	if err := repo.db.SelectContext(ctx, &lessons, "SELECT "+lessonColumns+" FROM lessons WHERE module_id = $1", id); err != nil {
		return curriculum.Module{}, errors.Wrap(err, "querying lessons")
	}

	mod := curriculum.Module{ID: m.ID, Title: m.Title, Order: m.Position, Lessons: make(map[string]curriculum.Lesson, len(lessons))}
	for _, lr := range lessons {
		mod.Lessons[lr.ID] = lr.lesson()
	}
	return mod, nil
}

func (repo *curriculumRepository) CreateModule(ctx context.Context, mod curriculum.Module) (curriculum.Module, error) {
	_, err := sqlx.NamedExecContext(ctx, repo.db, insertModule, moduleRow{ID: mod.ID, Title: mod.Title, Position: mod.Order})
	if err != nil {
		if pqErrCode(err) == pgUniqueViolation {
			return curriculum.Module{}, curriculum.ErrModuleExists
		}
		return curriculum.Module{}, errors.Wrap(err, "inserting module")
	}
	if mod.Lessons == nil {
		mod.Lessons = map[string]curriculum.Lesson{}
	}
	return mod, nil
}

func (repo *curriculumRepository) UpdateModule(ctx context.Context, mod curriculum.Module) (curriculum.Module, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE modules SET title = $2, position = $3, updated_at = now() WHERE id = $1",
		mod.ID, mod.Title, mod.Order)
	if err != nil {
		return curriculum.Module{}, errors.Wrap(err, "updating module")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return curriculum.Module{}, curriculum.ErrModuleNotFound
	}
	return repo.GetModule(ctx, mod.ID)
}

func (repo *curriculumRepository) DeleteModule(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM modules WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting module")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return curriculum.ErrModuleNotFound
	}
	return nil
}

func (repo *curriculumRepository) CreateLesson(ctx context.Context, l curriculum.Lesson) (curriculum.Lesson, error) {
	if _, err := sqlx.NamedExecContext(ctx, repo.db, insertLesson, toLessonRow(l)); err != nil {
		switch pqErrCode(err) {
		case pgUniqueViolation:
			return curriculum.Lesson{}, curriculum.ErrLessonExists
		case pgForeignKeyViolation:
			return curriculum.Lesson{}, curriculum.ErrModuleNotFound
		}
		return curriculum.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return l, nil
}

func (repo *curriculumRepository) UpdateLesson(ctx context.Context, l curriculum.Lesson) (curriculum.Lesson, error) {
	q := `UPDATE lessons SET title = :title, description = :description, position = :position, video_url = :video_url,
		thumbnail_url = :thumbnail_url, chatbot_id = :chatbot_id, unlock_code = :unlock_code, updated_at = now()
		WHERE id = :id AND module_id = :module_id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, toLessonRow(l))
	if err != nil {
		return curriculum.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return curriculum.Lesson{}, curriculum.ErrLessonNotFound
	}
	return l, nil
}

func (repo *curriculumRepository) DeleteLesson(ctx context.Context, moduleID, lessonID string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM lessons WHERE id = $1 AND module_id = $2", lessonID, moduleID)
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return curriculum.ErrLessonNotFound
	}
	return nil
}

func (repo *curriculumRepository) ReplaceCurriculum(ctx context.Context, c curriculum.Curriculum) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// lessons are cascaded
	if _, err = tx.ExecContext(ctx, "DELETE FROM modules"); err != nil {
		return errors.Wrap(err, "deleting modules")
	}
	for _, mod := range c {
		if _, err = sqlx.NamedExecContext(ctx, tx, insertModule, moduleRow{ID: mod.ID, Title: mod.Title, Position: mod.Order}); err != nil {
			return errors.Wrapf(err, "inserting module %q", mod.ID)
		}
		for _, l := range mod.Lessons {
			if _, err = sqlx.NamedExecContext(ctx, tx, insertLesson, toLessonRow(l)); err != nil {
				return errors.Wrapf(err, "inserting lesson %q", l.ID)
			}
		}
	}
	return errors.Wrap(tx.Commit(), "committing curriculum")
}
