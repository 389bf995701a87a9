package dummydb

import (
	"context"

	"github.com/trezcool/mentora/core/curriculum"
)

type curriculumRepository struct {
	db *curriculumTable
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *DB) curriculum.Repository {
	return &curriculumRepository{db: db.curriculum}
}

func copyModule(mod curriculum.Module) curriculum.Module {
	lessons := make(map[string]curriculum.Lesson, len(mod.Lessons))
	for id, l := range mod.Lessons {
		lessons[id] = l
	}
	mod.Lessons = lessons
	return mod
}

func (repo *curriculumRepository) GetCurriculum(_ context.Context) (curriculum.Curriculum, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	c := make(curriculum.Curriculum, len(repo.db.table))
	for id, mod := range repo.db.table {
		c[id] = copyModule(mod)
	}
	return c, nil
}

func (repo *curriculumRepository) GetModule(_ context.Context, id string) (curriculum.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	mod, ok := repo.db.table[id]
	if !ok {
		return curriculum.Module{}, curriculum.ErrModuleNotFound
	}
	return copyModule(mod), nil
}

func (repo *curriculumRepository) CreateModule(_ context.Context, mod curriculum.Module) (curriculum.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[mod.ID]; ok {
		return curriculum.Module{}, curriculum.ErrModuleExists
	}
	mod = copyModule(mod)
	repo.db.table[mod.ID] = mod
	return copyModule(mod), nil
}

func (repo *curriculumRepository) UpdateModule(_ context.Context, mod curriculum.Module) (curriculum.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[mod.ID]
	if !ok {
		return curriculum.Module{}, curriculum.ErrModuleNotFound
	}
	orig.Title = mod.Title
	orig.Order = mod.Order
	repo.db.table[mod.ID] = orig
	return copyModule(orig), nil
}

func (repo *curriculumRepository) DeleteModule(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return curriculum.ErrModuleNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *curriculumRepository) CreateLesson(_ context.Context, l curriculum.Lesson) (curriculum.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mod, ok := repo.db.table[l.ModuleID]
	if !ok {
		return curriculum.Lesson{}, curriculum.ErrModuleNotFound
	}
	if _, exists := repo.db.table.Lesson(l.ID); exists {
		return curriculum.Lesson{}, curriculum.ErrLessonExists
	}
	if mod.Lessons == nil {
		mod.Lessons = make(map[string]curriculum.Lesson)
		repo.db.table[mod.ID] = mod
	}
	mod.Lessons[l.ID] = l
	return l, nil
}

func (repo *curriculumRepository) UpdateLesson(_ context.Context, l curriculum.Lesson) (curriculum.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mod, ok := repo.db.table[l.ModuleID]
	if !ok {
		return curriculum.Lesson{}, curriculum.ErrModuleNotFound
	}
	if _, ok = mod.Lessons[l.ID]; !ok {
		return curriculum.Lesson{}, curriculum.ErrLessonNotFound
	}
	mod.Lessons[l.ID] = l
	return l, nil
}

func (repo *curriculumRepository) DeleteLesson(_ context.Context, moduleID, lessonID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	mod, ok := repo.db.table[moduleID]
	if !ok {
		return curriculum.ErrModuleNotFound
	}
	if _, ok = mod.Lessons[lessonID]; !ok {
		return curriculum.ErrLessonNotFound
	}
	delete(mod.Lessons, lessonID)
	return nil
}

func (repo *curriculumRepository) ReplaceCurriculum(_ context.Context, c curriculum.Curriculum) error {
	table := make(curriculum.Curriculum, len(c))
	for id, mod := range c {
		table[id] = copyModule(mod)
	}

	repo.db.Lock()
	repo.db.table = table
	repo.db.Unlock()
	return nil
}
