package curriculum

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
)

var (
	// errors
	ErrModuleNotFound = errors.New("module not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrModuleExists   = errors.New("a module with this ID already exists")
	ErrLessonExists   = errors.New("a lesson with this ID already exists")
)

type (
	Repository interface {
		// GetCurriculum returns a point-in-time snapshot of the whole tree.
		GetCurriculum(ctx context.Context) (Curriculum, error)
		GetModule(ctx context.Context, id string) (Module, error)
		CreateModule(ctx context.Context, mod Module) (Module, error)
		// UpdateModule only updates the module's own fields, lessons are left untouched.
		UpdateModule(ctx context.Context, mod Module) (Module, error)
		// DeleteModule deletes the module and all its lessons.
		DeleteModule(ctx context.Context, id string) error
		// CreateLesson fails with ErrLessonExists if the ID is used in any module.
		CreateLesson(ctx context.Context, l Lesson) (Lesson, error)
		UpdateLesson(ctx context.Context, l Lesson) (Lesson, error)
		DeleteLesson(ctx context.Context, moduleID, lessonID string) error
		// ReplaceCurriculum atomically swaps the whole tree.
		ReplaceCurriculum(ctx context.Context, c Curriculum) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetCurriculum(ctx context.Context) (Curriculum, error) {
	return svc.repo.GetCurriculum(ctx)
}

func (svc *Service) Outline(ctx context.Context) ([]LessonSummary, error) {
	c, err := svc.repo.GetCurriculum(ctx)
	if err != nil {
		return nil, err
	}
	return c.Outline(), nil
}

func (svc *Service) GetModule(ctx context.Context, id string) (Module, error) {
	return svc.repo.GetModule(ctx, id)
}

func (svc *Service) CreateModule(ctx context.Context, nm NewModule) (Module, error) {
	mod, err := svc.repo.CreateModule(ctx, Module{
		ID:      nm.ID,
		Title:   nm.Title,
		Order:   nm.Order,
		Lessons: map[string]Lesson{},
	})
	if err == ErrModuleExists {
		return Module{}, core.NewValidationError(err, core.FieldError{Field: "moduleId", Error: err.Error()})
	}
	return mod, err
}

func (svc *Service) UpdateModule(ctx context.Context, id string, um UpdateModule) (Module, error) {
	return svc.repo.UpdateModule(ctx, Module{ID: id, Title: um.Title, Order: um.Order})
}

func (svc *Service) DeleteModule(ctx context.Context, id string) error {
	return svc.repo.DeleteModule(ctx, id)
}

func (svc *Service) CreateLesson(ctx context.Context, moduleID string, nl NewLesson) (Lesson, error) {
	if _, err := svc.repo.GetModule(ctx, moduleID); err != nil {
		return Lesson{}, err
	}
	l, err := svc.repo.CreateLesson(ctx, nl.lesson(nl.ID, moduleID))
	if err == ErrLessonExists {
		return Lesson{}, core.NewValidationError(err, core.FieldError{Field: "lessonId", Error: err.Error()})
	}
	return l, err
}

func (svc *Service) UpdateLesson(ctx context.Context, moduleID, lessonID string, ul UpdateLesson) (Lesson, error) {
	return svc.repo.UpdateLesson(ctx, ul.lesson(lessonID, moduleID))
}

func (svc *Service) DeleteLesson(ctx context.Context, moduleID, lessonID string) error {
	return svc.repo.DeleteLesson(ctx, moduleID, lessonID)
}

// Import validates `c` as a whole and replaces the stored curriculum with it.
// Module and lesson IDs are taken from the cleaned map keys.
func (svc *Service) Import(ctx context.Context, c Curriculum, validate *validator.Validate) error {
	out := make(Curriculum, len(c))
	seen := make(map[string]string, c.LessonCount()) // {lessonID: moduleID}

	for key, mod := range c {
		nm := NewModule{ID: key, Title: mod.Title, Order: mod.Order}
		if err := nm.Validate(validate); err != nil {
			return errors.Wrapf(err, "validating module %q", key)
		}
		if _, ok := out[nm.ID]; ok {
			return core.NewValidationError(
				errors.Errorf("module %q is defined twice", nm.ID),
				core.FieldError{Field: "moduleId", Error: ErrModuleExists.Error()},
			)
		}

		lessons := make(map[string]Lesson, len(mod.Lessons))
		for lKey, l := range mod.Lessons {
			nl := NewLesson{ID: lKey, UpdateLesson: UpdateLesson{
				Title:        l.Title,
				Description:  l.Description,
				Order:        l.Order,
				VideoURL:     l.VideoURL,
				ThumbnailURL: l.ThumbnailURL,
				ChatbotID:    l.ChatbotID,
				UnlockCode:   l.UnlockCode,
			}}
			if err := nl.Validate(validate); err != nil {
				return errors.Wrapf(err, "validating lesson %q", lKey)
			}
			if other, ok := seen[nl.ID]; ok {
				return core.NewValidationError(
					errors.Errorf("lesson %q is in both modules %q and %q", nl.ID, other, nm.ID),
					core.FieldError{Field: "lessonId", Error: ErrLessonExists.Error()},
				)
			}
			seen[nl.ID] = nm.ID
			lessons[nl.ID] = nl.lesson(nl.ID, nm.ID)
		}

		out[nm.ID] = Module{ID: nm.ID, Title: nm.Title, Order: nm.Order, Lessons: lessons}
	}
	return svc.repo.ReplaceCurriculum(ctx, out)
}
