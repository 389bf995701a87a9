package curriculum

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mentora/core"
)

const unknownLessonTitle = "Unknown Lesson"

type (
	Lesson struct {
		ID           string `json:"id" yaml:"-"`
		ModuleID     string `json:"moduleId" yaml:"-"`
		Title        string `json:"title" yaml:"title"`
		Description  string `json:"description" yaml:"description,omitempty"`
		Order        int    `json:"order" yaml:"order"`
		VideoURL     string `json:"videoUrl" yaml:"videoUrl,omitempty"`
		ThumbnailURL string `json:"thumbnailUrl" yaml:"thumbnailUrl,omitempty"`
		ChatbotID    string `json:"chatbotId" yaml:"chatbotId,omitempty"`
		UnlockCode   string `json:"unlockCode" yaml:"unlockCode"`
	}

	Module struct {
		ID      string            `json:"id" yaml:"-"`
		Title   string            `json:"title" yaml:"title"`
		Order   int               `json:"order" yaml:"order"`
		Lessons map[string]Lesson `json:"lessons" yaml:"lessons,omitempty"`
	}

	// Curriculum is the full authored tree, keyed by module ID.
	Curriculum map[string]Module

	// LessonSummary is the learner-facing view of a lesson: no unlock code.
	LessonSummary struct {
		ID           string `json:"id"`
		ModuleID     string `json:"moduleId"`
		ModuleTitle  string `json:"moduleTitle"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		VideoURL     string `json:"videoUrl"`
		ThumbnailURL string `json:"thumbnailUrl"`
		ChatbotID    string `json:"chatbotId"`
		Position     int    `json:"position"` // 0-based index in the flattened order
	}
)

// Lesson looks up a lesson by ID in any module.
func (c Curriculum) Lesson(id string) (Lesson, bool) {
	for _, mod := range c {
		if l, ok := mod.Lessons[id]; ok {
			return l, true
		}
	}
	return Lesson{}, false
}

// LessonTitle returns the title of the lesson or a placeholder if it does not exist anymore.
func (c Curriculum) LessonTitle(id string) string {
	if l, ok := c.Lesson(id); ok {
		return l.Title
	}
	return unknownLessonTitle
}

func (c Curriculum) LessonCount() int {
	var n int
	for _, mod := range c {
		n += len(mod.Lessons)
	}
	return n
}

// FirstLessonID returns the first lesson of the flattened order.
func (c Curriculum) FirstLessonID() (string, bool) {
	order := BuildOrder(c)
	if len(order) == 0 {
		return "", false
	}
	return order[0], true
}

// Outline returns every lesson in flattened order, without unlock codes.
func (c Curriculum) Outline() []LessonSummary {
	order := BuildOrder(c)
	outline := make([]LessonSummary, 0, len(order))
	for pos, id := range order {
		l, _ := c.Lesson(id)
		outline = append(outline, LessonSummary{
			ID:           l.ID,
			ModuleID:     l.ModuleID,
			ModuleTitle:  c[l.ModuleID].Title,
			Title:        l.Title,
			Description:  l.Description,
			VideoURL:     l.VideoURL,
			ThumbnailURL: l.ThumbnailURL,
			ChatbotID:    l.ChatbotID,
			Position:     pos,
		})
	}
	return outline
}

// NewModule contains information needed to create a new Module.
type NewModule struct {
	ID    string `json:"moduleId" validate:"required,slug,max=64"`
	Title string `json:"title" validate:"required,max=200"`
	Order int    `json:"order" validate:"gte=0"`
}

func (nm *NewModule) Validate(validate *validator.Validate) error {
	nm.ID = core.CleanString(nm.ID)
	nm.Title = core.CleanString(nm.Title)
	return validate.Struct(nm)
}

// UpdateModule defines what information may be provided to modify an existing Module.
// Lessons are kept as they are.
type UpdateModule struct {
	Title string `json:"title" validate:"required,max=200"`
	Order int    `json:"order" validate:"gte=0"`
}

func (um *UpdateModule) Validate(validate *validator.Validate) error {
	um.Title = core.CleanString(um.Title)
	return validate.Struct(um)
}

// UpdateLesson replaces every editable field of an existing Lesson.
type UpdateLesson struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description"`
	Order        int    `json:"order" validate:"gte=0"`
	VideoURL     string `json:"videoUrl" validate:"omitempty,url"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,url"`
	ChatbotID    string `json:"chatbotId"`
	UnlockCode   string `json:"unlockCode" validate:"required,max=100"`
}

func (ul *UpdateLesson) clean() {
	ul.Title = core.CleanString(ul.Title)
	ul.Description = core.CleanString(ul.Description)
	ul.VideoURL = core.CleanString(ul.VideoURL)
	ul.ThumbnailURL = core.CleanString(ul.ThumbnailURL)
	ul.ChatbotID = core.CleanString(ul.ChatbotID)
	ul.UnlockCode = core.CleanString(ul.UnlockCode)
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	ul.clean()
	return validate.Struct(ul)
}

func (ul UpdateLesson) lesson(id, moduleID string) Lesson {
	return Lesson{
		ID:           id,
		ModuleID:     moduleID,
		Title:        ul.Title,
		Description:  ul.Description,
		Order:        ul.Order,
		VideoURL:     ul.VideoURL,
		ThumbnailURL: ul.ThumbnailURL,
		ChatbotID:    ul.ChatbotID,
		UnlockCode:   ul.UnlockCode,
	}
}

// NewLesson contains information needed to create a new Lesson.
type NewLesson struct {
	ID string `json:"lessonId" validate:"required,slug,max=64"`
	UpdateLesson
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.ID = core.CleanString(nl.ID)
	nl.clean()
	return validate.Struct(nl)
}
