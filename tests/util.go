// Package testutil provides fixtures shared by the test suites.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/curriculum"
	"github.com/trezcool/mentora/core/progress"
	"github.com/trezcool/mentora/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateLearner creates an active learner along with their initial progress at `firstLessonID`.
func CreateLearner(
	t *testing.T,
	users user.Repository,
	prgRepo progress.Repository,
	name, email, pwd, firstLessonID string,
	createdAt ...time.Time,
) (user.User, progress.Progress) {
	t.Helper()

	usr := CreateUser(t, users, name, "", email, pwd, []string{user.RoleLearner}, true, createdAt...)
	prg, err := prgRepo.CreateProgress(context.Background(), progress.New(usr.ID, firstLessonID))
	if err != nil {
		t.Fatalf("createProgress() failed: %v", err)
	}
	return usr, prg
}

// NewValidator returns a validator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()

	core.InitValidators(validate, translator)
	curriculum.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// SampleCurriculum returns a two-module curriculum: module_01 is listed first but ordered second.
//
//	intro (order 1): welcome (1, "HELLO"), setup (2, "SETUP")
//	module_01 (order 2): lesson_01 (1, "ALPHA"), lesson_02 (2, "BETA")
func SampleCurriculum() curriculum.Curriculum {
	return curriculum.Curriculum{
		"module_01": {
			ID:    "module_01",
			Title: "Foundations",
			Order: 2,
			Lessons: map[string]curriculum.Lesson{
				"lesson_01": {ID: "lesson_01", ModuleID: "module_01", Title: "Mindset", Order: 1, UnlockCode: "ALPHA"},
				"lesson_02": {ID: "lesson_02", ModuleID: "module_01", Title: "Habits", Order: 2, UnlockCode: "BETA"},
			},
		},
		"intro": {
			ID:    "intro",
			Title: "Introduction",
			Order: 1,
			Lessons: map[string]curriculum.Lesson{
				"welcome": {ID: "welcome", ModuleID: "intro", Title: "Welcome", Order: 1, UnlockCode: "HELLO"},
				"setup":   {ID: "setup", ModuleID: "intro", Title: "Setup", Order: 2, UnlockCode: "SETUP"},
			},
		},
	}
}

// SeedCurriculum replaces the stored curriculum with `c`.
func SeedCurriculum(t *testing.T, repo curriculum.Repository, c curriculum.Curriculum) {
	t.Helper()
	if err := repo.ReplaceCurriculum(context.Background(), c); err != nil {
		t.Fatalf("seedCurriculum() failed: %v", err)
	}
}
