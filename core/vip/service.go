// Package vip provisions and manages the learners (VIPs) of the mentorship program.
package vip

import (
	"context"
	"net/mail"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/progress"
	"github.com/trezcool/mentora/core/user"
)

const tempPasswordLen = 12

var errEmptyCurriculum = errors.New("the curriculum has no lessons yet, add one before provisioning learners")

type (
	// NewVip contains information needed to provision a learner.
	NewVip struct {
		Name  string `json:"name" validate:"required,max=200"`
		Email string `json:"email" validate:"required,email"`
	}

	// Provisioned is the result of a provisioning; the temporary password is never stored in clear.
	Provisioned struct {
		User         user.User         `json:"user"`
		Progress     progress.Progress `json:"progress"`
		TempPassword string            `json:"tempPassword"`
	}

	// Vip is a learner along with their progress.
	Vip struct {
		user.User
		Progress           *progress.Progress `json:"progress"`
		CurrentLessonTitle string             `json:"currentLessonTitle"`
	}

	// MessageRemover deletes all inbox threads of learners.
	MessageRemover interface {
		DeleteLearnerMessages(ctx context.Context, learnerIDs ...string) error
	}

	Service struct {
		users      user.Repository
		progress   progress.Repository
		curriculum progress.CurriculumReader
		messages   MessageRemover
		mailSvc    core.EmailService
	}
)

func (nv *NewVip) Validate(validate *validator.Validate) error {
	nv.Name = core.CleanString(nv.Name)
	nv.Email = core.CleanString(nv.Email, true /* lower */)
	return validate.Struct(nv)
}

func NewService(
	users user.Repository,
	prgRepo progress.Repository,
	curriculum progress.CurriculumReader,
	messages MessageRemover,
	mailSvc core.EmailService,
) *Service {
	return &Service{
		users:      users,
		progress:   prgRepo,
		curriculum: curriculum,
		messages:   messages,
		mailSvc:    mailSvc,
	}
}

// Provision creates a learner account with a temporary password, starts their progress at the
// first lesson of the curriculum and emails them their credentials.
func (svc *Service) Provision(ctx context.Context, nv NewVip) (Provisioned, error) {
	if err := svc.users.CheckUsernameUniqueness(ctx, "", nv.Email); err != nil {
		if err == user.ErrEmailExists {
			return Provisioned{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return Provisioned{}, errors.Wrap(err, "checking email uniqueness")
	}

	c, err := svc.curriculum.GetCurriculum(ctx)
	if err != nil {
		return Provisioned{}, errors.Wrap(err, "getting curriculum")
	}
	firstID, ok := c.FirstLessonID()
	if !ok {
		return Provisioned{}, core.NewValidationError(errEmptyCurriculum)
	}

	now := time.Now().UTC()
	usr := user.User{
		Name:      nv.Name,
		Email:     nv.Email,
		IsActive:  true,
		Roles:     []string{user.RoleLearner},
		CreatedAt: now,
		UpdatedAt: now,
	}
	tmpPwd := core.TempPassword(tempPasswordLen)
	if err = usr.SetPassword(tmpPwd); err != nil {
		return Provisioned{}, errors.Wrap(err, "setting password")
	}
	if usr, err = svc.users.CreateUser(ctx, usr); err != nil {
		return Provisioned{}, errors.Wrap(err, "creating user")
	}

	prg, err := svc.progress.CreateProgress(ctx, progress.New(usr.ID, firstID))
	if err != nil {
		// do not leave a learner without progress behind
		if _, dErr := svc.users.DeleteUsersByID(ctx, usr.ID); dErr != nil {
			return Provisioned{}, errors.Wrapf(err, "creating progress (rollback failed: %v)", dErr)
		}
		return Provisioned{}, errors.Wrap(err, "creating progress")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to the mentorship program",
		TemplateName: "welcome",
		TemplateData: struct {
			Name         string
			Email        string
			TempPassword string
			FirstLesson  string
		}{usr.Name, usr.Email, tmpPwd, c.LessonTitle(firstID)},
	})

	return Provisioned{User: usr, Progress: prg, TempPassword: tmpPwd}, nil
}

// List returns all learners with their progress, newest first.
func (svc *Service) List(ctx context.Context) ([]Vip, error) {
	learners, err := svc.users.QueryUsers(ctx, &user.QueryFilter{Roles: []string{user.RoleLearner}}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying learners")
	}
	ids := make([]string, 0, len(learners))
	for _, l := range learners {
		ids = append(ids, l.ID)
	}
	progresses, err := svc.progress.QueryProgress(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	c, err := svc.curriculum.GetCurriculum(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting curriculum")
	}

	vips := make([]Vip, 0, len(learners))
	for _, l := range learners {
		v := Vip{User: l}
		if prg, ok := progresses[l.ID]; ok {
			prg := prg
			v.Progress = &prg
			v.CurrentLessonTitle = c.LessonTitle(prg.CurrentLessonID)
		}
		vips = append(vips, v)
	}
	sort.SliceStable(vips, func(i, j int) bool { return vips[i].CreatedAt.After(vips[j].CreatedAt) })
	return vips, nil
}

// Remove deletes a learner along with their progress and inbox threads.
func (svc *Service) Remove(ctx context.Context, id string) error {
	usr, err := svc.users.GetUser(ctx, user.GetFilter{ID: id})
	if err != nil {
		return err
	}
	if !usr.IsLearner() {
		return user.ErrNotFound
	}
	if err = svc.messages.DeleteLearnerMessages(ctx, id); err != nil {
		return errors.Wrap(err, "deleting messages")
	}
	if err = svc.progress.DeleteProgress(ctx, id); err != nil {
		return errors.Wrap(err, "deleting progress")
	}
	if _, err = svc.users.DeleteUsersByID(ctx, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return nil
}
