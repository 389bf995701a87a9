package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mentora/core/curriculum"
	"github.com/trezcool/mentora/core/user"
	testutil "github.com/trezcool/mentora/tests"
)

func Test_curriculumApi_outline(t *testing.T) {
	app := setup(t)
	c := testutil.SampleCurriculum()
	testutil.SeedCurriculum(t, app.curRepo, c)
	learner, _ := testutil.CreateLearner(t, app.users, app.prgRepo, "Vip", "vip@test.cd", "", "welcome")
	admin := testutil.CreateUser(t, app.users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	runHttpTests(t, app, []httpTest{
		{name: "Auth required", path: "/v1/curriculum/outline", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "learner", path: "/v1/curriculum/outline", token: getToken(t, learner), wantCode: http.StatusOK, wantData: marchallObj(t, c.Outline())},
		{
			name: "full tree is for admins", path: "/v1/curriculum", token: getToken(t, learner), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "full tree", path: "/v1/curriculum", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, c)},
	})

	// unlock codes are never sent to learners
	req, rec := newAuthRequest(http.MethodGet, "/v1/curriculum/outline", getToken(t, learner))
	app.serve(req, rec)
	assert.NotContains(t, rec.Body.String(), "ALPHA")
	assert.NotContains(t, rec.Body.String(), "unlockCode")
}

func Test_curriculumApi_authoring(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	learner, _ := testutil.CreateLearner(t, app.users, app.prgRepo, "Vip", "vip@test.cd", "", "welcome")
	token := getToken(t, admin)

	intro := curriculum.Module{ID: "intro", Title: "Introduction", Order: 1, Lessons: map[string]curriculum.Lesson{}}
	welcome := curriculum.Lesson{ID: "welcome", ModuleID: "intro", Title: "Welcome", Order: 1, UnlockCode: "HELLO"}
	renamed := welcome
	renamed.Title = "Hello there"
	renamed.VideoURL = "https://videos.test/welcome.mp4"

	runHttpTests(t, app, []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/curriculum/modules", token: getToken(t, learner),
			body: marchallObj(t, curriculum.NewModule{ID: "intro", Title: "Introduction", Order: 1}), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "invalid module", method: http.MethodPost, path: "/v1/curriculum/modules", token: token,
			body: marchallObj(t, curriculum.NewModule{ID: "not a slug", Order: -1}), wantCode: http.StatusBadRequest,
		},
		{
			name: "create module", method: http.MethodPost, path: "/v1/curriculum/modules", token: token,
			body:     marchallObj(t, curriculum.NewModule{ID: " intro ", Title: "Introduction", Order: 1}),
			wantCode: http.StatusCreated, wantData: marchallObj(t, intro),
		},
		{
			name: "duplicate module", method: http.MethodPost, path: "/v1/curriculum/modules", token: token,
			body:     marchallObj(t, curriculum.NewModule{ID: "intro", Title: "Again", Order: 2}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"moduleId": curriculum.ErrModuleExists.Error()}),
		},
		{
			name: "create lesson in unknown module", method: http.MethodPost, path: "/v1/curriculum/modules/ghost/lessons", token: token,
			body:     marchallObj(t, curriculum.NewLesson{ID: "welcome", UpdateLesson: curriculum.UpdateLesson{Title: "Welcome", Order: 1, UnlockCode: "HELLO"}}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "create lesson", method: http.MethodPost, path: "/v1/curriculum/modules/intro/lessons", token: token,
			body:     marchallObj(t, curriculum.NewLesson{ID: "welcome", UpdateLesson: curriculum.UpdateLesson{Title: "Welcome", Order: 1, UnlockCode: "HELLO"}}),
			wantCode: http.StatusCreated, wantData: marchallObj(t, welcome),
		},
		{
			name: "lesson without code", method: http.MethodPost, path: "/v1/curriculum/modules/intro/lessons", token: token,
			body:     marchallObj(t, curriculum.NewLesson{ID: "setup", UpdateLesson: curriculum.UpdateLesson{Title: "Setup", Order: 2}}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "update lesson", method: http.MethodPut, path: "/v1/curriculum/modules/intro/lessons/welcome", token: token,
			body:     marchallObj(t, curriculum.UpdateLesson{Title: "Hello there", Order: 1, VideoURL: renamed.VideoURL, UnlockCode: "HELLO"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, renamed),
		},
		{
			name: "update unknown lesson", method: http.MethodPut, path: "/v1/curriculum/modules/intro/lessons/ghost", token: token,
			body:     marchallObj(t, curriculum.UpdateLesson{Title: "Ghost", Order: 1, UnlockCode: "BOO"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "update module", method: http.MethodPut, path: "/v1/curriculum/modules/intro", token: token,
			body:     marchallObj(t, curriculum.UpdateModule{Title: "Getting started", Order: 3}),
			wantCode: http.StatusOK,
		},
	})

	c, err := app.curRepo.GetCurriculum(testCtx)
	require.NoError(t, err)
	require.Contains(t, c, "intro")
	assert.Equal(t, "Getting started", c["intro"].Title)
	assert.Equal(t, 3, c["intro"].Order)
	assert.Equal(t, renamed, c["intro"].Lessons["welcome"], "updating a module keeps its lessons")

	runHttpTests(t, app, []httpTest{
		{name: "delete lesson", method: http.MethodDelete, path: "/v1/curriculum/modules/intro/lessons/welcome", token: token, wantCode: http.StatusNoContent},
		{
			name: "delete lesson again", method: http.MethodDelete, path: "/v1/curriculum/modules/intro/lessons/welcome", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "delete module", method: http.MethodDelete, path: "/v1/curriculum/modules/intro", token: token, wantCode: http.StatusNoContent},
		{name: "empty tree", path: "/v1/curriculum", token: token, wantCode: http.StatusOK, wantData: []byte(`{}`)},
	})
}
