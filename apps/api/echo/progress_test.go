package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/mentora/apps/api/echo"
	"github.com/trezcool/mentora/core/progress"
	"github.com/trezcool/mentora/core/user"
	testutil "github.com/trezcool/mentora/tests"
)

func unlockBody(t *testing.T, lessonID, code string) []byte {
	return marchallObj(t, progress.UnlockRequest{CurrentLessonID: lessonID, SubmittedCode: code})
}

func unlockErr(t *testing.T, kind progress.Kind, msg string) []byte {
	return marchallObj(t, echoapi.UnlockErrorResponse{ErrorKind: kind, Message: msg})
}

func unlockOK(t *testing.T, next, msg string) []byte {
	out := progress.Outcome{Message: msg}
	if next != "" {
		out.Advanced = true
		out.NextLessonID = &next
	}
	return marchallObj(t, echoapi.UnlockResponse{Success: true, Outcome: out})
}

func Test_progressApi_unlock(t *testing.T) {
	app := setup(t)
	testutil.SeedCurriculum(t, app.curRepo, testutil.SampleCurriculum())

	admin := testutil.CreateUser(t, app.users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	learner, _ := testutil.CreateLearner(t, app.users, app.prgRepo, "Vip", "vip@test.cd", "", "welcome")
	orphan := testutil.CreateUser(t, app.users, "Orphan", "", "orphan@test.cd", "", []string{user.RoleLearner}, true)
	inactive := testutil.CreateUser(t, app.users, "Gone", "", "gone@test.cd", "", []string{user.RoleLearner}, false)

	token := getToken(t, learner)
	path := "/v1/progress/unlock"

	tests := []httpTest{
		{
			name: "Auth required", path: path, wantCode: http.StatusUnauthorized,
			wantData: unlockErr(t, progress.Unauthenticated, "You must be signed in to unlock lessons."),
		},
		{
			name: "invalid token", path: path, token: "not-a-jwt", body: unlockBody(t, "welcome", "HELLO"),
			wantCode: http.StatusUnauthorized, wantData: unlockErr(t, progress.Unauthenticated, "You must be signed in to unlock lessons."),
		},
		{
			name: "malformed body", path: path, token: token, body: []byte(`{"currentLessonId": 5`),
			wantCode: http.StatusBadRequest, wantData: unlockErr(t, progress.InvalidArgument, "The request body is invalid."),
		},
		{
			name: "empty body", path: path, token: token,
			wantCode: http.StatusBadRequest, wantData: unlockErr(t, progress.InvalidArgument, "The request body is invalid."),
		},
		{
			name: "Learner required", path: path, token: getToken(t, admin), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Active learner required", path: path, token: getToken(t, inactive), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "missing lesson", path: path, token: token, body: unlockBody(t, " ", "HELLO"),
			wantCode: http.StatusBadRequest, wantData: unlockErr(t, progress.InvalidArgument, "The current lesson is required."),
		},
		{
			name: "missing code", path: path, token: token, body: unlockBody(t, "welcome", ""),
			wantCode: http.StatusBadRequest, wantData: unlockErr(t, progress.InvalidArgument, "The unlock code is required."),
		},
		{
			name: "unknown lesson", path: path, token: token, body: unlockBody(t, "ghost", "HELLO"),
			wantCode: http.StatusNotFound, wantData: unlockErr(t, progress.NotFound, "This lesson does not exist anymore."),
		},
		{
			name: "wrong code", path: path, token: token, body: unlockBody(t, "welcome", "nope"),
			wantCode: http.StatusBadRequest, wantData: unlockErr(t, progress.InvalidCode, "Incorrect code, please try again."),
		},
		{
			name: "correct code", path: path, token: token, body: unlockBody(t, "welcome", " hello "),
			wantCode: http.StatusOK, wantData: unlockOK(t, "setup", `Correct! "Setup" is now unlocked.`),
		},
		{
			name: "next module", path: path, token: token, body: unlockBody(t, "setup", "SETUP"),
			wantCode: http.StatusOK, wantData: unlockOK(t, "lesson_01", `Correct! "Mindset" is now unlocked.`),
		},
		{
			name: "last lesson", path: path, token: token, body: unlockBody(t, "lesson_02", "beta"),
			wantCode: http.StatusOK, wantData: unlockOK(t, "", "Congratulations, you have completed the course!"),
		},
		{
			name: "no progress record", path: path, token: getToken(t, orphan), body: unlockBody(t, "welcome", "HELLO"),
			wantCode: http.StatusNotFound, wantData: unlockErr(t, progress.NotFound, "No progress record was found for your account."),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
	}
	runHttpTests(t, app, tests)

	prg, err := app.prgRepo.GetProgress(testCtx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"welcome", "setup", "lesson_01"}, prg.UnlockedLessons)
	assert.Equal(t, "lesson_01", prg.CurrentLessonID)
}

func Test_progressApi_unlockIsIdempotent(t *testing.T) {
	app := setup(t)
	testutil.SeedCurriculum(t, app.curRepo, testutil.SampleCurriculum())
	learner, _ := testutil.CreateLearner(t, app.users, app.prgRepo, "Vip", "vip@test.cd", "", "welcome")
	token := getToken(t, learner)

	for i := 0; i < 3; i++ {
		req, rec := newAuthRequest(http.MethodPost, "/v1/progress/unlock", token, unlockBody(t, "welcome", "HELLO"))
		app.serve(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: unlockOK(t, "setup", `Correct! "Setup" is now unlocked.`),
		}, rec)
	}

	prg, err := app.prgRepo.GetProgress(testCtx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"welcome", "setup"}, prg.UnlockedLessons)
}

func Test_progressApi_me(t *testing.T) {
	app := setup(t)
	testutil.SeedCurriculum(t, app.curRepo, testutil.SampleCurriculum())
	learner, prg := testutil.CreateLearner(t, app.users, app.prgRepo, "Vip", "vip@test.cd", "", "welcome")
	orphan := testutil.CreateUser(t, app.users, "Orphan", "", "orphan@test.cd", "", []string{user.RoleLearner}, true)

	runHttpTests(t, app, []httpTest{
		{name: "Auth required", path: "/v1/progress/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "progress", path: "/v1/progress/me", token: getToken(t, learner), wantCode: http.StatusOK, wantData: marchallObj(t, prg)},
		{
			name: "no progress", path: "/v1/progress/me", token: getToken(t, orphan), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	})
}
