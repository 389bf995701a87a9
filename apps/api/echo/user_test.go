package echoapi_test

import (
	"net/http"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/mentora/apps/api/echo"
	"github.com/trezcool/mentora/core/user"
	testutil "github.com/trezcool/mentora/tests"
)

const testPwd = "Lessons@2024!"

func parseClaims(t *testing.T, token string) *echoapi.Claims {
	claims := new(echoapi.Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(conf.SecretKey), nil
	})
	require.NoError(t, err)
	return claims
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	learner := testutil.CreateUser(t, app.users, "Vip", "", "vip@test.cd", testPwd, []string{user.RoleLearner}, true)
	testutil.CreateUser(t, app.users, "Gone", "gone", "gone@test.cd", testPwd, []string{user.RoleLearner}, false)
	admin := testutil.CreateUser(t, app.users, "Admin", "admin", "admin@test.cd", testPwd, []string{user.RoleAdmin}, true)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
	}
	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	runHttpTests(t, app, []httpTest{
		{name: "missing fields", method: http.MethodPost, path: "/v1/users/login", body: login("", ""), wantCode: http.StatusBadRequest},
		{name: "unknown user", method: http.MethodPost, path: "/v1/users/login", body: login("ghost", testPwd), wantCode: http.StatusBadRequest, wantData: authFailed},
		{name: "wrong password", method: http.MethodPost, path: "/v1/users/login", body: login("admin", "nope"), wantCode: http.StatusBadRequest, wantData: authFailed},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/users/login", body: login("gone", testPwd),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	for _, tt := range []struct {
		name    string
		uname   string
		usr     user.User
		isAdmin bool
	}{
		{name: "admin by username", uname: " ADMIN ", usr: admin, isAdmin: true},
		{name: "learner by email", uname: "Vip@Test.cd", usr: learner},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", login(tt.uname, testPwd))
			app.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp echoapi.LoginResponse
			unmarchall(t, rec.Body.Bytes(), &resp)
			claims := parseClaims(t, resp.Token)
			assert.Equal(t, tt.usr.ID, claims.Subject)
			assert.Equal(t, tt.isAdmin, claims.IsAdmin)
			assert.Equal(t, !tt.isAdmin, claims.IsLearner)

			usr, err := app.users.GetUser(testCtx, user.GetFilter{ID: tt.usr.ID})
			require.NoError(t, err)
			assert.False(t, usr.LastLogin.IsZero(), "last login is recorded")
		})
	}
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	learner := testutil.CreateUser(t, app.users, "Vip", "", "vip@test.cd", testPwd, []string{user.RoleLearner}, true)
	removed := testutil.CreateUser(t, app.users, "Removed", "", "removed@test.cd", testPwd, []string{user.RoleLearner}, true)
	removedToken := getToken(t, removed)
	_, err := app.users.DeleteUsersByID(testCtx, removed.ID)
	require.NoError(t, err)

	runHttpTests(t, app, []httpTest{
		{name: "Auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "me", path: "/v1/users/me", token: getToken(t, learner), wantCode: http.StatusOK, wantData: marchallObj(t, learner)},
		{
			name: "deleted account", path: "/v1/users/me", token: removedToken,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		},
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)
	learner := testutil.CreateUser(t, app.users, "Vip", "", "vip@test.cd", testPwd, []string{user.RoleLearner}, true)

	expired := echoapi.GetUserClaims(conf, learner, time.Now().Add(-conf.Server.JWTRefreshExpirationDelta-time.Hour).Unix())
	expiredToken, err := echoapi.GenerateToken(conf, expired)
	require.NoError(t, err)

	runHttpTests(t, app, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/users/token-refresh", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "refresh expired", method: http.MethodPost, path: "/v1/users/token-refresh", token: expiredToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	})

	origClaims := echoapi.GetUserClaims(conf, learner)
	token, err := echoapi.GenerateToken(conf, origClaims)
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp echoapi.LoginResponse
	unmarchall(t, rec.Body.Bytes(), &resp)
	claims := parseClaims(t, resp.Token)
	assert.Equal(t, learner.ID, claims.Subject)
	assert.Equal(t, origClaims.OrigIssuedAt, claims.OrigIssuedAt)
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)
	learner := testutil.CreateUser(t, app.users, "Vip", "", "vip@test.cd", testPwd, []string{user.RoleLearner}, true)
	testutil.CreateUser(t, app.users, "Gone", "", "gone@test.cd", testPwd, []string{user.RoleLearner}, false)

	reset := func(email string) []byte {
		return marchallObj(t, echoapi.PasswordResetRequest{Email: email})
	}
	success := marchallObj(t, echoapi.SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	runHttpTests(t, app, []httpTest{
		{name: "invalid email", method: http.MethodPost, path: "/v1/users/password-reset", body: reset("nope"), wantCode: http.StatusBadRequest},
		{name: "unknown email", method: http.MethodPost, path: "/v1/users/password-reset", body: reset("ghost@test.cd"), wantCode: http.StatusOK, wantData: success},
		{name: "inactive user", method: http.MethodPost, path: "/v1/users/password-reset", body: reset("gone@test.cd"), wantCode: http.StatusOK, wantData: success},
	})
	assert.Empty(t, app.mailSvc.SentMessages())

	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", reset(" VIP@test.cd"))
	app.serve(req, rec)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: success}, rec)

	sent := app.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "password_reset", sent[0].TemplateName)
	match := regexp.MustCompile(`/password-reset/([\w-]+)/([\w-]+)`).FindStringSubmatch(sent[0].TextContent)
	require.Len(t, match, 3, sent[0].TextContent)
	uid, token := match[1], match[2]

	const newPwd = "Br4nd-New-Pwd"
	confirm := func(uid, token, pwd, pwdConfirm string) []byte {
		return marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: pwd, PasswordConfirm: pwdConfirm})
	}
	invalidLink := marchallObj(t, httpErr{Error: "invalid or expired password reset link"})

	runHttpTests(t, app, []httpTest{
		{
			name: "passwords mismatch", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: confirm(uid, token, newPwd, "other"), wantCode: http.StatusBadRequest,
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: confirm(uid, token, "12345678", "12345678"), wantCode: http.StatusBadRequest,
		},
		{
			name: "bad uid", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: confirm(url.QueryEscape("%%%"), token, newPwd, newPwd), wantCode: http.StatusBadRequest, wantData: invalidLink,
		},
		{
			name: "bad token", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: confirm(uid, "MQ-bad", newPwd, newPwd), wantCode: http.StatusBadRequest, wantData: invalidLink,
		},
		{
			name: "reset", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body:     confirm(uid, token, newPwd, newPwd),
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "token is single use", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: confirm(uid, token, newPwd+"2", newPwd+"2"), wantCode: http.StatusBadRequest, wantData: invalidLink,
		},
	})

	usr, err := app.users.GetUser(testCtx, user.GetFilter{ID: learner.ID})
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword(newPwd))
}

func Test_userApi_admin(t *testing.T) {
	app := setup(t)
	now := time.Now()
	owner := testutil.CreateUser(t, app.users, "Owner", "owner", "owner@test.cd", "", []string{user.RoleAdminOwner}, true, now.Add(-2*time.Hour))
	admin := testutil.CreateUser(t, app.users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true, now.Add(-time.Hour))
	learner := testutil.CreateUser(t, app.users, "Vip", "", "vip@test.cd", "", []string{user.RoleLearner}, true, now)
	adminToken := getToken(t, admin)

	newAdmin := user.NewUser{
		Name: "Second Admin", Username: "admin2", Email: "admin2@test.cd",
		Password: testPwd, PasswordConfirm: testPwd, Roles: []string{user.RoleAdmin},
	}
	newOwner := newAdmin
	newOwner.Username, newOwner.Email, newOwner.Roles = "owner2", "owner2@test.cd", []string{user.RoleAdminOwner}

	runHttpTests(t, app, []httpTest{
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, learner),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "query", path: "/v1/users?ordering=-created_at", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, learner, admin, owner)},
		{name: "query learners", path: "/v1/users?role=" + url.QueryEscape(user.RoleLearner), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, learner)},
		{name: "roles", path: "/v1/users/roles", token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
		{
			name: "cannot grant a higher role", method: http.MethodPost, path: "/v1/users/register", token: adminToken,
			body: marchallObj(t, newOwner), wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{name: "register", method: http.MethodPost, path: "/v1/users/register", token: adminToken, body: marchallObj(t, newAdmin), wantCode: http.StatusCreated},
		{
			name: "duplicate username", method: http.MethodPost, path: "/v1/users/register", token: adminToken,
			body: marchallObj(t, newAdmin), wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{name: "retrieve", path: "/v1/users/" + learner.ID, token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, learner)},
		{
			name: "learners only see themselves", path: "/v1/users/" + admin.ID, token: getToken(t, learner),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "learners cannot change their roles", method: http.MethodPut, path: "/v1/users/" + learner.ID, token: getToken(t, learner),
			body: []byte(`{"roles":["admin:"]}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "cannot delete themselves", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "cannot delete a higher role", method: http.MethodDelete, path: "/v1/users/" + owner.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	})

	req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+learner.ID, getToken(t, learner), []byte(`{"name":"  New Name "}`))
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated user.User
	unmarchall(t, rec.Body.Bytes(), &updated)
	assert.Equal(t, "New Name", updated.Name)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/users/"+learner.ID, adminToken)
	app.serve(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := app.users.GetUser(testCtx, user.GetFilter{ID: learner.ID})
	assert.Equal(t, user.ErrNotFound, err)
}
