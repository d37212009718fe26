package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ho-ssain/HkToDoServer/internal/application"
	"github.com/ho-ssain/HkToDoServer/internal/domain/repository/repotest"
	"github.com/ho-ssain/HkToDoServer/internal/interface/middleware"
	"github.com/ho-ssain/HkToDoServer/pkg/helpers"
	"github.com/ho-ssain/HkToDoServer/pkg/validation"
)

type nopMailer struct{}

func (nopMailer) Send(_ context.Context, _, _, _, _ string) error { return nil }

// newTestEnv wires the handlers onto a bare engine with the same routes the
// router modules register, minus the redis rate limiters.
func newTestEnv(t *testing.T) (*gin.Engine, *repotest.InMemory) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	repo := repotest.NewInMemory()
	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	svc := &application.Service{
		Repo:        repo,
		JWT:         jwt,
		Mailer:      nopMailer{},
		OTPExpire:   5 * time.Minute,
		ResetExpire: 10 * time.Minute,
	}
	acct := NewAccountHandler(svc, nil, "", false)
	tasks := NewTaskHandler(svc, nil)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/register", acct.Register)
	api.POST("/login", acct.Login)
	api.GET("/logout", acct.Logout)
	api.PUT("/forgotpassword", acct.ForgotPassword)
	api.PUT("/resetpassword", acct.ResetPassword)

	auth := api.Group("", middleware.Auth(jwt))
	auth.POST("/verify", acct.Verify)
	auth.GET("/me", acct.Me)
	auth.PUT("/updateprofile", acct.UpdateProfile)
	auth.PUT("/updatepassword", acct.UpdatePassword)
	auth.POST("/newtask", tasks.Add)
	auth.GET("/task/:taskid", tasks.Toggle)
	auth.DELETE("/task/:taskid", tasks.Remove)

	return r, repo
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, cookies []*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func doRegister(t *testing.T, r *gin.Engine, name, email, password string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.WriteField("email", email))
	require.NoError(t, mw.WriteField("password", password))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func tokenCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == helpers.TokenCookieName {
			return c
		}
	}
	t.Fatal("token cookie not set")
	return nil
}

func TestRegisterAndVerifyFlow(t *testing.T) {
	r, repo := newTestEnv(t)

	w, env := doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)
	require.Equal(t, "OTP sent to your email, please verify your account", env.Message)
	cookie := tokenCookie(t, w)
	require.True(t, cookie.HttpOnly)
	require.NotEmpty(t, cookie.Value)

	stored, err := repo.GetByEmail(context.Background(), "hasan@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.OTP)

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/verify", gin.H{"otp": *stored.OTP}, []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Account verified successfully", env.Message)

	var user struct {
		Verified bool `json:"verified"`
	}
	require.NoError(t, json.Unmarshal(env.User, &user))
	require.True(t, user.Verified)
}

func TestRegisterMissingFields(t *testing.T) {
	r, _ := newTestEnv(t)

	w, env := doRegister(t, r, "Hasan", "", "secret-pass")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, env.Success)
	require.Equal(t, "Please enter all fields", env.Message)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, _ := newTestEnv(t)

	w, _ := doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doRegister(t, r, "Other", "hasan@example.com", "another-pass")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "User already exists!", env.Message)
}

func TestLogin(t *testing.T) {
	r, _ := newTestEnv(t)
	doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/login", gin.H{"email": "hasan@example.com", "password": "secret-pass"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Login Successful", env.Message)
	cookie := tokenCookie(t, w)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/me", nil, []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Welcome Hasan", env.Message)
}

func TestLoginBadCredentials(t *testing.T) {
	r, _ := newTestEnv(t)
	doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")

	// Wrong password and unknown email must be indistinguishable.
	w1, env1 := doJSON(t, r, http.MethodPost, "/api/v1/login", gin.H{"email": "hasan@example.com", "password": "bad-pass"}, nil)
	w2, env2 := doJSON(t, r, http.MethodPost, "/api/v1/login", gin.H{"email": "nobody@example.com", "password": "secret-pass"}, nil)
	require.Equal(t, http.StatusBadRequest, w1.Code)
	require.Equal(t, w1.Code, w2.Code)
	require.Equal(t, "Invalid Email or Password!", env1.Message)
	require.Equal(t, env1.Message, env2.Message)
}

func TestLoginMissingFields(t *testing.T) {
	r, _ := newTestEnv(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/login", gin.H{"email": "hasan@example.com"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Please enter all fields", env.Message)
}

func TestLogoutClearsCookie(t *testing.T) {
	r, _ := newTestEnv(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/logout", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Logged out successfully", env.Message)

	cookie := tokenCookie(t, w)
	require.Empty(t, cookie.Value)
	require.Negative(t, cookie.MaxAge)
}

func TestAuthRequired(t *testing.T) {
	r, _ := newTestEnv(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, env.Success)

	bad := &http.Cookie{Name: helpers.TokenCookieName, Value: "not-a-token"}
	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/me", nil, []*http.Cookie{bad})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdatePassword(t *testing.T) {
	r, _ := newTestEnv(t)
	w, _ := doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")
	cookie := tokenCookie(t, w)

	w, env := doJSON(t, r, http.MethodPut, "/api/v1/updatepassword",
		gin.H{"oldPassword": "wrong-old", "newPassword": "brand-new-pass"}, []*http.Cookie{cookie})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid Password!", env.Message)

	w, env = doJSON(t, r, http.MethodPut, "/api/v1/updatepassword",
		gin.H{"oldPassword": "secret-pass", "newPassword": "brand-new-pass"}, []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Password updated successfully", env.Message)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/login", gin.H{"email": "hasan@example.com", "password": "brand-new-pass"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProfileName(t *testing.T) {
	r, _ := newTestEnv(t)
	w, _ := doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")
	cookie := tokenCookie(t, w)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Hasan Updated"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/updateprofile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Profile updated successfully", env.Message)

	_, env = doJSON(t, r, http.MethodGet, "/api/v1/me", nil, []*http.Cookie{cookie})
	require.Equal(t, "Welcome Hasan Updated", env.Message)
}

func TestResetPasswordFlow(t *testing.T) {
	r, repo := newTestEnv(t)
	doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")

	w, env := doJSON(t, r, http.MethodPut, "/api/v1/forgotpassword", gin.H{"email": "hasan@example.com"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OTP sent to hasan@example.com", env.Message)

	stored, err := repo.GetByEmail(context.Background(), "hasan@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetOTP)

	w, env = doJSON(t, r, http.MethodPut, "/api/v1/resetpassword",
		gin.H{"otp": *stored.ResetOTP, "newPassword": "brand-new-pass"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Password reset successfully", env.Message)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/login", gin.H{"email": "hasan@example.com", "password": "brand-new-pass"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	r, _ := newTestEnv(t)

	w, env := doJSON(t, r, http.MethodPut, "/api/v1/forgotpassword", gin.H{"email": "nobody@example.com"}, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "User not found", env.Message)
}

func TestResetPasswordBadCode(t *testing.T) {
	r, _ := newTestEnv(t)
	doRegister(t, r, "Hasan", "hasan@example.com", "secret-pass")

	w, env := doJSON(t, r, http.MethodPut, "/api/v1/resetpassword",
		gin.H{"otp": "123456", "newPassword": "brand-new-pass"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid OTP or has been Expired!", env.Message)
}
