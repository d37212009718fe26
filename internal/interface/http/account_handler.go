package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ho-ssain/HkToDoServer/internal/application"
	"github.com/ho-ssain/HkToDoServer/internal/interface/middleware"
	"github.com/ho-ssain/HkToDoServer/pkg/helpers"
	"github.com/ho-ssain/HkToDoServer/pkg/response"
	"github.com/ho-ssain/HkToDoServer/pkg/validation"
)

// AccountHandler serves registration, verification, session and profile endpoints.
type AccountHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAccountHandler(svc *application.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,pwd"`
}

type verifyRequest struct {
	OTP string `json:"otp" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

// Register POST /api/v1/register (multipart: name, email, password, avatar)
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please enter all fields", validation.ToDetails(err))
		return
	}

	in := application.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password}
	avatar, closeAvatar, err := avatarFromForm(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid avatar upload", nil)
		return
	}
	if closeAvatar != nil {
		defer closeAvatar()
	}
	in.Avatar = avatar

	u, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}

	token, exp, err := h.Svc.IssueToken(c.Request.Context(), u)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	h.Cookies.SetToken(c, token, exp)
	response.JSON(c, http.StatusCreated, "OTP sent to your email, please verify your account", u)
}

// Verify POST /api/v1/verify (auth required)
func (h *AccountHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please enter all fields", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.VerifyAccount(c.Request.Context(), uid, req.OTP)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	token, exp, err := h.Svc.IssueToken(c.Request.Context(), u)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	h.Cookies.SetToken(c, token, exp)
	response.JSON(c, http.StatusOK, "Account verified successfully", u)
}

// Login POST /api/v1/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please enter all fields", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	token, exp, err := h.Svc.IssueToken(c.Request.Context(), u)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	h.Cookies.SetToken(c, token, exp)
	response.JSON(c, http.StatusOK, "Login Successful", u)
}

// Logout GET /api/v1/logout
func (h *AccountHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.JSON(c, http.StatusOK, "Logged out successfully", nil)
}

// Me GET /api/v1/me (auth required)
func (h *AccountHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, "Welcome "+u.Name, u)
}

// UpdateProfile PUT /api/v1/updateprofile (auth required; multipart: name?, avatar?)
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)

	in := application.UpdateProfileInput{Name: c.PostForm("name")}
	avatar, closeAvatar, err := avatarFromForm(c)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid avatar upload", nil)
		return
	}
	if closeAvatar != nil {
		defer closeAvatar()
	}
	in.Avatar = avatar

	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, in)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, "Profile updated successfully", u)
}

// UpdatePassword PUT /api/v1/updatepassword (auth required)
func (h *AccountHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please enter all fields", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.UpdatePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, "Password updated successfully", nil)
}

// ForgotPassword PUT /api/v1/forgotpassword
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please enter all fields", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, "OTP sent to "+req.Email, nil)
}

// ResetPassword PUT /api/v1/resetpassword
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please enter all fields", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.OTP, req.NewPassword); err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, "Password reset successfully", nil)
}

// avatarFromForm extracts the optional avatar file part. The returned close
// function must be deferred so the part is released on every exit path.
func avatarFromForm(c *gin.Context) (*application.AvatarUpload, func(), error) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &application.AvatarUpload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: contentTypeOf(fh),
	}, func() { _ = f.Close() }, nil
}

func contentTypeOf(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func respondServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, application.ErrEmailTaken):
		response.Fail(c, http.StatusBadRequest, "User already exists!", nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Fail(c, http.StatusBadRequest, "Invalid Email or Password!", nil)
	case errors.Is(err, application.ErrInvalidOTP):
		response.Fail(c, http.StatusBadRequest, "Invalid OTP or has been Expired!", nil)
	case errors.Is(err, application.ErrInvalidPassword):
		response.Fail(c, http.StatusBadRequest, "Invalid Password!", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, application.ErrTaskNotFound):
		response.Fail(c, http.StatusNotFound, "Task not found", nil)
	case errors.Is(err, application.ErrMailUnavailable):
		response.Fail(c, http.StatusBadGateway, "Failed to send email, please try again later", nil)
	default:
		if logger != nil {
			logger.WithError(err).Error("request failed")
		}
		response.Fail(c, http.StatusInternalServerError, "Something went wrong", nil)
	}
}
