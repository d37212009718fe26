package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ho-ssain/HkToDoServer/internal/domain/entity"
	repo "github.com/ho-ssain/HkToDoServer/internal/domain/repository"
	"github.com/ho-ssain/HkToDoServer/pkg/helpers"
	"github.com/ho-ssain/HkToDoServer/pkg/mailer/templates"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrMailUnavailable    = errors.New("mail delivery unavailable")
)

// Mailer delivers a transactional email. Implementations send inline via
// Mailgun or enqueue a job for the email worker.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Service implements the account and task operations behind the HTTP handlers.
type Service struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	Mailer       Mailer
	GCS          *storage.Client
	GCSBucket    string
	GCSFolder    string
	OTPExpire    time.Duration
	ResetExpire  time.Duration
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
}

// AvatarUpload is the incoming avatar file, already scoped to the request.
// The caller owns closing the reader on every exit path.
type AvatarUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Avatar   *AvatarUpload
}

// Register creates an unverified account, uploads the avatar, stores a fresh
// OTP with its expiry and emails the code. A duplicate email fails with
// ErrEmailTaken; the unique index backstops the pre-check under races.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if existing, err := s.Repo.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	code, err := helpers.GenOTPCode()
	if err != nil {
		return nil, err
	}

	var avatar entity.Avatar
	if in.Avatar != nil {
		avatar, err = s.uploadAvatar(ctx, in.Email, in.Avatar)
		if err != nil {
			return nil, err
		}
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	expiry := time.Now().UTC().Add(s.OTPExpire)
	u := &entity.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		Avatar:    avatar,
		OTP:       &code,
		OTPExpiry: &expiry,
		Tasks:     []entity.Task{},
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	subject, text, html := templates.VerifyOTP(templates.OTPData{Name: u.Name, Code: code, ExpiresIn: s.OTPExpire})
	if err := s.sendMail(ctx, u.Email, subject, text, html); err != nil {
		// The account exists but the user cannot verify without the code.
		s.logWarn("verification mail failed", err, logrus.Fields{"email": u.Email})
		return nil, ErrMailUnavailable
	}

	s.indexUser(ctx, u)
	return u, nil
}

// VerifyAccount compares the submitted code against the stored OTP and its
// expiry, then marks the account verified and clears both OTP fields.
func (s *Service) VerifyAccount(ctx context.Context, userID, code string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if u.OTP == nil || u.OTPExpiry == nil {
		return nil, ErrInvalidOTP
	}
	if *u.OTP != code || u.OTPExpiry.Before(time.Now()) {
		return nil, ErrInvalidOTP
	}
	if err := s.Repo.MarkVerified(ctx, userID); err != nil {
		return nil, err
	}
	u.Verified = true
	u.OTP = nil
	u.OTPExpiry = nil
	return u, nil
}

// Authenticate validates email/password. Both an unknown email and a wrong
// password return ErrInvalidCredentials so accounts cannot be enumerated.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueToken signs a session token for the user and mirrors a session record
// into Redis (best effort, failures only logged).
func (s *Service) IssueToken(ctx context.Context, u *entity.User) (string, time.Time, error) {
	token, exp, err := s.JWT.GenerateToken(u.ID.Hex())
	if err != nil {
		s.logWarn("generate token failed", err, logrus.Fields{"user_id": u.ID.Hex()})
		return "", time.Time{}, err
	}
	if s.Redis != nil {
		key := sessionKey(u.ID.Hex())
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID.Hex(),
			"email":      u.Email,
			"name":       u.Name,
			"verified":   u.Verified,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
		pipe.Expire(ctx, key, time.Until(exp))
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.logWarn("redis pipeline failed", rErr, logrus.Fields{"key": key})
		}
	}
	return token, exp, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name   string
	Avatar *AvatarUpload
}

// UpdateProfile updates the name if provided and replaces the avatar if a new
// file is provided. The old remote object is deleted before the new upload so
// no orphan is left on the media host.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if in.Name != "" {
		if err := s.Repo.UpdateName(ctx, userID, in.Name); err != nil {
			return nil, err
		}
		u.Name = in.Name
	}
	if in.Avatar != nil {
		if u.Avatar.PublicID != "" && s.GCS != nil {
			if err := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, u.Avatar.PublicID); err != nil {
				return nil, err
			}
		}
		avatar, err := s.uploadAvatar(ctx, userID, in.Avatar)
		if err != nil {
			return nil, err
		}
		if err := s.Repo.UpdateAvatar(ctx, userID, avatar); err != nil {
			return nil, err
		}
		u.Avatar = avatar
	}
	s.indexUser(ctx, u)
	return u, nil
}

// UpdatePassword re-hashes and stores the new password after checking the old one.
func (s *Service) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return ErrUserNotFound
	}
	if !helpers.CompareHashAndPassword(u.Password, oldPassword) {
		return ErrInvalidPassword
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, userID, hash)
}

// AddTask appends a new task and returns it.
func (s *Service) AddTask(ctx context.Context, userID, title, description string) (*entity.Task, error) {
	t := entity.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.AddTask(ctx, userID, t); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ToggleTask flips the completed flag of the matching task.
func (s *Service) ToggleTask(ctx context.Context, userID string, taskID primitive.ObjectID) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return ErrUserNotFound
	}
	t := u.TaskByID(taskID)
	if t == nil {
		return ErrTaskNotFound
	}
	matched, err := s.Repo.SetTaskCompleted(ctx, userID, taskID, !t.Completed)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !matched {
		return ErrTaskNotFound
	}
	return nil
}

// RemoveTask deletes the matching task. An unknown id is reported as not found
// rather than silently succeeding.
func (s *Service) RemoveTask(ctx context.Context, userID string, taskID primitive.ObjectID) error {
	removed, err := s.Repo.RemoveTask(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !removed {
		return ErrTaskNotFound
	}
	return nil
}

// ForgotPassword stores a fresh reset OTP with a short expiry and emails it.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return ErrUserNotFound
	}
	code, err := helpers.GenOTPCode()
	if err != nil {
		return err
	}
	expiry := time.Now().UTC().Add(s.ResetExpire)
	if err := s.Repo.SetResetOTP(ctx, u.ID.Hex(), code, expiry); err != nil {
		return err
	}
	subject, text, html := templates.ResetOTP(templates.OTPData{Name: u.Name, Code: code, ExpiresIn: s.ResetExpire})
	if err := s.sendMail(ctx, u.Email, subject, text, html); err != nil {
		s.logWarn("reset mail failed", err, logrus.Fields{"email": u.Email})
		return ErrMailUnavailable
	}
	return nil
}

// ResetPassword looks up the user by reset code (the code is the credential
// here; the route is unauthenticated) and sets the new password, clearing
// both reset fields.
func (s *Service) ResetPassword(ctx context.Context, code, newPassword string) error {
	u, err := s.Repo.GetByResetOTP(ctx, code, time.Now().UTC())
	if err != nil || u == nil {
		return ErrInvalidOTP
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Repo.ResetPassword(ctx, u.ID.Hex(), hash)
}

func (s *Service) sendMail(ctx context.Context, to, subject, text, html string) error {
	if s.Mailer == nil {
		return errors.New("mailer not configured")
	}
	return s.Mailer.Send(ctx, to, subject, text, html)
}

func (s *Service) uploadAvatar(ctx context.Context, owner string, a *AvatarUpload) (entity.Avatar, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return entity.Avatar{}, errors.New("media storage not configured")
	}
	ext := strings.ToLower(filepath.Ext(a.Filename))
	objectPath := filepath.ToSlash(filepath.Join(s.GCSFolder, owner, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, a.ContentType, a.Reader)
	if err != nil {
		return entity.Avatar{}, err
	}
	return entity.Avatar{PublicID: objectPath, URL: url}, nil
}

// indexUser mirrors the public profile into Elasticsearch. Optional and
// best effort; failures are logged and swallowed.
func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID.Hex(),
		"email":      u.Email,
		"name":       u.Name,
		"avatar_url": u.Avatar.URL,
		"verified":   u.Verified,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID.Hex(), Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.logWarn("es index failed", err, logrus.Fields{"user_id": u.ID.Hex()})
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.logWarn("es index response error", nil, logrus.Fields{"status": res.Status(), "user_id": u.ID.Hex()})
	}
}

func (s *Service) logWarn(msg string, err error, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	e := s.Logger.WithFields(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Warn(msg)
}
