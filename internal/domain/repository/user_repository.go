package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ho-ssain/HkToDoServer/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no user matches the query.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a create violates email uniqueness.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the persistence operations on the user aggregate.
// Mutations are field-level updates rather than whole-document saves so
// concurrent requests against the same user cannot overwrite each other.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByResetOTP finds the user whose stored reset code matches and whose
	// expiry is after now. The code itself is the credential here.
	GetByResetOTP(ctx context.Context, code string, now time.Time) (*entity.User, error)

	UpdateName(ctx context.Context, id, name string) error
	UpdateAvatar(ctx context.Context, id string, avatar entity.Avatar) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// MarkVerified sets verified and clears both registration OTP fields.
	MarkVerified(ctx context.Context, id string) error
	SetResetOTP(ctx context.Context, id, code string, expiry time.Time) error
	// ResetPassword sets the new hash and clears both reset OTP fields.
	ResetPassword(ctx context.Context, id, passwordHash string) error

	AddTask(ctx context.Context, id string, t entity.Task) error
	// RemoveTask reports whether a task was actually removed.
	RemoveTask(ctx context.Context, id string, taskID primitive.ObjectID) (bool, error)
	// SetTaskCompleted reports whether a matching task existed.
	SetTaskCompleted(ctx context.Context, id string, taskID primitive.ObjectID, completed bool) (bool, error)
}
