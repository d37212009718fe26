// Package repotest provides an in-memory UserRepository for tests.
package repotest

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ho-ssain/HkToDoServer/internal/domain/entity"
	"github.com/ho-ssain/HkToDoServer/internal/domain/repository"
)

// InMemory implements repository.UserRepository on a map. Every mutation runs
// under one lock, mirroring the per-document atomicity the mongo
// implementation gets from update operators.
type InMemory struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: map[string]*entity.User{}}
}

func (f *InMemory) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.users {
		if ex.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	f.users[u.ID.Hex()] = &cp
	return nil
}

func (f *InMemory) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.Tasks = append([]entity.Task(nil), u.Tasks...)
	return &cp, nil
}

func (f *InMemory) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *InMemory) GetByResetOTP(_ context.Context, code string, now time.Time) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ResetOTP != nil && *u.ResetOTP == code && u.ResetOTPExpiry != nil && u.ResetOTPExpiry.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Mutate applies fn to the stored user under the lock. Tests use it to
// reach fields the repository interface deliberately does not expose,
// such as backdating an OTP expiry.
func (f *InMemory) Mutate(id string, fn func(*entity.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *InMemory) UpdateName(_ context.Context, id, name string) error {
	return f.Mutate(id, func(u *entity.User) { u.Name = name })
}

func (f *InMemory) UpdateAvatar(_ context.Context, id string, avatar entity.Avatar) error {
	return f.Mutate(id, func(u *entity.User) { u.Avatar = avatar })
}

func (f *InMemory) UpdatePassword(_ context.Context, id, hash string) error {
	return f.Mutate(id, func(u *entity.User) { u.Password = hash })
}

func (f *InMemory) MarkVerified(_ context.Context, id string) error {
	return f.Mutate(id, func(u *entity.User) {
		u.Verified = true
		u.OTP = nil
		u.OTPExpiry = nil
	})
}

func (f *InMemory) SetResetOTP(_ context.Context, id, code string, expiry time.Time) error {
	return f.Mutate(id, func(u *entity.User) {
		u.ResetOTP = &code
		u.ResetOTPExpiry = &expiry
	})
}

func (f *InMemory) ResetPassword(_ context.Context, id, hash string) error {
	return f.Mutate(id, func(u *entity.User) {
		u.Password = hash
		u.ResetOTP = nil
		u.ResetOTPExpiry = nil
	})
}

func (f *InMemory) AddTask(_ context.Context, id string, t entity.Task) error {
	return f.Mutate(id, func(u *entity.User) { u.Tasks = append(u.Tasks, t) })
}

func (f *InMemory) RemoveTask(_ context.Context, id string, taskID primitive.ObjectID) (bool, error) {
	removed := false
	err := f.Mutate(id, func(u *entity.User) {
		kept := u.Tasks[:0]
		for _, t := range u.Tasks {
			if t.ID == taskID {
				removed = true
				continue
			}
			kept = append(kept, t)
		}
		u.Tasks = kept
	})
	return removed, err
}

func (f *InMemory) SetTaskCompleted(_ context.Context, id string, taskID primitive.ObjectID, completed bool) (bool, error) {
	matched := false
	err := f.Mutate(id, func(u *entity.User) {
		for i := range u.Tasks {
			if u.Tasks[i].ID == taskID {
				u.Tasks[i].Completed = completed
				matched = true
			}
		}
	})
	return matched, err
}

var _ repository.UserRepository = (*InMemory)(nil)
