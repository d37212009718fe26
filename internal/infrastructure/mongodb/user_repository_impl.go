package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ho-ssain/HkToDoServer/internal/domain/entity"
	"github.com/ho-ssain/HkToDoServer/internal/domain/repository"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(coll *mongo.Collection) *UserRepository {
	return &UserRepository{coll: coll}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Tasks == nil {
		u.Tasks = []entity.Task{}
	}
	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetByResetOTP(ctx context.Context, code string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx, bson.M{
		"reset_password_otp":        code,
		"reset_password_otp_expiry": bson.M{"$gt": now},
	})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	u := &entity.User{}
	if err := r.coll.FindOne(ctx, filter).Decode(u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) UpdateName(ctx context.Context, id, name string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().UTC()}})
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id string, avatar entity.Avatar) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"avatar": avatar, "updated_at": time.Now().UTC()}})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"password": passwordHash, "updated_at": time.Now().UTC()}})
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"verified": true, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"otp": "", "otp_expiry": ""},
	})
}

func (r *UserRepository) SetResetOTP(ctx context.Context, id, code string, expiry time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"reset_password_otp":        code,
		"reset_password_otp_expiry": expiry,
		"updated_at":                time.Now().UTC(),
	}})
}

func (r *UserRepository) ResetPassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"password": passwordHash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"reset_password_otp": "", "reset_password_otp_expiry": ""},
	})
}

// AddTask appends atomically so two concurrent adds on the same user both land.
func (r *UserRepository) AddTask(ctx context.Context, id string, t entity.Task) error {
	return r.updateByID(ctx, id, bson.M{
		"$push": bson.M{"tasks": t},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemoveTask matches on the embedded task id so MatchedCount tells whether
// the task actually existed.
func (r *UserRepository) RemoveTask(ctx context.Context, id string, taskID primitive.ObjectID) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, repository.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "tasks._id": taskID},
		bson.M{
			"$pull": bson.M{"tasks": bson.M{"_id": taskID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, r.missingTaskErr(ctx, oid)
	}
	return true, nil
}

func (r *UserRepository) SetTaskCompleted(ctx context.Context, id string, taskID primitive.ObjectID, completed bool) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, repository.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "tasks._id": taskID},
		bson.M{"$set": bson.M{"tasks.$.completed": completed, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, r.missingTaskErr(ctx, oid)
	}
	return true, nil
}

// missingTaskErr distinguishes a missing user from a missing task after an
// unmatched task update.
func (r *UserRepository) missingTaskErr(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
