package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the aggregate root for the account domain. Tasks live embedded in
// the user document; they have no independent persistence.
//
// Passwords are stored as bcrypt hashes in Password. OTP codes are kept as
// zero-padded strings so leading zeros survive comparison and lookup.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password" json:"-"`
	Avatar         Avatar             `bson:"avatar" json:"avatar"`
	Verified       bool               `bson:"verified" json:"verified"`
	OTP            *string            `bson:"otp,omitempty" json:"-"`
	OTPExpiry      *time.Time         `bson:"otp_expiry,omitempty" json:"-"`
	ResetOTP       *string            `bson:"reset_password_otp,omitempty" json:"-"`
	ResetOTPExpiry *time.Time         `bson:"reset_password_otp_expiry,omitempty" json:"-"`
	Tasks          []Task             `bson:"tasks" json:"tasks"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// Avatar references an image hosted on the media gateway. PublicID is the
// remote object path, kept so a replacement can delete the old object.
type Avatar struct {
	PublicID string `bson:"public_id" json:"public_id"`
	URL      string `bson:"url" json:"url"`
}

// Task is embedded in User. IDs are unique within one user's task list and
// order is insertion order.
type Task struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Completed   bool               `bson:"completed" json:"completed"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// TaskByID returns the embedded task with the given id, or nil.
func (u *User) TaskByID(id primitive.ObjectID) *Task {
	for i := range u.Tasks {
		if u.Tasks[i].ID == id {
			return &u.Tasks[i]
		}
	}
	return nil
}
