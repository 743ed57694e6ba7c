package userservice

import (
	"database/sql"
	"time"

	"github.com/MishraShardendu22/blog-backend/internal/common"
)

const (
	SessionTokenTime time.Duration = 7 * 24 * time.Hour

	// Accounts still unverified this long after creation are swept. This is
	// a hard lifecycle cutoff, not configurable per request.
	unverifiedAccountTTL = 24 * time.Hour
)

var AnonymousUser = User{}

type UserService struct {
	m          *DBModel
	mb         common.MessageProducer
	ownerEmail string
	otpExpiry  time.Duration
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Password     Password  `json:"-"`
	IsVerified   bool      `json:"isVerified"`
	IsOwner      bool      `json:"isOwner"`
	ProfileImage *string   `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// Session is an opaque bearer credential; only its sha256 hash is stored.
type Session struct {
	Plain  string    `json:"token"`
	Hash   []byte    `json:"-"`
	UserID int       `json:"-"`
	Expiry time.Time `json:"expiry"`
}

// OTPMailMessage is the event published for the mail consumer when a code is
// generated.
type OTPMailMessage struct {
	Email string
	Name  string
	Code  string
}
