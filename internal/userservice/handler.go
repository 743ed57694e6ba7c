package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"github.com/MishraShardendu22/blog-backend/internal/common"
)

var ErrAuthenticationFailure = errors.New("invalid credentials")
var ErrAlreadyVerified = errors.New("user already verified")

func NewUserService(db *sql.DB, mb common.MessageProducer, ownerEmail string, otpExpiry time.Duration) *UserService {
	return &UserService{
		m:          newUserModel(db),
		mb:         mb,
		ownerEmail: ownerEmail,
		otpExpiry:  otpExpiry,
	}
}

type RegisterRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profileImage"`
}

// Register creates an unverified account, stores a fresh OTP for the email,
// and publishes the mail event. The account can log in immediately but stays
// unverified until the code is presented.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*User, *Session, error) {
	v := common.NewValidator()
	validateEmail(v, req.Email)
	validatePassword(v, req.Password)
	validateName(v, req.Name)
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	u := User{
		Email:        req.Email,
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
		Password:     Password{Plain: req.Password},
	}

	if u.ProfileImage == nil {
		img := defaultProfileImage()
		u.ProfileImage = &img
	}

	if err := u.Password.set(u.Password.Plain); err != nil {
		return nil, nil, err
	}

	if err := s.m.insertUser(ctx, &u); err != nil {
		return nil, nil, err
	}

	if err := s.issueOTP(ctx, u.Email, u.Name); err != nil {
		return nil, nil, err
	}

	session, err := s.m.createSession(ctx, u.ID, SessionTokenTime)
	if err != nil {
		return nil, nil, err
	}

	u.IsOwner = u.Email == s.ownerEmail

	return &u, session, nil
}

// issueOTP drives the email to the pending state and hands the plain code to
// the mail consumer through the broker.
func (s *UserService) issueOTP(ctx context.Context, email, name string) error {
	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	if err := s.m.storeOTP(ctx, email, code, s.otpExpiry); err != nil {
		return err
	}

	msg, err := json.Marshal(OTPMailMessage{Email: email, Name: name, Code: code})
	if err != nil {
		return err
	}

	return s.mb.Publish(ctx, msg, common.OTPRequestedKey, common.UserExchange)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*User, *Session, error) {
	v := common.NewValidator()
	v.Check(email != "", "email", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	user, err := s.m.getUserByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, nil, ErrAuthenticationFailure
		default:
			return nil, nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrAuthenticationFailure
	}

	session, err := s.m.createSession(ctx, user.ID, SessionTokenTime)
	if err != nil {
		return nil, nil, err
	}

	user.IsOwner = user.Email == s.ownerEmail

	return user, session, nil
}

// VerifyOTP consumes a pending code. A code matches at most once: the match
// and the deletion of the record commit together.
func (s *UserService) VerifyOTP(ctx context.Context, email, code string) (*User, error) {
	v := common.NewValidator()
	validateEmail(v, email)
	validateOTPCode(v, code)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}

	if err := s.m.verifyOTP(ctx, email, code); err != nil {
		return nil, err
	}

	user, err = s.m.getUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	user.IsOwner = user.Email == s.ownerEmail

	return user, nil
}

// ResendOTP replaces the pending code for an unverified account.
func (s *UserService) ResendOTP(ctx context.Context, email string) error {
	v := common.NewValidator()
	validateEmail(v, email)
	if !v.Valid() {
		return v.ValidationError()
	}

	user, err := s.m.getUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	return s.issueOTP(ctx, user.Email, user.Name)
}

// GetUserBySessionToken resolves a presented bearer token for the
// authentication middleware.
func (s *UserService) GetUserBySessionToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateSessionToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserBySessionHash(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}

	user.IsOwner = user.Email == s.ownerEmail

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsOwner = user.Email == s.ownerEmail

	return user, nil
}

func (s *UserService) Logout(ctx context.Context, userID int) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.deleteSessions(ctx, userID)
}

func defaultProfileImage() string {
	return fmt.Sprintf("https://api.dicebear.com/9.x/lorelei/webp?seed=%d&flip=true", rand.Int63())
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}
