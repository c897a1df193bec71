// Package auth registers accounts and manages bearer sessions.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/models"
	"gitlab.com/yelinaung/savings-tracker/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by Service.
var (
	ErrMissingFields  = errors.New("name, email and password are required")
	ErrEmailTaken     = errors.New("email already registered")
	ErrUserNotFound   = errors.New("user not found")
	ErrWrongPassword  = errors.New("wrong password")
	ErrTokenRequired  = errors.New("session token required")
	ErrInvalidSession = errors.New("invalid or expired session")
)

const (
	// BcryptCost is the work factor of stored password hashes.
	BcryptCost = 10
	// DefaultSessionTTL is how long a session stays valid.
	DefaultSessionTTL = 30 * 24 * time.Hour

	syncCodeLength = 5
)

// Users is the account storage used by Service.
type Users interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateSyncCode(ctx context.Context, id, code string) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// Sessions is the session storage used by Service.
type Sessions interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// Records stores the initial document of a new account.
type Records interface {
	Save(ctx context.Context, userID string, doc *models.Document) (*models.Document, error)
}

// Profile is what a client learns about its account after signing in.
type Profile struct {
	Token     string     `json:"token"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	SyncCode  string     `json:"syncCode"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Token    string
	UserID   string
	Name     string
	Email    string
	SyncCode string
}

// Service implements registration, login and session checks.
type Service struct {
	users    Users
	sessions Sessions
	records  Records
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
}

// NewService creates a Service. A ttl of zero uses DefaultSessionTTL.
func NewService(users Users, sessions Sessions, records Records, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		users:    users,
		sessions: sessions,
		records:  records,
		ttl:      ttl,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SetClock replaces time.Now.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// NewSyncCode returns a random five character upper-case hex code.
func NewSyncCode() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))[:syncCodeLength]
}

func (s *Service) createSession(ctx context.Context, userID string) (*models.Session, error) {
	session := &models.Session{
		Token:     s.newID(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Register creates an account with an empty document and signs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Profile, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		SyncCode:     NewSyncCode(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if _, err := s.records.Save(ctx, user.ID, models.NewDocument()); err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(user.ID)).
		Msg("Account registered")

	createdAt := user.CreatedAt
	return &Profile{
		Token:     session.Token,
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		SyncCode:  user.SyncCode,
		CreatedAt: &createdAt,
	}, nil
}

// Login checks the password of the account with email and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*Profile, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}

	if err := s.users.TouchLogin(ctx, user.ID, s.now()); err != nil {
		return nil, err
	}
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Token:    session.Token,
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		SyncCode: user.SyncCode,
	}, nil
}

// Authenticate resolves a bearer token to its account.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenRequired
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, ErrInvalidSession
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	return &Identity{
		Token:    session.Token,
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		SyncCode: user.SyncCode,
	}, nil
}

// RefreshSyncCode gives the account a new sync code.
func (s *Service) RefreshSyncCode(ctx context.Context, id *Identity) (*Profile, error) {
	code := NewSyncCode()
	if err := s.users.UpdateSyncCode(ctx, id.UserID, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &Profile{
		Token:    id.Token,
		ID:       id.UserID,
		Name:     id.Name,
		Email:    id.Email,
		SyncCode: code,
	}, nil
}

// Logout ends the session of id.
func (s *Service) Logout(ctx context.Context, id *Identity) error {
	return s.sessions.Delete(ctx, id.Token)
}
