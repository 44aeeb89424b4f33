package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/HasnaMouflih/chatbot-educatif-intelligent/model"
)

// Store is the document-store surface the services need. *model.Store
// implements it; tests substitute an in-memory fake.
type Store interface {
	FindUser(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	LogExchange(ctx context.Context, messages []model.ChatMessage) error
	ChatIDs(ctx context.Context, userID string) ([]string, error)
	History(ctx context.Context, chatID, userID string) ([]model.HistoryEntry, error)
	DeleteHistory(ctx context.Context, chatID, userID string) (int64, error)
}

// bcrypt ignores everything past 72 bytes, so longer passwords are
// truncated before hashing and before verification. The boundary is lossy
// but symmetric: a password and its 72-byte prefix are interchangeable.
const bcryptInputLimit = 72

type UserService struct {
	store  Store
	tokens *TokenService
}

func NewUserService(store Store, tokens *TokenService) *UserService {
	return &UserService{store: store, tokens: tokens}
}

func truncateForBcrypt(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptInputLimit {
		b = b[:bcryptInputLimit]
	}
	return b
}

// Signup creates the user and immediately issues a token. The store's
// duplicate-key rejection decides who wins concurrent signups.
func (s *UserService) Signup(ctx context.Context, username, password string) (*Token, error) {
	hashed, err := bcrypt.GenerateFromPassword(truncateForBcrypt(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:       username,
		HashedPassword: string(hashed),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		return nil, ErrStoreUnavailable
	}

	return s.tokens.CreateToken(username)
}

// Login verifies the credentials and issues a token. An unknown username
// and a wrong password produce the same error, so the endpoint cannot be
// used to enumerate accounts.
func (s *UserService) Login(ctx context.Context, username, password string) (*Token, error) {
	user, err := s.store.FindUser(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, ErrStoreUnavailable
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), truncateForBcrypt(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.tokens.CreateToken(username)
}

// Resolve turns a bearer token into an authenticated identity: verify the
// signature, then confirm the subject still exists. A store failure is
// reported as unavailable, never as unauthenticated.
func (s *UserService) Resolve(ctx context.Context, tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrUnauthenticated
	}
	username, err := s.tokens.VerifyToken(tokenString)
	if err != nil {
		return "", ErrUnauthenticated
	}

	if _, err := s.store.FindUser(ctx, username); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return "", ErrUnauthenticated
		}
		return "", ErrStoreUnavailable
	}
	return username, nil
}
