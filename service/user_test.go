package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(store Store) *UserService {
	return NewUserService(store, NewTokenService("test-secret", time.Hour))
}

func TestUserService_SignupThenLogin(t *testing.T) {
	store := newFakeStore()
	users := newUserService(store)

	signupToken, err := users.Signup(context.Background(), "a@x.com", "longenough1")
	require.NoError(t, err)
	require.NotEmpty(t, signupToken.AccessToken)

	loginToken, err := users.Login(context.Background(), "a@x.com", "longenough1")
	require.NoError(t, err)

	subject, err := NewTokenService("test-secret", time.Hour).VerifyToken(loginToken.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)
}

func TestUserService_SignupDuplicate(t *testing.T) {
	users := newUserService(newFakeStore())

	_, err := users.Signup(context.Background(), "a@x.com", "longenough1")
	require.NoError(t, err)

	_, err = users.Signup(context.Background(), "a@x.com", "otherpassword")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserService_LoginFailures(t *testing.T) {
	store := newFakeStore()
	users := newUserService(store)

	_, err := users.Signup(context.Background(), "a@x.com", "longenough1")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := users.Login(context.Background(), "a@x.com", "wrongpassword")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user looks the same", func(t *testing.T) {
		_, err := users.Login(context.Background(), "nobody@x.com", "longenough1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("store down", func(t *testing.T) {
		store.down = true
		defer func() { store.down = false }()
		_, err := users.Login(context.Background(), "a@x.com", "longenough1")
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestUserService_PasswordTruncation(t *testing.T) {
	users := newUserService(newFakeStore())

	// bcrypt sees only the first 72 bytes, so a password and any
	// extension of it past that limit verify the same.
	long := strings.Repeat("a", 80)
	_, err := users.Signup(context.Background(), "a@x.com", long)
	require.NoError(t, err)

	_, err = users.Login(context.Background(), "a@x.com", strings.Repeat("a", 72))
	assert.NoError(t, err)

	_, err = users.Login(context.Background(), "a@x.com", strings.Repeat("a", 72)+"different")
	assert.NoError(t, err)

	_, err = users.Login(context.Background(), "a@x.com", strings.Repeat("a", 71))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_Resolve(t *testing.T) {
	store := newFakeStore()
	tokens := NewTokenService("test-secret", time.Hour)
	users := NewUserService(store, tokens)

	token, err := users.Signup(context.Background(), "a@x.com", "longenough1")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		username, err := users.Resolve(context.Background(), token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", username)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := users.Resolve(context.Background(), "")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := users.Resolve(context.Background(), "garbage")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("subject no longer exists", func(t *testing.T) {
		ghost, err := tokens.CreateToken("ghost@x.com")
		require.NoError(t, err)
		_, err = users.Resolve(context.Background(), ghost.AccessToken)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("store down is not unauthenticated", func(t *testing.T) {
		store.down = true
		defer func() { store.down = false }()
		_, err := users.Resolve(context.Background(), token.AccessToken)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}
