package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	store := memory.NewStore()
	svc := NewService(store.Users(), "test-secret", time.Hour, zaptest.NewLogger(t))
	svc.cost = bcrypt.MinCost
	return svc, store
}

func TestSignupNormalizesAndRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Name: " Ana ", Email: "  Ana@Farm.io ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ana@farm.io", user.Email)
	assert.Equal(t, "Ana", user.Name)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.Signup(ctx, SignupInput{Email: "ANA@farm.io", Password: "another"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), SignupInput{Email: "not-an-email", Password: "123"})
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	_, err = svc.Signup(context.Background(), SignupInput{Email: "long@farm.io", Password: strings.Repeat("x", 80)})
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "password", verrs[0].Field)

	_, err = svc.Signup(context.Background(), SignupInput{Email: "edge@farm.io", Password: strings.Repeat("x", 72)})
	assert.NoError(t, err)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Email: "ana@farm.io", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana@farm.io", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@farm.io", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.Login(ctx, "ANA@farm.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	resolved, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Email: "ana@farm.io", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(nil, "other-secret", time.Hour, nil)
	forged, err := other.IssueToken(user)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.IssueToken(user)
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: user.ID.Hex()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	ghostSvc, _ := newTestService(t)
	ctx := context.Background()

	ghost, err := ghostSvc.Signup(ctx, SignupInput{Email: "ghost@farm.io", Password: "secret1"})
	require.NoError(t, err)

	token, err := svc.IssueToken(ghost)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
