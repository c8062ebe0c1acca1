package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/services"
	"task-manager/api/internal/testutil"
	"task-manager/api/internal/tokenstore"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type mockRevocationStore struct {
	mock.Mock
}

func (m *mockRevocationStore) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	return m.Called(ctx, id, ttl).Error(0)
}

func (m *mockRevocationStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRevocationStore) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRevocationStore) Close() error { return nil }

var testAuthConfig = services.AuthConfig{
	Secret:     []byte("test-secret"),
	Issuer:     "task-manager",
	AccessTTL:  15 * time.Minute,
	RefreshTTL: 24 * time.Hour,
	BCryptCost: bcrypt.MinCost,
}

func newAuthService(t *testing.T, db *gorm.DB, store tokenstore.RevocationStore, config services.AuthConfig) *services.AuthServiceImpl {
	t.Helper()
	svc, err := services.NewAuthService(
		repositories.NewUserRepository(db),
		repositories.NewTokenRepository(db),
		store,
		config,
		zerolog.Nop(),
	)
	require.NoError(t, err)
	return svc
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	_, err := services.NewAuthService(nil, nil, tokenstore.NewMemoryStore(), services.AuthConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := services.HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "password123", hash)
	assert.True(t, services.VerifyPassword(hash, "password123"))
	assert.False(t, services.VerifyPassword(hash, "wrong"))
}

func TestLogin_IssuesTokensAndRecordsLogin(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "testuser", "password123", models.RoleRegular)
	svc := newAuthService(t, db, tokenstore.NewMemoryStore(), testAuthConfig)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	session, err := svc.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.Principal.ID)
	assert.Equal(t, models.RoleRegular, session.Principal.Role)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)

	var tokens int64
	require.NoError(t, db.Model(&models.Token{}).Where("user_id = ?", user.ID).Count(&tokens).Error)
	assert.Equal(t, int64(1), tokens)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "testuser", "password123", models.RoleRegular)
	svc := newAuthService(t, db, tokenstore.NewMemoryStore(), testAuthConfig)
	ctx := context.Background()

	_, err := svc.Login(ctx, "testuser", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	_, err = svc.Login(ctx, "testuser", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthenticate_RejectsInvalidTokens(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "testuser", "password123", models.RoleRegular)
	svc := newAuthService(t, db, tokenstore.NewMemoryStore(), testAuthConfig)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "testuser", "password123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, pair.Refresh)
	assert.ErrorIs(t, err, services.ErrInvalidToken, "refresh token must not authenticate requests")

	_, err = svc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	otherConfig := testAuthConfig
	otherConfig.Secret = []byte("other-secret")
	other := newAuthService(t, db, tokenstore.NewMemoryStore(), otherConfig)
	_, err = other.Authenticate(ctx, pair.Access)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"token_type": "access"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, unsigned)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "testuser", "password123", models.RoleRegular)
	config := testAuthConfig
	config.AccessTTL = -time.Minute
	svc := newAuthService(t, db, tokenstore.NewMemoryStore(), config)

	pair, err := svc.Login(context.Background(), "testuser", "password123")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), pair.Access)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "testuser", "password123", models.RoleRegular)
	svc := newAuthService(t, db, tokenstore.NewMemoryStore(), testAuthConfig)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "testuser", "password123")
	require.NoError(t, err)

	_, err = repositories.NewUserRepository(db).Delete(ctx, user.ID)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, pair.Access)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthenticate_RoleComesFromDatabase(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "testuser", "password123", models.RoleRegular)
	svc := newAuthService(t, db, tokenstore.NewMemoryStore(), testAuthConfig)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "testuser", "password123")
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("role", models.RoleAdmin).Error)

	session, err := svc.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.Principal.Role)
}

func TestRefresh(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "testuser", "password123", models.RoleRegular)
	svc := newAuthService(t, db, tokenstore.NewMemoryStore(), testAuthConfig)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "testuser", "password123")
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, access)
	assert.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, services.ErrInvalidToken, "access token must not refresh")
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "testuser", "password123", models.RoleRegular)
	svc := newAuthService(t, db, tokenstore.NewMemoryStore(), testAuthConfig)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "testuser", "password123")
	require.NoError(t, err)
	session, err := svc.Authenticate(ctx, pair.Access)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session, pair.Refresh))

	_, err = svc.Authenticate(ctx, pair.Access)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	err = svc.Logout(ctx, session, pair.Refresh)
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLogout_CannotRevokeAnotherUsersToken(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice", "password123", models.RoleRegular)
	testutil.CreateUser(t, db, "bob", "password123", models.RoleRegular)
	svc := newAuthService(t, db, tokenstore.NewMemoryStore(), testAuthConfig)
	ctx := context.Background()

	alice, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	bob, err := svc.Login(ctx, "bob", "password123")
	require.NoError(t, err)

	aliceSession, err := svc.Authenticate(ctx, alice.Access)
	require.NoError(t, err)

	err = svc.Logout(ctx, aliceSession, bob.Refresh)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{services.MsgInvalidToken}, verr.Fields["refresh"])

	_, err = svc.Refresh(ctx, bob.Refresh)
	assert.NoError(t, err)
}

func TestAuthenticate_RevocationStoreFailsOpen(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "testuser", "password123", models.RoleRegular)
	store := new(mockRevocationStore)
	store.On("IsRevoked", mock.Anything, mock.AnythingOfType("string")).
		Return(false, errors.Join(tokenstore.ErrUnavailable, errors.New("dial tcp: refused")))
	store.On("Revoke", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).
		Return(tokenstore.ErrUnavailable)
	svc := newAuthService(t, db, store, testAuthConfig)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "testuser", "password123")
	require.NoError(t, err)

	session, err := svc.Authenticate(ctx, pair.Access)
	require.NoError(t, err)

	assert.NoError(t, svc.Logout(ctx, session, pair.Refresh))
	store.AssertExpectations(t)
}
