package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-manager/api/internal/models"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/tokenstore"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type AuthConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BCryptCost int
}

type Claims struct {
	UserID    string      `json:"user_id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	Access  string
	Refresh string
}

// Session is an authenticated request context built from a valid access
// token.
type Session struct {
	Principal *models.Principal
	User      *models.User
	TokenID   string
	ExpiresAt time.Time
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, session *Session, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*Session, error)
}

type AuthServiceImpl struct {
	users   repositories.UserRepository
	tokens  repositories.TokenRepository
	revoked tokenstore.RevocationStore
	config  AuthConfig
	log     zerolog.Logger
	now     func() time.Time

	// dummyHash keeps the cost of an unknown-username login equal to a
	// wrong-password login.
	dummyHash []byte
}

func NewAuthService(
	users repositories.UserRepository,
	tokens repositories.TokenRepository,
	revoked tokenstore.RevocationStore,
	config AuthConfig,
	log zerolog.Logger,
) (*AuthServiceImpl, error) {
	if len(config.Secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if config.BCryptCost == 0 {
		config.BCryptCost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password"), config.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &AuthServiceImpl{
		users:     users,
		tokens:    tokens,
		revoked:   revoked,
		config:    config,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		dummyHash: dummy,
	}, nil
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		monitoring.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !VerifyPassword(user.Password, password) || !user.IsActive {
		monitoring.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record last login")
	}

	monitoring.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return pair, nil
}

func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	jti, err := uuid.FromString(claims.ID)
	if err != nil {
		return "", ErrInvalidToken
	}
	if _, err := s.tokens.FindActive(ctx, jti, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return "", err
	}

	access, _, err := s.sign(user, TokenTypeAccess, s.config.AccessTTL)
	return access, err
}

// Logout revokes the caller's refresh token and denies the access token
// used for this request until it expires.
func (s *AuthServiceImpl) Logout(ctx context.Context, session *Session, refreshToken string) error {
	if session == nil || session.Principal == nil {
		return ErrUnauthenticated
	}

	claims, err := s.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return FieldError("refresh", MsgInvalidToken)
	}
	jti, err := uuid.FromString(claims.ID)
	if err != nil {
		return FieldError("refresh", MsgInvalidToken)
	}

	revoked, err := s.tokens.Revoke(ctx, jti, session.Principal.ID, s.now())
	if err != nil {
		return err
	}
	if !revoked {
		return FieldError("refresh", MsgInvalidToken)
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if err := s.revoked.Revoke(ctx, session.TokenID, ttl); err != nil {
		monitoring.TokenRevocationErrorsTotal.Inc()
		s.log.Warn().Err(err).Msg("failed to revoke access token")
	}
	return nil
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := s.parse(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		monitoring.TokenRevocationErrorsTotal.Inc()
		s.log.Warn().Err(err).Msg("revocation check skipped")
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return &Session{
		Principal: user.Principal(),
		User:      user,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthServiceImpl) activeUser(ctx context.Context, rawID string) (*models.User, error) {
	id, err := uuid.FromString(rawID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *AuthServiceImpl) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, _, err := s.sign(user, TokenTypeAccess, s.config.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, claims, err := s.sign(user, TokenTypeRefresh, s.config.RefreshTTL)
	if err != nil {
		return nil, err
	}

	record := &models.Token{
		ID:        uuid.FromStringOrNil(claims.ID),
		UserID:    user.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *AuthServiceImpl) sign(user *models.User, tokenType string, ttl time.Duration) (string, *Claims, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	claims := &Claims{
		UserID:    user.ID.String(),
		Username:  user.Username,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Issuer:    s.config.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, claims, nil
}

func (s *AuthServiceImpl) parse(tokenString, tokenType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.config.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
