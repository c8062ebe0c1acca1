package services

import (
	"context"
	"errors"
	"strings"

	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type ProvisionInput struct {
	Username  string
	Email     string
	Password  string
	Role      models.Role
	FirstName string
	LastName  string
}

type UserService interface {
	Provision(ctx context.Context, in ProvisionInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, page int) (*Page[models.User], error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserServiceImpl struct {
	users      repositories.UserRepository
	bcryptCost int
	pageSize   int
	log        zerolog.Logger
}

func NewUserService(users repositories.UserRepository, bcryptCost, pageSize int, log zerolog.Logger) *UserServiceImpl {
	if pageSize < 1 {
		pageSize = 5
	}
	return &UserServiceImpl{users: users, bcryptCost: bcryptCost, pageSize: pageSize, log: log}
}

// Provision creates a user with an explicit role. It is the out-of-band path
// for creating admins and is not reachable over HTTP.
func (s *UserServiceImpl) Provision(ctx context.Context, in ProvisionInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)

	verr := NewValidationError()
	if in.Username == "" {
		verr.Add("username", MsgRequired)
	} else if !ValidUsername(in.Username) {
		verr.Add("username", MsgUsernameChars)
	}
	if in.Email == "" {
		verr.Add("email", MsgRequired)
	}
	if in.Password == "" {
		verr.Add("password", MsgRequired)
	} else if len(in.Password) > PasswordMaxBytes {
		verr.Add("password", MsgPasswordLong)
	}
	if !in.Role.Valid() {
		verr.Add("role", MsgInvalidChoice)
	}
	if err := checkUnique(ctx, s.users, in.Username, in.Email, verr); err != nil {
		return nil, err
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hash,
		Role:      in.Role,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		IsActive:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateError(ctx, s.users, in.Username, in.Email)
		}
		return nil, err
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("user provisioned")
	return user, nil
}

func (s *UserServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserServiceImpl) List(ctx context.Context, page int) (*Page[models.User], error) {
	if page == 0 {
		page = 1
	}
	offset, err := pageOffset(page, s.pageSize)
	if err != nil {
		return nil, err
	}

	users, count, err := s.users.List(ctx, s.pageSize, offset)
	if err != nil {
		return nil, err
	}
	if err := checkPage(page, s.pageSize, count); err != nil {
		return nil, err
	}

	return &Page[models.User]{Items: users, Count: count, Number: page, Size: s.pageSize}, nil
}

// Delete removes the user along with the tasks and refresh tokens it owns.
func (s *UserServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.log.Info().Str("user_id", id.String()).Msg("user deleted")
	return nil
}
