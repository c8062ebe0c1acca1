package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"task-manager/api/internal/models"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// ValidUsername reports whether s uses only letters, digits and @.+-_.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

type RegistrationInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type RegisterService interface {
	Register(ctx context.Context, in RegistrationInput) (*models.User, error)
}

type RegisterServiceImpl struct {
	users             repositories.UserRepository
	validate          *validator.Validate
	bcryptCost        int
	passwordMinLength int
	log               zerolog.Logger
}

func NewRegisterService(users repositories.UserRepository, bcryptCost, passwordMinLength int, log zerolog.Logger) *RegisterServiceImpl {
	return &RegisterServiceImpl{
		users:             users,
		validate:          validator.New(),
		bcryptCost:        bcryptCost,
		passwordMinLength: passwordMinLength,
		log:               log,
	}
}

// Register creates a regular user. Registration never grants another role.
func (s *RegisterServiceImpl) Register(ctx context.Context, in RegistrationInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	verr := NewValidationError()
	s.checkUsername(in.Username, verr)
	s.checkEmail(in.Email, verr)
	checkName("first_name", in.FirstName, verr)
	checkName("last_name", in.LastName, verr)
	CheckPassword(in.Password, s.passwordMinLength, verr)

	if err := checkUnique(ctx, s.users, in.Username, in.Email, verr); err != nil {
		return nil, err
	}
	if err := verr.errOrNil(); err != nil {
		monitoring.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		monitoring.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hash,
		Role:      models.RoleRegular,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsActive:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			monitoring.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return nil, duplicateError(ctx, s.users, in.Username, in.Email)
		}
		monitoring.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")
	monitoring.RegistrationsTotal.WithLabelValues("created").Inc()
	return user, nil
}

func (s *RegisterServiceImpl) checkUsername(username string, verr *ValidationError) {
	switch {
	case username == "":
		verr.Add("username", MsgRequired)
	case utf8.RuneCountInString(username) > models.UsernameMaxLength:
		verr.Add("username", MsgMaxLength(models.UsernameMaxLength))
	case !ValidUsername(username):
		verr.Add("username", MsgUsernameChars)
	}
}

func (s *RegisterServiceImpl) checkEmail(email string, verr *ValidationError) {
	switch {
	case email == "":
		verr.Add("email", MsgRequired)
	case utf8.RuneCountInString(email) > models.EmailMaxLength:
		verr.Add("email", MsgMaxLength(models.EmailMaxLength))
	case s.validate.Var(email, "email") != nil:
		verr.Add("email", MsgInvalidEmail)
	}
}

func checkName(field, value string, verr *ValidationError) {
	if utf8.RuneCountInString(value) > models.NameMaxLength {
		verr.Add(field, MsgMaxLength(models.NameMaxLength))
	}
}

// PasswordMaxBytes is the longest input bcrypt accepts.
const PasswordMaxBytes = 72

// CheckPassword applies the password policy: a length range and not entirely
// numeric. The upper bound counts bytes, not runes.
func CheckPassword(password string, minLength int, verr *ValidationError) {
	if password == "" {
		verr.Add("password", MsgRequired)
		return
	}
	if len(password) > PasswordMaxBytes {
		verr.Add("password", MsgPasswordLong)
	}
	if utf8.RuneCountInString(password) < minLength {
		verr.Add("password", MsgMinPasswordLength(minLength))
	}
	if isNumeric(password) {
		verr.Add("password", MsgNumericPwd)
	}
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// checkUnique adds uniqueness errors for fields that are otherwise valid.
func checkUnique(ctx context.Context, users repositories.UserRepository, username, email string, verr *ValidationError) error {
	if !verr.Has("username") {
		taken, err := users.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("username", MsgUsernameTaken)
		}
	}

	if !verr.Has("email") {
		taken, err := users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", MsgEmailTaken)
		}
	}
	return nil
}

// duplicateError rebuilds the field error after a unique index rejected an
// insert that passed the pre-checks, which happens when two registrations
// race.
func duplicateError(ctx context.Context, users repositories.UserRepository, username, email string) error {
	verr := NewValidationError()
	if err := checkUnique(ctx, users, username, email, verr); err != nil {
		return err
	}
	if verr.Empty() {
		verr.Add("username", MsgUsernameTaken)
	}
	return verr
}

// NormalizeEmail trims the address and lower-cases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
