package serializers

import (
	"task-manager/api/internal/models"
	"task-manager/api/internal/services"
)

// UserResponse is the only outbound shape of a user. It has no password
// field.
type UserResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

func userItem(u models.User) UserResponse { return NewUserResponse(&u) }

// RegisterRequest is the registration payload. Any role sent by the client
// is dropped because the struct has no such field.
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150,username"`
	Password  string `json:"password" binding:"required"`
	Email     string `json:"email" binding:"required,max=254,email"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

func (r RegisterRequest) Input() services.RegistrationInput {
	return services.RegistrationInput{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}
