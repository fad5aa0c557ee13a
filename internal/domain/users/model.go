package users

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"pet-care-api/internal/domain/access"
	"pet-care-api/internal/domain/pets"
	"pet-care-api/internal/platform/apperr"
)

// User es el registro de credenciales. PasswordHash nunca sale por la API (ver UserView).
type User struct {
	ID    string
	Name  string
	Email string // siempre en minúsculas
	Phone string

	PasswordHash string
	Role         access.Role
	Active       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserView es la forma pública de User.
type UserView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Role      access.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func ToView(u User) UserView {
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Profile es el usuario con sus mascotas activas (GET /users/me).
type Profile struct {
	User User
	Pets []pets.Pet
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEmail exige una dirección simple ("a@b.c"), sin nombre visible.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is not a valid address", apperr.ErrInvalidInput)
	}
	return nil
}
