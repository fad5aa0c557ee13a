package auth

import (
	"errors"
	"time"
)

// ErrInvalidToken agrupa firma inválida, token expirado, malformado o revocado.
var ErrInvalidToken = errors.New("invalid token")

// Claims representa la información extraída del token.
// El rol viaja en el token y se confía en él durante su vida útil;
// la revocación server-side acota esa ventana.
type Claims struct {
	UserID string
	Email  string
	Role   string

	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
