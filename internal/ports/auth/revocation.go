package auth

import (
	"context"
	"time"
)

// RevocationStore guarda tokens invalidados antes de su expiración.
// Las entradas pueden expirar solas: nunca hace falta recordar más allá del TTL del token.
type RevocationStore interface {
	// RevokeToken invalida un token puntual (logout) hasta until.
	RevokeToken(ctx context.Context, tokenID string, until time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)

	// RevokeSubject invalida todos los tokens de userID emitidos hasta since.
	RevokeSubject(ctx context.Context, userID string, since time.Time, ttl time.Duration) error
	SubjectRevokedSince(ctx context.Context, userID string) (time.Time, bool, error)
}
