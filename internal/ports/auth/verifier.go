package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenCodec firma y decodifica tokens de sesión (sin consultar estado).
type TokenCodec interface {
	Sign(claims Claims) (string, error)
	Parse(token string) (Claims, error)
}
