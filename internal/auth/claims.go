package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"

	"innkeeper/internal/domain"
)

// Claims is the identity assertion produced by the upstream identity
// service: subject, role and username. The gateway verifies the token
// signature before the request reaches this service, so the payload is
// decoded here without re-verifying.
type Claims struct {
	Role     Role   `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// ExtractBearerToken pulls the token out of the Authorization header,
// tolerating a lowercase scheme.
func ExtractBearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "bearer "
	if strings.HasPrefix(strings.ToLower(header), prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

var parser = jwt.NewParser()

// DecodeClaims parses the already-verified token payload. A missing or
// undecodable token, or one without a subject, is an authentication
// failure, before any role policy is evaluated.
func DecodeClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, errors.Mark(errors.New("missing bearer token"), domain.ErrUnauthenticated)
	}
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "malformed token"), domain.ErrUnauthenticated)
	}
	if claims.Subject() == "" {
		return nil, errors.Mark(errors.New("token missing subject"), domain.ErrUnauthenticated)
	}
	return claims, nil
}

type claimsKey struct{}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFrom(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}
