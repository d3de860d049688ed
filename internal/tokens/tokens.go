package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coedit/coedit/internal/config"
	"github.com/coedit/coedit/internal/models"
	"github.com/coedit/coedit/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the `typ` claim.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownSubject marks a well-signed token whose user was deleted.
	ErrUnknownSubject = errors.New("token subject no longer exists")
)

// GenerateAccessToken creates a signed JWT access token for the user
func GenerateAccessToken(cfg *config.Config, userID string, ttl time.Duration) (string, error) {
	return generate(cfg, userID, KindAccess, ttl)
}

// GenerateRefreshToken creates a signed JWT refresh token for the user
func GenerateRefreshToken(cfg *config.Config, userID string, ttl time.Duration) (string, error) {
	return generate(cfg, userID, KindRefresh, ttl)
}

func generate(cfg *config.Config, userID, kind string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"typ": kind,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// ParseUserID verifies signature and expiry and returns the subject.
// kind must match the token's `typ` claim (access tokens are not accepted
// where refresh tokens are expected and vice versa).
func ParseUserID(cfg *config.Config, raw, kind string) (string, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != kind {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// Directory is the user lookup consulted after signature verification. A
// lookup that yields no user means the subject was deleted after the token
// was issued; such tokens are rejected.
type Directory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Verifier adapts local JWT verification to the middleware.Verifier seam
// (the same seam an external OIDC verifier would fill). A nil directory
// skips the subject-existence check.
type Verifier struct {
	cfg *config.Config
	dir Directory
}

func NewVerifier(cfg *config.Config, dir Directory) *Verifier {
	return &Verifier{cfg: cfg, dir: dir}
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(v.cfg.JWT.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != KindAccess {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	if v.dir != nil {
		u, err := v.dir.GetByID(ctx, sub)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrUnknownSubject
		}
	}
	return &verifiedToken{claims: claims}, nil
}

type verifiedToken struct {
	claims jwt.MapClaims
}

func (t *verifiedToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
