package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/coedit/coedit/internal/config"
	"github.com/coedit/coedit/internal/tokens"
)

var (
	// ErrInvalidRefreshToken marks a refresh token that is absent from the
	// live table (revoked, replaced, expired, or never issued).
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Service owns the live-token table. Tokens themselves are signed JWTs; the
// table adds revocability on top of the cryptographic validity. A revoked
// session's access token stays verifiable until its natural expiry.
type Service struct {
	cfg  *config.Config
	repo Repository
}

func NewService(cfg *config.Config, r Repository) *Service {
	return &Service{cfg: cfg, repo: r}
}

// IssueTokens mints an access/refresh pair for the user and records it,
// replacing any prior live pair for that user.
func (s *Service) IssueTokens(ctx context.Context, userID string) (access, refresh string, err error) {
	access, err = tokens.GenerateAccessToken(s.cfg, userID, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = tokens.GenerateRefreshToken(s.cfg, userID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	sess := &Session{
		RefreshToken: refresh,
		AccessToken:  access,
		UserID:       userID,
		ExpiresAt:    time.Now().UTC().Add(s.cfg.JWT.RefreshTokenTTL),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ValidateRefresh returns the session if the refresh token is live.
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		// cleanup expired session
		_ = s.repo.DeleteByRefresh(ctx, refresh)
		return nil, nil
	}
	return sess, nil
}

// RefreshAccess mints a new access token for the session bound to the refresh
// token. The refresh token itself is not rotated.
func (s *Service) RefreshAccess(ctx context.Context, refresh string) (string, error) {
	sess, err := s.ValidateRefresh(ctx, refresh)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrInvalidRefreshToken
	}
	access, err := tokens.GenerateAccessToken(s.cfg, sess.UserID, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return "", err
	}
	sess.AccessToken = access
	if err := s.repo.Save(ctx, sess); err != nil {
		return "", err
	}
	return access, nil
}

// Revoke removes the session for the given refresh token, dropping both the
// refresh and the associated access token from the table.
func (s *Service) Revoke(ctx context.Context, refresh string) error {
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrInvalidRefreshToken
	}
	return s.repo.DeleteByRefresh(ctx, refresh)
}
