package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpavlenko/authd/internal/common"
	"github.com/dpavlenko/authd/internal/server/principals"
)

// Service orchestrates signup, signin, refresh rotation, logout, and profile
// operations over a Hasher, an Issuer, and a principals.Repository. Each
// operation is one logical transaction against a single principal's record;
// the service itself holds no mutable state.
type Service struct {
	repo   principals.Repository
	hasher Hasher
	issuer *Issuer

	// dummyHash is verified against on the unknown-email signin path so
	// "no such email" and "wrong password" take comparable time.
	dummyHash string
}

func NewService(repo principals.Repository, hasher Hasher, issuer *Issuer) *Service {
	dummy, _ := hasher.Hash("authd-dummy-credential")
	return &Service{
		repo:      repo,
		hasher:    hasher,
		issuer:    issuer,
		dummyHash: dummy,
	}
}

// SignupInput is the already-validated signup request.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Profile is the outward projection of a principal. It has no hash fields,
// so credential material cannot leak through it.
type Profile struct {
	ID        string
	Email     string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// Signup hashes the password and creates the principal. A duplicate email
// surfaces as common.ErrorConflict; the caller may retry with another one.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Profile, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	created, err := s.repo.Create(ctx, &principals.Principal{
		Email:        in.Email,
		Name:         in.Name,
		Phone:        in.Phone,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, transient(err)
	}

	return profileOf(created), nil
}

// Signin verifies the credentials and, on success, issues a TokenPair and
// stores the digest of its refresh token, superseding any previous session.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Signin(ctx context.Context, email, password string) (*TokenPair, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Burn a comparison so this path is not faster than a mismatch.
			s.hasher.Verify(s.dummyHash, password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, transient(err)
	}

	if !s.hasher.Verify(p.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.issuer.Issue(p.ID, p.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.repo.SetRefreshTokenHash(ctx, p.ID, DigestToken(pair.RefreshToken)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, transient(err)
	}

	return pair, nil
}

// Refresh exchanges a valid refresh token for a new TokenPair and rotates
// the stored digest in a single compare-and-set, so every refresh token is
// usable exactly once. All failure modes look identical to the caller.
func (s *Service) Refresh(ctx context.Context, principalID, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil || claims.Subject != principalID {
		return nil, common.ErrAccessDenied
	}

	p, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccessDenied
		}
		return nil, transient(err)
	}

	presented := DigestToken(refreshToken)
	if p.RefreshTokenHash == "" || !DigestEqual(p.RefreshTokenHash, presented) {
		return nil, common.ErrAccessDenied
	}

	pair, err := s.issuer.Issue(p.ID, p.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}

	err = s.repo.RotateRefreshTokenHash(ctx, p.ID, presented, DigestToken(pair.RefreshToken))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// A concurrent signin, refresh, or logout moved the hash first.
			return nil, common.ErrAccessDenied
		}
		return nil, transient(err)
	}

	return pair, nil
}

// Logout clears the stored refresh digest. Logging out an already-signed-out
// (or even unknown) principal is not an error.
func (s *Service) Logout(ctx context.Context, principalID string) error {
	if err := s.repo.ClearRefreshTokenHash(ctx, principalID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return transient(err)
	}
	return nil
}

// GetProfile returns the secret-free projection of a principal.
func (s *Service) GetProfile(ctx context.Context, principalID string) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, transient(err)
	}
	return profileOf(p), nil
}

// UpdateProfile changes mutable profile fields; credential and session state
// are untouched.
func (s *Service) UpdateProfile(ctx context.Context, principalID string, upd principals.ProfileUpdate) (*Profile, error) {
	p, err := s.repo.UpdateProfile(ctx, principalID, upd)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, transient(err)
	}
	return profileOf(p), nil
}

// Delete removes the principal immediately; there is no soft delete.
func (s *Service) Delete(ctx context.Context, principalID string) error {
	if err := s.repo.Delete(ctx, principalID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return transient(err)
	}
	return nil
}

func profileOf(p *principals.Principal) *Profile {
	return &Profile{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
	}
}

// transient wraps unexpected store failures so they stay distinguishable
// from credential failures. errors.Is(err, common.ErrorTransient) holds.
func transient(err error) error {
	return fmt.Errorf("%w: %v", common.ErrorTransient, err)
}
