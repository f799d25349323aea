package principals

import "context"

// Repository is the session-store contract. Implementations return
// common.ErrorNotFound / common.ErrorConflict sentinels; any other error is
// treated as a transient store failure by the caller.
type Repository interface {
	// Create inserts a new principal and returns it with store-assigned
	// fields filled in. Returns common.ErrorConflict when the email is
	// already taken.
	Create(ctx context.Context, p *Principal) (*Principal, error)

	GetByEmail(ctx context.Context, email string) (*Principal, error)
	GetByID(ctx context.Context, id string) (*Principal, error)

	// SetRefreshTokenHash unconditionally replaces the stored refresh token
	// digest (signin: any previous session is superseded).
	SetRefreshTokenHash(ctx context.Context, id string, hash string) error

	// RotateRefreshTokenHash replaces oldHash with newHash only if oldHash
	// is still the stored value. Returns common.ErrorNotFound when the
	// stored digest has already moved on, so of two concurrent rotations
	// exactly one wins.
	RotateRefreshTokenHash(ctx context.Context, id string, oldHash, newHash string) error

	// ClearRefreshTokenHash ends the session. Clearing an already-empty
	// hash is not an error.
	ClearRefreshTokenHash(ctx context.Context, id string) error

	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*Principal, error)
	Delete(ctx context.Context, id string) error
}
