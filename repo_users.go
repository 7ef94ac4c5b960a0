package guard

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user store this package consumes. The generic repository
// covers CRUD; the directory methods are what the guard and the login flow
// actually use.
type Users interface {
	repository.Repository[*User]
	UserDirectory
	CredentialVerifier
}

type users struct {
	repository.Repository[*User]
	db     bun.IDB
	logger Logger
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// UsersOption customizes the users repository.
type UsersOption func(*users)

// WithUsersLogger overrides the default logger.
func WithUsersLogger(logger Logger) UsersOption {
	return func(u *users) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUsersRepository builds a bun-backed Users store.
func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

// FindByID resolves an identity by its id. Returns (nil, nil) when no record
// matches so the guard can map the miss to USER_NOT_FOUND.
func (a *users) FindByID(ctx context.Context, id string) (Identity, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, nil
	}

	record := &User{}
	err = a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", uid).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return IdentityFromUser(record), nil
}

// FindByEmail resolves an identity by email. Used by provisioning flows, not
// by the guard.
func (a *users) FindByEmail(ctx context.Context, email string) (Identity, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(strings.ToLower(email))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return IdentityFromUser(record), nil
}

// VerifyCredentials finds the user by email or username and compares the
// password against the stored hash. Lookup misses and hash mismatches both
// collapse to ErrMismatchedHashAndPassword so callers cannot probe for
// account existence.
func (a *users) VerifyCredentials(ctx context.Context, identifier, password string) (Identity, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ? OR ?TableAlias.username = ?", strings.TrimSpace(strings.ToLower(identifier)), identifier).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, err
	}

	if err := ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		return nil, err
	}

	return IdentityFromUser(record), nil
}
