package guard

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	defaultActivityPageSize = 50
	maxActivityPageSize     = 200
)

// ActivityRepository is the bun-backed audit store. Records are append-only:
// this type exposes no update or delete path.
type ActivityRepository struct {
	db bun.IDB
}

var (
	_ ActivityStore  = (*ActivityRepository)(nil)
	_ ActivityReader = (*ActivityRepository)(nil)
)

// NewActivityRepository creates the audit record store.
func NewActivityRepository(db *bun.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CreateRecord inserts an audit record. ID and RecordedAt are generated when
// empty.
func (r *ActivityRepository) CreateRecord(ctx context.Context, record *ActivityRecord) error {
	if record == nil {
		return errors.New("activity record must not be nil", errors.CategoryBadInput)
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to insert activity record")
	}

	return nil
}

// ListRecords returns audit records matching the filter, most recent first.
func (r *ActivityRepository) ListRecords(ctx context.Context, filter ActivityFilter) (*ActivityPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultActivityPageSize
	}
	if filter.Limit > maxActivityPageSize {
		filter.Limit = maxActivityPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	records := []ActivityRecord{}
	q := r.db.NewSelect().Model(&records)

	if filter.Action != "" {
		q = q.Where("?TableAlias.action = ?", filter.Action)
	}
	if filter.ActorID != nil {
		q = q.Where("?TableAlias.actor_id = ?", *filter.ActorID)
	}
	if filter.Success != nil {
		q = q.Where("?TableAlias.success = ?", *filter.Success)
	}

	total, err := q.
		Order("recorded_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list activity records")
	}

	return &ActivityPage{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// LoginSessionRepository is the bun-backed LoginSessionStore.
type LoginSessionRepository struct {
	db  bun.IDB
	now func() time.Time
}

var _ LoginSessionStore = (*LoginSessionRepository)(nil)

// NewLoginSessionRepository creates the login session store.
func NewLoginSessionRepository(db *bun.DB) *LoginSessionRepository {
	return &LoginSessionRepository{db: db, now: time.Now}
}

// Open inserts a new login session. ID and LoginAt are generated when empty.
func (r *LoginSessionRepository) Open(ctx context.Context, session *LoginSession) error {
	if session == nil {
		return errors.New("login session must not be nil", errors.CategoryBadInput)
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.LoginAt.IsZero() {
		session.LoginAt = r.now().UTC()
	}

	if _, err := r.db.NewInsert().Model(session).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to open login session")
	}

	return nil
}

// Close stamps the logout time on the open session for the fingerprint and
// computes the duration once. Closing an already-closed session returns the
// stored record unchanged.
func (r *LoginSessionRepository) Close(ctx context.Context, fingerprint string, at time.Time) (*LoginSession, error) {
	session, err := r.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"fingerprint": fingerprint})
	}

	if !session.Open() {
		return session, nil
	}

	session.close(at)

	_, err = r.db.NewUpdate().
		Model(session).
		Column("logout_at", "duration_seconds").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to close login session")
	}

	return session, nil
}

// Revoke flips the logical revoked flag for every session carrying the
// fingerprint.
func (r *LoginSessionRepository) Revoke(ctx context.Context, fingerprint string) error {
	_, err := r.db.NewUpdate().
		Model((*LoginSession)(nil)).
		Set("revoked = ?", true).
		Where("token_fingerprint = ?", fingerprint).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke login session")
	}
	return nil
}

// FindByFingerprint returns the most recent session for the fingerprint, or
// (nil, nil) when none exists.
func (r *LoginSessionRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*LoginSession, error) {
	session := &LoginSession{}
	err := r.db.NewSelect().
		Model(session).
		Where("?TableAlias.token_fingerprint = ?", fingerprint).
		Order("login_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to find login session")
	}

	return session, nil
}
