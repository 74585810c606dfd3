package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lunchpaillola/api-module-library/core"
	"github.com/uptrace/bun"
)

type oauthStateRecord struct {
	bun.BaseModel `bun:"table:module_oauth_states,alias:mos"`

	State       string    `bun:"state,pk"`
	ModuleName  string    `bun:"module_name,notnull"`
	UserID      string    `bun:"user_id,notnull"`
	RedirectURI string    `bun:"redirect_uri,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	ExpiresAt   time.Time `bun:"expires_at,notnull"`
}

// OAuthStateStore keeps issued states in module_oauth_states so a callback
// can be verified by a different process than the one that issued it.
type OAuthStateStore struct {
	db  *bun.DB
	ttl time.Duration
	now func() time.Time
}

func NewOAuthStateStore(db *bun.DB, ttl time.Duration) (*OAuthStateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if ttl <= 0 {
		ttl = core.DefaultOAuthStateTTL
	}
	return &OAuthStateStore{db: db, ttl: ttl, now: time.Now}, nil
}

// Save stores record and deletes states that expired before now.
func (s *OAuthStateStore) Save(ctx context.Context, record core.OAuthStateRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: oauth state store is not configured")
	}
	now := s.now().UTC()
	record, err := record.Normalize(now, s.ttl)
	if err != nil {
		return err
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*oauthStateRecord)(nil)).
			Where("expires_at < ?", now).
			Exec(ctx); err != nil {
			return fmt.Errorf("sqlstore: prune oauth states: %w", err)
		}
		row := &oauthStateRecord{
			State:       record.State,
			ModuleName:  strings.TrimSpace(record.ModuleName),
			UserID:      strings.TrimSpace(record.UserID),
			RedirectURI: strings.TrimSpace(record.RedirectURI),
			CreatedAt:   record.CreatedAt.UTC(),
			ExpiresAt:   record.ExpiresAt.UTC(),
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("sqlstore: save oauth state: %w", err)
		}
		return nil
	})
}

// Consume deletes the state and returns it. Only the caller whose delete
// removes the row receives the record.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) (core.OAuthStateRecord, error) {
	if s == nil || s.db == nil {
		return core.OAuthStateRecord{}, fmt.Errorf("sqlstore: oauth state store is not configured")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return core.OAuthStateRecord{}, fmt.Errorf("sqlstore: oauth state is required")
	}

	var out core.OAuthStateRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &oauthStateRecord{}
		err := tx.NewSelect().
			Model(row).
			Where("?TableAlias.state = ?", state).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrOAuthStateNotFound
			}
			return err
		}
		res, err := tx.NewDelete().
			Model((*oauthStateRecord)(nil)).
			Where("state = ?", state).
			Exec(ctx)
		if err != nil {
			return err
		}
		if err := requireAffected(res, core.ErrOAuthStateNotFound, state); err != nil {
			return err
		}
		out = core.OAuthStateRecord{
			State:       row.State,
			ModuleName:  row.ModuleName,
			UserID:      row.UserID,
			RedirectURI: row.RedirectURI,
			CreatedAt:   row.CreatedAt,
			ExpiresAt:   row.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return core.OAuthStateRecord{}, err
	}
	if out.Expired(s.now().UTC()) {
		return core.OAuthStateRecord{}, core.ErrOAuthStateExpired
	}
	return out, nil
}
