package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rootzapp/storefront/internal/model"
	"github.com/rootzapp/storefront/internal/repository"
)

// compile-time check that *DB implements repository.SessionStore
var _ repository.SessionStore = (*DB)(nil)

// Load reads the persisted session snapshot.
//
// Absent state is (nil, nil). A row whose profile JSON will not unmarshal is
// returned as an error — the session manager treats that the same as absence
// and clears it; corruption of a cache is recovered, never fatal.
func (db *DB) Load(ctx context.Context) (*repository.SessionSnapshot, error) {
	var (
		credential  string
		profileJSON string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT credential, profile FROM session WHERE slot = 1`,
	).Scan(&credential, &profileJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: loading session: %w", err)
	}

	var profile model.Profile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		return nil, fmt.Errorf("sqlite: persisted profile is not valid JSON: %w", err)
	}

	return &repository.SessionSnapshot{
		Credential: credential,
		Profile:    &profile,
	}, nil
}

// Save writes the snapshot, replacing any previous one. Credential and
// profile land in one row via one statement, so the pair is atomic — no
// reader observes one without the other.
func (db *DB) Save(ctx context.Context, snap *repository.SessionSnapshot) error {
	if snap == nil || snap.Credential == "" || snap.Profile == nil {
		return fmt.Errorf("sqlite: refusing to persist a partial session snapshot")
	}

	profileJSON, err := json.Marshal(snap.Profile)
	if err != nil {
		return fmt.Errorf("sqlite: encoding profile: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO session (slot, credential, profile, saved_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
			credential = excluded.credential,
			profile    = excluded.profile,
			saved_at   = excluded.saved_at`,
		snap.Credential,
		string(profileJSON),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving session: %w", err)
	}

	return nil
}

// Clear removes the snapshot. Deleting an already-empty table is fine —
// Clear is idempotent by construction.
func (db *DB) Clear(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("sqlite: clearing session: %w", err)
	}
	return nil
}
