// Package repository defines the persistence interfaces the rest of the
// application programs against. Concrete implementations live in
// sub-packages (repository/sqlite).
package repository

import (
	"context"

	"github.com/rootzapp/storefront/internal/model"
)

// SessionSnapshot is the persisted session pair: the bearer credential and
// the profile it belongs to. The two are written and cleared as one unit —
// a credential without a profile (or vice versa) must never be observable.
type SessionSnapshot struct {
	Credential string         `json:"credential"`
	Profile    *model.Profile `json:"profile"`
}

// SessionStore persists the single session snapshot across process restarts.
// It is an opaque cache, not a database of record — losing it only means the
// user signs in again.
//
// Contract:
//   - Load returns (nil, nil) when nothing is persisted.
//   - Load returns an error for unreadable/corrupt state; the caller treats
//     that the same as absence.
//   - Save replaces the whole snapshot atomically.
//   - Clear is idempotent.
type SessionStore interface {
	Load(ctx context.Context) (*SessionSnapshot, error)
	Save(ctx context.Context, snap *SessionSnapshot) error
	Clear(ctx context.Context) error
}
