package session

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"rental-directory/feature/importer/reconcile"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("import session not found")

// Session is a suspended import waiting for resolutions.
type Session struct {
	ID          string                          `json:"id"`
	Data        []byte                          `json:"data"`
	Format      string                          `json:"format"`
	Options     reconcile.Options               `json:"options"`
	Resolutions map[string]reconcile.Resolution `json:"resolutions,omitempty"`
	Missing     []reconcile.MissingEntity       `json:"missing"`
	CreatedAt   time.Time                       `json:"createdAt"`
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.Data = slices.Clone(s.Data)
	c.Resolutions = maps.Clone(s.Resolutions)
	c.Missing = slices.Clone(s.Missing)
	return &c
}

// Merge adds resolutions to the session, overriding earlier decisions for
// the same id.
func (s *Session) Merge(resolutions map[string]reconcile.Resolution) {
	if s.Resolutions == nil {
		s.Resolutions = make(map[string]reconcile.Resolution, len(resolutions))
	}
	maps.Copy(s.Resolutions, resolutions)
}

// Store keeps suspended import sessions until they are resumed or expire.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
