package domain

import (
	"fmt"
	"sort"

	apperrors "examclock/internal/platform/errors"
)

// Pool tags which side of the idle/active split a subject is on.
type Pool uint8

const (
	PoolIdle Pool = iota
	PoolActive
)

func (p Pool) String() string {
	if p == PoolActive {
		return "active"
	}
	return "idle"
}

type registryEntry struct {
	subject *Subject
	pool    Pool
}

// Registry is the single source of truth for known subjects. Every subject
// carries exactly one pool tag, so idle and active can never overlap.
type Registry struct {
	entries map[int64]*registryEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[int64]*registryEntry)}
}

// Add registers subject in the idle pool.
func (r *Registry) Add(subject *Subject) error {
	if _, ok := r.entries[subject.ID]; ok {
		return fmt.Errorf("%w: subject id %d", apperrors.ErrDuplicate, subject.ID)
	}
	if existing, ok := r.FindByIdentity(subject.Name, subject.Level); ok {
		return fmt.Errorf("%w: subject %q", apperrors.ErrDuplicate, existing.DisplayName())
	}
	r.entries[subject.ID] = &registryEntry{subject: subject, pool: PoolIdle}
	return nil
}

func (r *Registry) Get(id int64) (*Subject, Pool, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, PoolIdle, fmt.Errorf("%w: subject %d", apperrors.ErrNotFound, id)
	}
	return entry.subject, entry.pool, nil
}

func (r *Registry) Remove(id int64) (*Subject, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: subject %d", apperrors.ErrNotFound, id)
	}
	delete(r.entries, id)
	return entry.subject, nil
}

func (r *Registry) Move(id int64, pool Pool) error {
	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: subject %d", apperrors.ErrNotFound, id)
	}
	entry.pool = pool
	return nil
}

// FindByIdentity looks up a subject by case-insensitive name and level.
func (r *Registry) FindByIdentity(name string, level Level) (*Subject, bool) {
	for _, entry := range r.entries {
		if entry.subject.SameIdentity(name, level) {
			return entry.subject, true
		}
	}
	return nil, false
}

func (r *Registry) Idle() []*Subject   { return r.pool(PoolIdle, true) }
func (r *Registry) Active() []*Subject { return r.pool(PoolActive, true) }

// All returns every subject in creation order.
func (r *Registry) All() []*Subject { return r.pool(PoolIdle, false) }

func (r *Registry) Len() int { return len(r.entries) }

func (r *Registry) pool(pool Pool, filter bool) []*Subject {
	out := make([]*Subject, 0, len(r.entries))
	for _, entry := range r.entries {
		if filter && entry.pool != pool {
			continue
		}
		out = append(out, entry.subject)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
