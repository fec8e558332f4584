package service

import (
	"context"
	"errors"

	"github.com/AmanCrafts/CraftBook/internal/repository"
)

// Toggle actions reported to clients.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// ToggleResult is the outcome of flipping a relationship.
type ToggleResult struct {
	Active bool
	Action string
}

// relation is one (actor, target) edge that can be switched on and off.
//
// get reports whether the edge exists (a NotFound error means it does not),
// create inserts it (repository.ErrDuplicate when it already exists), and
// remove deletes it (NotFound when it was already gone).
type relation struct {
	get    func(ctx context.Context) error
	create func(ctx context.Context) error
	remove func(ctx context.Context) error
}

// toggle flips rel: present → removed, absent → added.
//
// CHECK-THEN-ACT WITHOUT A LOCK:
// Two concurrent toggles can both see "absent" and both try to insert. The
// UNIQUE constraint rejects the second one with ErrDuplicate, which here
// means the edge is already on: the caller asked for "added" and that is
// the state it is in. Symmetrically, a NotFound on delete means another
// request removed it first. Either way the relationship never has two rows
// and the caller gets the state it asked for.
func toggle(ctx context.Context, rel relation) (ToggleResult, error) {
	err := rel.get(ctx)
	switch {
	case err == nil:
		if err := rel.remove(ctx); err != nil && !isNotFound(err) {
			return ToggleResult{}, err
		}
		return ToggleResult{Active: false, Action: ActionRemoved}, nil

	case isNotFound(err):
		if err := rel.create(ctx); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return ToggleResult{}, err
		}
		return ToggleResult{Active: true, Action: ActionAdded}, nil

	default:
		return ToggleResult{}, err
	}
}
