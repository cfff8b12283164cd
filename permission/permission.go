// Package permission decides which actor may change which document slot.
//
// The gate works on already authenticated actor attributes. Whether an owner
// actually owns the record is answered by an OwnershipChecker, the gate only
// says when that check is needed.
package permission

import (
	"context"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/slot"
)

// Role of an actor.
type Role string

// Known roles.
const (
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

// Action on a slot.
type Action string

// Known actions.
const (
	ActionInsert  Action = "insert"
	ActionReplace Action = "replace"
	ActionDelete  Action = "delete"
)

// Actor is an authenticated caller.
type Actor struct {
	ID   string `json:"id"   validate:"required"`
	Role Role   `json:"role" validate:"required,oneof=admin owner"`
}

// Decision is the outcome of CanPerform.
type Decision int

const (
	// Deny rejects the action.
	Deny Decision = iota
	// Allow permits the action.
	Allow
	// AllowIfOwner permits the action once ownership of the record is confirmed.
	AllowIfOwner
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case AllowIfOwner:
		return "allow_if_owner"
	default:
		return "deny"
	}
}

// CanPerform applies the slot policy:
//   - admin may do anything on any slot;
//   - owner may insert or replace on owner-editable slots, subject to ownership;
//   - owner may never delete;
//   - everything else is denied.
func CanPerform(actor Actor, def slot.Definition, action Action) Decision {
	switch actor.Role {
	case RoleAdmin:
		return Allow
	case RoleOwner:
		if action == ActionDelete {
			return Deny
		}
		if def.OwnerEditable && (action == ActionInsert || action == ActionReplace) {
			return AllowIfOwner
		}
		return Deny
	default:
		return Deny
	}
}

// OwnershipChecker reports whether an actor owns a record.
type OwnershipChecker interface {
	IsOwner(ctx context.Context, actor Actor, recordID string) (bool, error)
}

// Gate combines CanPerform with an ownership check.
type Gate struct {
	ownership OwnershipChecker
}

// NewGate creates a Gate.
func NewGate(ownership OwnershipChecker) *Gate {
	return &Gate{ownership: ownership}
}

// Authorize returns a PermissionDenied error unless actor may perform action
// on the slot of recordID. It must run before any blob is uploaded.
func (g *Gate) Authorize(ctx context.Context, actor Actor, def slot.Definition, action Action, recordID string) error {
	details := errx.D{
		"actor_id":   actor.ID,
		"actor_role": string(actor.Role),
		"slot":       string(def.Key),
		"action":     string(action),
		"record_id":  recordID,
	}

	switch CanPerform(actor, def, action) {
	case Allow:
		return nil
	case AllowIfOwner:
		owns, err := g.ownership.IsOwner(ctx, actor, recordID)
		if err != nil {
			return errx.Wrap(err, errx.WithDetails(details))
		}
		if !owns {
			return docerr.PermissionDenied("actor does not own the record", details)
		}
		return nil
	default:
		return docerr.PermissionDenied("action is not permitted on this slot", details)
	}
}

// AuthorizeSchemaChange permits changes of the record store schema to admins only.
func AuthorizeSchemaChange(actor Actor) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	return docerr.PermissionDenied("only admins may change season choices", errx.D{
		"actor_id":   actor.ID,
		"actor_role": string(actor.Role),
	})
}
