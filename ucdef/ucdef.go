// Package ucdef defines the use case shapes that transports forward requests to.
package ucdef

import "context"

// TypeUserAction is the use case type of synchronous user operations.
const TypeUserAction = "user_action"

// UserAction represents a synchronous operation triggered by a user request.
// The caller waits for the result and errors are returned to it directly.
//
// Type parameters:
//   - I: Input data type (request payload)
//   - O: Output data type (result of the operation)
type UserAction[I, O any] interface {
	// OperationID returns a unique identifier for the use case.
	OperationID() string

	// Execute executes the use case.
	Execute(ctx context.Context, in I) (O, error)
}

// NewUserAction adapts fn to a UserAction named operationID.
func NewUserAction[I, O any](operationID string, fn func(context.Context, I) (O, error)) UserAction[I, O] {
	return &userAction[I, O]{id: operationID, fn: fn}
}

type userAction[I, O any] struct {
	id string
	fn func(context.Context, I) (O, error)
}

func (u *userAction[I, O]) OperationID() string { return u.id }

func (u *userAction[I, O]) Execute(ctx context.Context, in I) (O, error) { return u.fn(ctx, in) }
