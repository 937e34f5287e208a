package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
)

// DuplicateResolver answers whether an email is already taken in the store
// bound to a user type.
type DuplicateResolver struct {
	bindings roleBindings
}

func newDuplicateResolver(bindings roleBindings) *DuplicateResolver {
	return &DuplicateResolver{bindings: bindings}
}

// IsDuplicate queries the store every time; results are never cached so a
// record inserted earlier in the same batch is seen by later rows.
func (r *DuplicateResolver) IsDuplicate(ctx context.Context, userType models.UserType, email string) (bool, error) {
	binding, ok := r.bindings[userType]
	if !ok {
		return false, fmt.Errorf("no store bound to user type %q", userType)
	}
	exists, err := binding.exists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("lookup %s email: %w", userType, err)
	}
	return exists, nil
}
