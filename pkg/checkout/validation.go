package checkout

import (
	"github.com/google/uuid"

	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
)

// ValidateSelection checks the cart item IDs a client picked for an order.
// The list must be non-empty and free of duplicates.
func ValidateSelection(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "empty cart")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	var duplicates []uuid.UUID
	for _, id := range ids {
		if id == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart item id required")
		}
		if _, ok := seen[id]; ok {
			duplicates = append(duplicates, id)
			continue
		}
		seen[id] = struct{}{}
	}
	if len(duplicates) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "duplicate cart item ids").
			WithDetails(map[string]any{"duplicates": duplicates})
	}
	return nil
}

// MissingIDs returns the requested IDs absent from resolved, in request order.
func MissingIDs(requested, resolved []uuid.UUID) []uuid.UUID {
	found := make(map[uuid.UUID]struct{}, len(resolved))
	for _, id := range resolved {
		found[id] = struct{}{}
	}
	missing := []uuid.UUID{}
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// ResolutionError reports cart items that are absent or belong to someone else.
// Both cases share one message so ownership is never revealed.
func ResolutionError(requested, resolved []uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "items not found or not owned").
		WithDetails(map[string]any{"missing": MissingIDs(requested, resolved)})
}
