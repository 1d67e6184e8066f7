package auth

import (
	"github.com/samber/oops"

	"blog-api/internal/apperr"
)

// CanMutate reports whether actingID may modify a resource owned by ownerID.
// An empty acting identity never matches.
func CanMutate(actingID, ownerID string) bool {
	return actingID != "" && actingID == ownerID
}

// RequireOwner returns a FORBIDDEN error unless actingID owns the resource.
func RequireOwner(actingID, ownerID string) error {
	if CanMutate(actingID, ownerID) {
		return nil
	}
	return oops.Code(apperr.CodeForbidden).
		With("user_id", actingID).
		Errorf("not allowed to modify this resource")
}
