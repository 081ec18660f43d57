package services

import (
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	apperrors "github.com/VarunVijay1912/inventory-exchange-backend/pkg/errors"
)

type AccessAction string

const (
	ActionRead  AccessAction = "read"
	ActionWrite AccessAction = "write"
)

// Authorize gates every conversation read and write to the two participants.
// There is no admin bypass here; moderation tooling goes through its own
// surface. Denied writes report NotParticipant, denied reads Forbidden.
func Authorize(userID string, conv *models.Conversation, action AccessAction) error {
	if conv.IsParticipant(userID) {
		return nil
	}
	if action == ActionWrite {
		return apperrors.ErrNotParticipant
	}
	return apperrors.ErrForbidden
}
