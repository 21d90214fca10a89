// Package access decides conversation membership.
package access

import "medchat/backend/internal/models"

// Authorize reports whether identity is a participant of conv. It must be
// checked before any read or write of a conversation's messages; the store
// does not enforce it.
func Authorize(identity models.Identity, conv *models.Conversation) bool {
	if conv == nil || identity.ID == "" {
		return false
	}
	switch identity.Role {
	case models.RolePatient:
		return identity.ID == conv.PatientID
	case models.RoleClinician:
		return identity.ID == conv.ClinicianID
	default:
		return false
	}
}
