package models

// Role is the closed set of participant kinds that may take part in a conversation.
// Tokens may carry other role strings (e.g. "admin"); those are kept verbatim so
// that callers can reject them explicitly.
type Role string

const (
	RolePatient   Role = "patient"
	RoleClinician Role = "clinician"
)

// Valid reports whether r is one of the conversation roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleClinician:
		return true
	default:
		return false
	}
}

// Identity is the authenticated subject of a request, resolved from a bearer
// credential. It is never read from a request body.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
