package auth

// SessionData represents the authenticated caller of an API request
type SessionData struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"` // "admin", "sponsor"
	ACL    string `json:"acl"`
}

// IsAdmin reports whether the caller authenticated as an admin
func (s *SessionData) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Can reports whether the caller's ACL grants capability
func (s *SessionData) Can(capability string) bool {
	return HasAccess(s.ACL, capability)
}
