package models

import "scribe-service/internal/pkg/constvars"

// Session is the authenticated caller parsed from the JWT by the session
// middleware.
type Session struct {
	UserID     string `json:"userId"`
	FacilityID string `json:"facilityId"`
	RoleName   string `json:"roleName"`
}

func (s *Session) IsAdmin() bool {
	return s.RoleName == constvars.RoleAdmin
}
