package auth

import (
	"time"

	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/google/uuid"
)

// LoginRequest captures the admin credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token issued at login.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AdminDTO is the signed-in admin as exposed to clients.
type AdminDTO struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	Role        enums.AdminRole `json:"role"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
}

// LoginResponse contains the token pair and the admin.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         AdminDTO  `json:"user"`
}

// SessionInfo describes the current access session.
type SessionInfo struct {
	AccessID  string    `json:"access_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionState is the session probe payload. Loading is always false once the
// server answers; clients render their placeholder until then.
type SessionState struct {
	Loading bool         `json:"loading"`
	Session *SessionInfo `json:"session"`
	User    *AdminDTO    `json:"user"`
}

// FromModel converts an admin row to its DTO.
func FromModel(m *models.AdminUser) AdminDTO {
	return AdminDTO{ID: m.ID, Email: m.Email, Role: m.Role, LastLoginAt: m.LastLoginAt}
}
