package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminStatus answers whether an admin account is still enabled.
type AdminStatus struct {
	admins AdminRepository
}

func NewAdminStatus(admins AdminRepository) *AdminStatus {
	return &AdminStatus{admins: admins}
}

// IsActive reports false for unknown or deactivated accounts.
func (s *AdminStatus) IsActive(ctx context.Context, adminID uuid.UUID) (bool, error) {
	admin, err := s.admins.FindByID(ctx, adminID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return admin.IsActive, nil
}
