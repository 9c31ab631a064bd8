package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vitalmine-server/internal/models"
	"vitalmine-server/internal/repository"
)

// DemoPassword is shared by every demo account.
const DemoPassword = "password123"

// DemoUsers are created by SeedDemoUsers, one per role.
var DemoUsers = []models.User{
	{Username: "admin", Role: models.RoleAdmin},
	{Username: "doctor", Role: models.RoleClinician},
	{Username: "nurse", Role: models.RoleDataEntry},
	{Username: "patient_om", Role: models.RoleSubject},
}

// SeedDemoUsers creates any missing demo account and leaves existing ones
// alone.
func SeedDemoUsers(ctx context.Context, users repository.UserRepository, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	for _, demo := range DemoUsers {
		_, err := users.GetByUsername(ctx, demo.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("seed %s: %w", demo.Username, err)
		}

		u := models.User{Username: demo.Username, Role: demo.Role}
		if err := u.SetPassword(DemoPassword); err != nil {
			return fmt.Errorf("seed %s: %w", demo.Username, err)
		}
		if err := users.Create(ctx, &u); err != nil {
			return fmt.Errorf("seed %s: %w", demo.Username, err)
		}
		log.Info("demo user created", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	}
	return nil
}
