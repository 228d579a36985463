package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/repository/base"
)

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db base.DB) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(db)}
}

// GetProfile получает профиль пользователя по ID
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `
		SELECT id, email, COALESCE(full_name, ''), created_at
		FROM profiles
		WHERE id = $1
	`

	var profile model.Profile
	err := r.DB().QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.Email,
		&profile.FullName,
		&profile.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &profile, nil
}

// IsAdmin проверяет, есть ли у пользователя роль администратора
func (r *UserRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_roles
			WHERE user_id = $1 AND role = $2
		)
	`

	var exists bool
	err := r.DB().QueryRow(ctx, query, userID, string(model.RoleAdmin)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin role: %w", err)
	}

	return exists, nil
}

// GetRoles получает все роли пользователя
func (r *UserRepository) GetRoles(ctx context.Context, userID string) ([]model.Role, error) {
	query := `
		SELECT role
		FROM user_roles
		WHERE user_id = $1
		ORDER BY role
	`

	rows, err := r.DB().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, model.Role(role))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}
