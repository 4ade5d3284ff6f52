package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) error {
	query := `
		INSERT INTO admins (username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	admin.Touch(time.Now())

	err := r.db.QueryRowxContext(ctx, query,
		admin.Username,
		admin.PasswordHash,
		admin.CreatedAt,
		admin.UpdatedAt,
	).Scan(&admin.ID)
	return translate("failed to create admin", err)
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	query := `
		SELECT id, username, password_hash, created_at, updated_at
		FROM admins
		WHERE username = $1
	`
	var admin model.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		return nil, translate("failed to get admin", err)
	}
	return &admin, nil
}
