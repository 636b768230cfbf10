package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"go.uber.org/zap"
)

// EmpresaPermissionRepository implements repositories.EmpresaPermissionRepository
type EmpresaPermissionRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewEmpresaPermissionRepository creates a new organization-type overlay repository
func NewEmpresaPermissionRepository(db *DB, logger *zap.Logger) repositories.EmpresaPermissionRepository {
	return &EmpresaPermissionRepository{
		db:     db,
		logger: logger,
	}
}

// GetByType retrieves the overlay of one organization type
func (r *EmpresaPermissionRepository) GetByType(ctx context.Context, empresaType models.EmpresaType) (*models.EmpresaPermission, error) {
	query := `
		SELECT id, empresa_type, permissions, created_at, updated_at
		FROM empresa_permissions
		WHERE empresa_type = $1
	`

	executor := GetExecutor(ctx, r.db, r.tx)
	ep := &models.EmpresaPermission{}
	err := executor.QueryRowContext(ctx, query, empresaType).Scan(
		&ep.ID,
		&ep.EmpresaType,
		&ep.Permissions,
		&ep.CreatedAt,
		&ep.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("empresa permission %s: %w", empresaType, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get empresa permission: %w", err)
	}

	return ep, nil
}

// List returns every stored overlay ordered by type
func (r *EmpresaPermissionRepository) List(ctx context.Context) ([]*models.EmpresaPermission, error) {
	query := `
		SELECT id, empresa_type, permissions, created_at, updated_at
		FROM empresa_permissions
		ORDER BY empresa_type
	`

	executor := GetExecutor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query empresa permissions: %w", err)
	}
	defer rows.Close()

	list := make([]*models.EmpresaPermission, 0)
	for rows.Next() {
		ep := &models.EmpresaPermission{}
		if err := rows.Scan(&ep.ID, &ep.EmpresaType, &ep.Permissions, &ep.CreatedAt, &ep.UpdatedAt); err != nil {
			r.logger.Warn("skipping unreadable empresa permission row", zap.Error(err))
			continue
		}
		list = append(list, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating empresa permission rows: %w", err)
	}

	return list, nil
}

// Upsert inserts the overlay or replaces the permissions of the existing one for the same type
func (r *EmpresaPermissionRepository) Upsert(ctx context.Context, ep *models.EmpresaPermission) error {
	query := `
		INSERT INTO empresa_permissions (id, empresa_type, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (empresa_type) DO UPDATE
		SET permissions = EXCLUDED.permissions,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	executor := GetExecutor(ctx, r.db, r.tx)
	err := executor.QueryRowContext(ctx, query,
		ep.ID,
		ep.EmpresaType,
		ep.Permissions,
		ep.CreatedAt,
		ep.UpdatedAt,
	).Scan(&ep.ID, &ep.CreatedAt)
	if err != nil {
		return mapWriteError("failed to upsert empresa permission", err)
	}

	r.logger.Debug("empresa permission saved",
		zap.String("id", ep.ID.String()),
		zap.String("empresa_type", string(ep.EmpresaType)),
	)
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *EmpresaPermissionRepository) WithTx(tx repositories.Transaction) repositories.EmpresaPermissionRepository {
	return &EmpresaPermissionRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}
