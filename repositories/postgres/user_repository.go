package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"go.uber.org/zap"
)

const userSelect = `
	SELECT u.id, u.email, u.nome, u.role, u.empresa_id, e.tipo, u.created_at, u.updated_at
	FROM users u
	LEFT JOIN empresas e ON e.id = u.empresa_id
`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, nome, role, empresa_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Nome,
		user.Role,
		user.EmpresaID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("failed to create user", err)
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()), zap.String("email", user.Email))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, userSelect+` WHERE u.id = $1`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, userSelect+` WHERE u.email = $1`, email)
}

// UpdateRole changes the role of a user
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.UserRole) error {
	return r.update(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
}

// UpdateEmpresa moves a user to another organization
func (r *UserRepository) UpdateEmpresa(ctx context.Context, id uuid.UUID, empresaID *uuid.UUID) error {
	return r.update(ctx, `UPDATE users SET empresa_id = $2, updated_at = NOW() WHERE id = $1`, id, empresaID)
}

// WithTx returns a new repository instance bound to the transaction
func (r *UserRepository) WithTx(tx repositories.Transaction) repositories.UserRepository {
	return &UserRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	executor := GetExecutor(ctx, r.db, r.tx)

	user := &models.User{}
	var empresaID uuid.NullUUID
	var empresaType sql.NullString

	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Nome,
		&user.Role,
		&empresaID,
		&empresaType,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %v: %w", arg, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if empresaID.Valid {
		user.EmpresaID = &empresaID.UUID
	}
	if empresaType.Valid {
		t := models.EmpresaType(empresaType.String)
		user.EmpresaType = &t
	}

	return user, nil
}

func (r *UserRepository) update(ctx context.Context, query string, id uuid.UUID, value interface{}) error {
	executor := GetExecutor(ctx, r.db, r.tx)
	result, err := executor.ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("user updated", zap.String("id", id.String()))
	return nil
}
