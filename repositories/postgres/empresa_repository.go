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

// EmpresaRepository implements the repositories.EmpresaRepository interface
type EmpresaRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewEmpresaRepository creates a new organization repository
func NewEmpresaRepository(db *DB, logger *zap.Logger) repositories.EmpresaRepository {
	return &EmpresaRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new organization
func (r *EmpresaRepository) Create(ctx context.Context, empresa *models.Empresa) error {
	query := `
		INSERT INTO empresas (id, nome, tipo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	executor := GetExecutor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		empresa.ID,
		empresa.Nome,
		empresa.Tipo,
		empresa.CreatedAt,
		empresa.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("failed to create empresa", err)
	}

	r.logger.Debug("empresa created", zap.String("id", empresa.ID.String()), zap.String("tipo", string(empresa.Tipo)))
	return nil
}

// GetByID retrieves an organization by ID
func (r *EmpresaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Empresa, error) {
	query := `
		SELECT id, nome, tipo, created_at, updated_at
		FROM empresas
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db, r.tx)
	empresa := &models.Empresa{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&empresa.ID,
		&empresa.Nome,
		&empresa.Tipo,
		&empresa.CreatedAt,
		&empresa.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("empresa %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get empresa: %w", err)
	}

	return empresa, nil
}

// List retrieves organizations with pagination, ordered by name
func (r *EmpresaRepository) List(ctx context.Context, limit, offset int) ([]*models.Empresa, error) {
	query := `
		SELECT id, nome, tipo, created_at, updated_at
		FROM empresas
		ORDER BY nome
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query empresas: %w", err)
	}
	defer rows.Close()

	var empresas []*models.Empresa
	for rows.Next() {
		empresa := &models.Empresa{}
		if err := rows.Scan(&empresa.ID, &empresa.Nome, &empresa.Tipo, &empresa.CreatedAt, &empresa.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan empresa: %w", err)
		}
		empresas = append(empresas, empresa)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating empresa rows: %w", err)
	}

	return empresas, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *EmpresaRepository) WithTx(tx repositories.Transaction) repositories.EmpresaRepository {
	return &EmpresaRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}
