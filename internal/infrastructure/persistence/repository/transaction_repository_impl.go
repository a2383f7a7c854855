package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

const uniqueViolation = "23505"

// TransactionRepositoryImpl implements TransactionRepository
type TransactionRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(pool *pgxpool.Pool) repository.TransactionRepository {
	return &TransactionRepositoryImpl{pool: pool}
}

const transactionColumns = `id, method_id, mode, status, amount, currency, customer_id, remote_customer_id, parent_id, description, created_at, updated_at`

// Create persists a new transaction
func (r *TransactionRepositoryImpl) Create(ctx context.Context, txn *entity.Transaction) error {
	query := `
		INSERT INTO transactions (id, method_id, mode, status, amount, currency, customer_id, remote_customer_id, parent_id, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		txn.ID,
		txn.MethodID,
		txn.Mode,
		txn.Status,
		txn.Amount,
		txn.Currency,
		txn.CustomerID,
		txn.RemoteCustomerID,
		txn.ParentID,
		txn.Description,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("method id %s: %w", txn.MethodID, domainErrors.ErrDuplicateMethodID)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := r.scanOne(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, domainErrors.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// GetByMethodID retrieves the transaction owning a gateway method id
func (r *TransactionRepositoryImpl) GetByMethodID(ctx context.Context, methodID string, mode valueobject.Mode) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE method_id = $1 AND mode = $2`

	txn, err := r.scanOne(r.pool.QueryRow(ctx, query, methodID, mode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transaction for method %s: %w", methodID, domainErrors.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction by method id: %w", err)
	}

	return txn, nil
}

// UpdateStatus atomically sets the status of the transaction owning the
// method id. A zero-row update is only a miss if the transaction does not
// exist; a status that already matches still counts as found.
func (r *TransactionRepositoryImpl) UpdateStatus(ctx context.Context, methodID string, mode valueobject.Mode, status valueobject.TransactionStatus) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $3, updated_at = NOW()
		WHERE method_id = $1 AND mode = $2 AND status <> $3
	`

	tag, err := r.pool.Exec(ctx, query, methodID, mode, status)
	if err != nil {
		return false, fmt.Errorf("failed to update transaction status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE method_id = $1 AND mode = $2)`,
		methodID, mode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}

	return exists, nil
}

// ConvertMethodID rewrites a temporary method id to the permanent charge id
func (r *TransactionRepositoryImpl) ConvertMethodID(ctx context.Context, oldID, newID string, mode valueobject.Mode) error {
	query := `
		UPDATE transactions
		SET method_id = $2, updated_at = NOW()
		WHERE method_id = $1 AND mode = $3
	`

	tag, err := r.pool.Exec(ctx, query, oldID, newID, mode)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("method id %s: %w", newID, domainErrors.ErrDuplicateMethodID)
		}
		return fmt.Errorf("failed to convert method id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction for method %s: %w", oldID, domainErrors.ErrTransactionNotFound)
	}

	return nil
}

func (r *TransactionRepositoryImpl) scanOne(row pgx.Row) (*entity.Transaction, error) {
	txn := &entity.Transaction{}
	err := row.Scan(
		&txn.ID,
		&txn.MethodID,
		&txn.Mode,
		&txn.Status,
		&txn.Amount,
		&txn.Currency,
		&txn.CustomerID,
		&txn.RemoteCustomerID,
		&txn.ParentID,
		&txn.Description,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Ensure implementation matches interface
var _ repository.TransactionRepository = (*TransactionRepositoryImpl)(nil)
