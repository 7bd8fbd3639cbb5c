package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"wallet-service/internal/core/domain/entity"
)

const uniqueViolation = "23505"

const transactionColumns = `
	id, account, amount, direction, status, reference, proof_ref,
	description, idempotency_key, created_at, updated_at`

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func (r *PostgresTransactionRepository) Append(ctx context.Context, tx *entity.Transaction, outbox *entity.Outbox) error {
	dbTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	if err := insertTransaction(ctx, dbTx, tx); err != nil {
		return err
	}
	if err := insertOutbox(ctx, dbTx, outbox); err != nil {
		return err
	}

	return dbTx.Commit()
}

// AppendDebit takes a transaction-scoped advisory lock on the account, so
// concurrent debits for the same account queue behind each other, then
// recomputes the approved balance before inserting.
func (r *PostgresTransactionRepository) AppendDebit(ctx context.Context, tx *entity.Transaction, outbox *entity.Outbox) error {
	dbTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	if _, err := dbTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, tx.Account); err != nil {
		return fmt.Errorf("lock account: %w", err)
	}

	const balanceQuery = `
		SELECT
			COALESCE(SUM(CASE WHEN direction = 'CREDIT' THEN amount ELSE 0 END), 0) -
			COALESCE(SUM(CASE WHEN direction = 'DEBIT'  THEN amount ELSE 0 END), 0) AS balance
		FROM wallet_transactions
		WHERE account = $1
		  AND status = 'APPROVED'
	`
	var balance int64
	if err := dbTx.QueryRowContext(ctx, balanceQuery, tx.Account).Scan(&balance); err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	if balance < tx.Amount {
		return &entity.InsufficientFundsError{Requested: tx.Amount, Available: max(balance, 0)}
	}

	if err := insertTransaction(ctx, dbTx, tx); err != nil {
		return err
	}
	if err := insertOutbox(ctx, dbTx, outbox); err != nil {
		return err
	}

	return dbTx.Commit()
}

func (r *PostgresTransactionRepository) FindByID(ctx context.Context, id string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE id = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return tx, nil
}

func (r *PostgresTransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE idempotency_key = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction by idempotency key: %w", err)
	}
	return tx, nil
}

func (r *PostgresTransactionRepository) ListByAccount(ctx context.Context, account string) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE account = $1
		ORDER BY seq DESC`

	rows, err := r.db.QueryContext(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*entity.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// SetStatus only ever updates a PENDING row, so a transition is consumed at
// most once regardless of how many callers race for it.
func (r *PostgresTransactionRepository) SetStatus(
	ctx context.Context,
	id string,
	status entity.TransactionStatus,
	note string,
	outbox *entity.Outbox,
) (*entity.Transaction, error) {
	if err := entity.ValidateTransition(entity.StatusPending, status); err != nil {
		return nil, err
	}

	dbTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	update := `
		UPDATE wallet_transactions
		SET status = $2,
		    description = CASE WHEN $3 = '' THEN description ELSE $3 END,
		    updated_at = $4
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(dbTx.QueryRowContext(ctx, update, id, string(status), note, time.Now().UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := dbTx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM wallet_transactions WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check transaction: %w", err)
		}
		if !exists {
			return nil, entity.ErrTransactionNotFound
		}
		return nil, entity.ErrInvalidStateTransition
	}
	if err != nil {
		return nil, fmt.Errorf("update transaction status: %w", err)
	}

	if err := insertOutbox(ctx, dbTx, outbox); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return tx, nil
}

func insertTransaction(ctx context.Context, dbTx *sql.Tx, tx *entity.Transaction) error {
	const insertTx = `
		INSERT INTO wallet_transactions (
			id, account, amount, direction, status, reference, proof_ref,
			description, idempotency_key, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var key sql.NullString
	if tx.IdempotencyKey != nil {
		key = sql.NullString{String: *tx.IdempotencyKey, Valid: true}
	}

	if _, err := dbTx.ExecContext(ctx, insertTx,
		tx.ID, tx.Account, tx.Amount, string(tx.Direction), string(tx.Status),
		tx.Reference, tx.ProofRef, tx.Description, key, tx.CreatedAt, tx.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			if key.Valid {
				return entity.ErrDuplicateIdempotencyKey
			}
			return entity.ErrDuplicateTransaction
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func insertOutbox(ctx context.Context, dbTx *sql.Tx, outbox *entity.Outbox) error {
	if outbox == nil {
		return nil
	}

	const insertOutbox = `
		INSERT INTO outbox (id, aggregate_id, type, payload, status, attempts, next_attempt_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := dbTx.ExecContext(ctx, insertOutbox,
		outbox.ID, outbox.AggregateID, outbox.Type, outbox.Payload,
		string(outbox.Status), outbox.Attempts, outbox.NextAttemptAt, outbox.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*entity.Transaction, error) {
	var (
		tx  entity.Transaction
		key sql.NullString
	)
	if err := row.Scan(
		&tx.ID, &tx.Account, &tx.Amount, &tx.Direction, &tx.Status,
		&tx.Reference, &tx.ProofRef, &tx.Description, &key,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if key.Valid {
		k := key.String
		tx.IdempotencyKey = &k
	}
	tx.CreatedAt = tx.CreatedAt.UTC()
	tx.UpdatedAt = tx.UpdatedAt.UTC()
	return &tx, nil
}

// isUniqueViolation understands both drivers selectable through DB_DRIVER.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}
