package tradelog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"solana-sniper/internal/domain"
)

//go:embed migrations/001_trade_records.sql
var tradeRecordsSchema string

// pgErrUniqueViolation is the postgres unique_violation error code.
const pgErrUniqueViolation = "23505"

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to postgres and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, tradeRecordsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply trade log schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

const insertTradeQuery = `
	INSERT INTO trade_records (
		trade_id, mint, amount_in, amount_out, fee,
		entry_signature, exit_signature, entered_at, exited_at,
		exit_reason, profit, profit_pct, status
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12, $13
	)
`

const selectTradeColumns = `
	SELECT
		trade_id, mint, amount_in, amount_out, fee,
		entry_signature, exit_signature, entered_at, exited_at,
		exit_reason, profit, profit_pct, status
	FROM trade_records
`

func (s *PostgresStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	_, err := s.pool.Exec(ctx, insertTradeQuery,
		t.TradeID, t.Mint, t.AmountIn, t.AmountOut, t.Fee,
		t.EntrySignature, t.ExitSignature, t.EnteredAt, t.ExitedAt,
		t.ExitReason, t.Profit, t.ProfitPct, t.Status,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	row := s.pool.QueryRow(ctx, selectTradeColumns+" WHERE trade_id = $1", tradeID)
	t, err := scanTradeRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx, selectTradeColumns+" WHERE mint = $1 ORDER BY entered_at ASC, trade_id ASC", mint)
	if err != nil {
		return nil, fmt.Errorf("get trade records by mint: %w", err)
	}
	defer rows.Close()
	return scanTradeRecords(rows)
}

func (s *PostgresStore) GetAll(ctx context.Context) ([]*domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx, selectTradeColumns+" ORDER BY entered_at ASC, trade_id ASC")
	if err != nil {
		return nil, fmt.Errorf("get all trade records: %w", err)
	}
	defer rows.Close()
	return scanTradeRecords(rows)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	err := row.Scan(
		&t.TradeID, &t.Mint, &t.AmountIn, &t.AmountOut, &t.Fee,
		&t.EntrySignature, &t.ExitSignature, &t.EnteredAt, &t.ExitedAt,
		&t.ExitReason, &t.Profit, &t.ProfitPct, &t.Status,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}
	return trades, nil
}

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	return false
}
