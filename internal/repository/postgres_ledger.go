package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

// PostgresLedger stores loan records in PostgreSQL. History rows are only ever
// inserted, and their serial id fixes the order.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (r *PostgresLedger) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS loan_records (
			request_id VARCHAR(255) PRIMARY KEY,
			client_id VARCHAR(255) NOT NULL,
			loan_amount NUMERIC NOT NULL,
			status VARCHAR(20) NOT NULL,
			verdict TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loan_records_status ON loan_records(status)`,
		`CREATE TABLE IF NOT EXISTS loan_history (
			id BIGSERIAL PRIMARY KEY,
			request_id VARCHAR(255) NOT NULL REFERENCES loan_records(request_id),
			recorded_at TIMESTAMPTZ NOT NULL,
			service VARCHAR(50) NOT NULL,
			request JSONB,
			response JSONB,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loan_history_request ON loan_history(request_id, id)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func (r *PostgresLedger) Create(ctx context.Context, record *models.LoanRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	created := record.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO loan_records (request_id, client_id, loan_amount, status, verdict, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (request_id) DO NOTHING
	`, record.RequestID, record.ClientID, record.LoanAmount, record.Status, record.Verdict, record.Reason, created)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrDuplicateRequest
	}

	for _, entry := range record.History {
		if err := insertHistory(ctx, tx, record.RequestID, entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresLedger) Get(ctx context.Context, requestID string) (*models.LoanRecord, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec := models.LoanRecord{RequestID: requestID}
	err = tx.QueryRowContext(ctx, `
		SELECT client_id, loan_amount, status, verdict, reason, created_at, updated_at
		FROM loan_records WHERE request_id = $1
	`, requestID).Scan(&rec.ClientID, &rec.LoanAmount, &rec.Status, &rec.Verdict, &rec.Reason, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT recorded_at, service, request, response, error
		FROM loan_history WHERE request_id = $1 ORDER BY id
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec.History = []models.CallRecord{}
	for rows.Next() {
		var (
			entry     models.CallRecord
			req, resp []byte
			callErr   sql.NullString
		)
		if err := rows.Scan(&entry.Timestamp, &entry.Service, &req, &resp, &callErr); err != nil {
			return nil, err
		}
		entry.Request = json.RawMessage(req)
		entry.Response = json.RawMessage(resp)
		entry.Error = callErr.String
		rec.History = append(rec.History, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *PostgresLedger) AppendHistory(ctx context.Context, requestID string, entry models.CallRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE loan_records SET updated_at = NOW() WHERE request_id = $1`, requestID)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return err
	} else if rows == 0 {
		return models.ErrNotFound
	}

	if err := insertHistory(ctx, tx, requestID, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresLedger) SetStatus(ctx context.Context, requestID string, status models.LoanStatus, verdict string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE loan_records
		SET status = $1, verdict = $2, reason = CASE WHEN $1 = 'refused' AND $2 <> '' THEN $2 ELSE reason END, updated_at = NOW()
		WHERE request_id = $3
	`, status, verdict, requestID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostgresLedger) TransitionStatus(ctx context.Context, requestID string, from, to models.LoanStatus, verdict string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE loan_records
		SET status = $1, verdict = $2, reason = CASE WHEN $1 = 'refused' AND $2 <> '' THEN $2 ELSE reason END, updated_at = NOW()
		WHERE request_id = $3 AND status = $4
	`, to, verdict, requestID, from)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM loan_records WHERE request_id = $1)`, requestID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, models.ErrNotFound
	}
	return false, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, requestID string, entry models.CallRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO loan_history (request_id, recorded_at, service, request, response, error)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, requestID, entry.Timestamp, entry.Service, jsonParam(entry.Request), jsonParam(entry.Response), nullString(entry.Error))
	return err
}

// jsonParam passes JSONB as text; lib/pq would send a []byte as bytea.
func jsonParam(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
