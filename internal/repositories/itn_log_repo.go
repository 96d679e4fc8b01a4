package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"payfastBack/internal/models"
)

const createITNTable = `CREATE TABLE IF NOT EXISTS itn_notifications (
	id             VARCHAR(36) PRIMARY KEY,
	pf_payment_id  VARCHAR(64) NOT NULL,
	m_payment_id   VARCHAR(64) NOT NULL,
	payment_status VARCHAR(32) NOT NULL,
	signature_ok   BOOLEAN NOT NULL,
	amount_ok      BOOLEAN NOT NULL,
	status_ok      BOOLEAN NOT NULL,
	outcome        VARCHAR(16) NOT NULL,
	invoice_no     VARCHAR(64) NOT NULL,
	payload        TEXT NOT NULL,
	received_at    TIMESTAMP NOT NULL
)`

// ITNLogRepo appends processed notifications to the itn_notifications table.
// Queries are written with ? placeholders and rebound for pgx.
type ITNLogRepo struct {
	db     *sql.DB
	dollar bool
}

// NewITNLogRepo wraps db. driver is the database/sql driver name.
func NewITNLogRepo(db *sql.DB, driver string) *ITNLogRepo {
	return &ITNLogRepo{db: db, dollar: driver == "pgx"}
}

func (r *ITNLogRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createITNTable); err != nil {
		return fmt.Errorf("create itn_notifications: %w", err)
	}
	return nil
}

func (r *ITNLogRepo) Record(ctx context.Context, e models.ITNLogEntry) error {
	q := r.rebind(`INSERT INTO itn_notifications
		(id, pf_payment_id, m_payment_id, payment_status, signature_ok, amount_ok, status_ok, outcome, invoice_no, payload, received_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.PFPaymentID, e.MPaymentID, e.PaymentStatus,
		e.SignatureOK, e.AmountOK, e.StatusOK,
		e.Outcome, e.InvoiceNo, e.Payload, e.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert itn notification: %w", err)
	}
	return nil
}

// ListByPaymentID returns every delivery recorded for pfPaymentID, oldest first.
func (r *ITNLogRepo) ListByPaymentID(ctx context.Context, pfPaymentID string) ([]models.ITNLogEntry, error) {
	q := r.rebind(`SELECT id, pf_payment_id, m_payment_id, payment_status, signature_ok, amount_ok, status_ok, outcome, invoice_no, payload, received_at
		FROM itn_notifications WHERE pf_payment_id = ? ORDER BY received_at, id`)
	rows, err := r.db.QueryContext(ctx, q, pfPaymentID)
	if err != nil {
		return nil, fmt.Errorf("query itn notifications: %w", err)
	}
	defer rows.Close()

	var out []models.ITNLogEntry
	for rows.Next() {
		var e models.ITNLogEntry
		if err := rows.Scan(
			&e.ID, &e.PFPaymentID, &e.MPaymentID, &e.PaymentStatus,
			&e.SignatureOK, &e.AmountOK, &e.StatusOK,
			&e.Outcome, &e.InvoiceNo, &e.Payload, &e.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan itn notification: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ITNLogRepo) rebind(q string) string {
	if !r.dollar {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
