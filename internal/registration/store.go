package registration

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a registration row does not exist.
var ErrNotFound = errors.New("registration: not found")

// Store persists registration rows in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore constructs a registration store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

const registrationColumns = `id, name, email, phone, college, year, event_id, event_name,
	amount, transaction_id, razorpay_order_id, razorpay_payment_id, status,
	attendance_marked, attendance_marked_at, created_at, updated_at`

// InsertPending creates a new registration row in pending status with a
// generated transaction id.
func (s *Store) InsertPending(ctx context.Context, input CreateInput) (Registration, error) {
	id := uuid.NewString()
	txnID := generateTransactionID()
	row := s.Pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO registrations
			(id, name, email, phone, college, year, event_id, event_name, amount, transaction_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending')
		RETURNING %s`, registrationColumns),
		id, input.Name, strings.ToLower(strings.TrimSpace(input.Email)), input.Phone,
		input.College, input.Year, input.EventID, input.EventName, input.Amount, txnID,
	)
	return scanRegistration(row)
}

// GetByID fetches a single registration.
func (s *Store) GetByID(ctx context.Context, id string) (Registration, error) {
	row := s.Pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM registrations WHERE id = $1`, registrationColumns), id)
	reg, err := scanRegistration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Registration{}, ErrNotFound
	}
	return reg, err
}

// GetByEmail returns all registrations for an email address, newest first.
func (s *Store) GetByEmail(ctx context.Context, email string) ([]Registration, error) {
	rows, err := s.Pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM registrations WHERE email = $1 ORDER BY created_at DESC`, registrationColumns),
		strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

// List returns registrations matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Registration, error) {
	var (
		conditions []string
		args       []any
	)
	if strings.TrimSpace(filter.EventID) != "" {
		args = append(args, filter.EventID)
		conditions = append(conditions, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM registrations`, registrationColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

// MarkCompleted transitions a pending row to completed and attaches the
// gateway identifiers. The guarded update makes duplicate callbacks safe:
// a row already completed (or failed) is left untouched and transitioned
// reports false.
func (s *Store) MarkCompleted(ctx context.Context, id, orderID, paymentID string) (transitioned bool, err error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE registrations
		SET status = 'completed',
			razorpay_order_id = $2,
			razorpay_payment_id = $3,
			updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, orderID, paymentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed records a dismissed checkout. Only pending rows transition;
// completed is terminal.
func (s *Store) MarkFailed(ctx context.Context, id string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE registrations
		SET status = 'failed', updated_at = now()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetAttendance marks or unmarks attendance for a registration.
func (s *Store) SetAttendance(ctx context.Context, id string, marked bool) (Registration, error) {
	var markedAt *time.Time
	if marked {
		now := time.Now()
		markedAt = &now
	}
	row := s.Pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE registrations
		SET attendance_marked = $2, attendance_marked_at = $3, updated_at = now()
		WHERE id = $1
		RETURNING %s`, registrationColumns),
		id, marked, markedAt)
	reg, err := scanRegistration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Registration{}, ErrNotFound
	}
	return reg, err
}

// Delete removes a registration row. Administrative operation only; the
// normal flow never deletes.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectRegistrations(rows pgx.Rows) ([]Registration, error) {
	out := make([]Registration, 0, 16)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func scanRegistration(row pgx.Row) (Registration, error) {
	var (
		reg          Registration
		orderID      *string
		paymentID    *string
		attendanceAt *time.Time
	)
	err := row.Scan(
		&reg.ID, &reg.Name, &reg.Email, &reg.Phone, &reg.College, &reg.Year,
		&reg.EventID, &reg.EventName, &reg.Amount, &reg.TransactionID,
		&orderID, &paymentID, &reg.Status,
		&reg.AttendanceMarked, &attendanceAt, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return Registration{}, err
	}
	if orderID != nil {
		reg.RazorpayOrderID = *orderID
	}
	if paymentID != nil {
		reg.RazorpayPaymentID = *paymentID
	}
	reg.AttendanceAt = attendanceAt
	return reg, nil
}

// generateTransactionID produces the informational transaction reference shown
// on receipts. Not a security boundary.
func generateTransactionID() string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), strings.ToUpper(hex.EncodeToString(buf)))
}
