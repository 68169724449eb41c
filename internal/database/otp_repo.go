package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarchuk/otprelay/pkg/models"
)

// OTPLog is one audited OTP delivery attempt
type OTPLog struct {
	ID          int64     `db:"id"`
	OTPCode     string    `db:"otp_code"`
	PhoneNumber string    `db:"phone_number"`
	ServiceName string    `db:"service_name"`
	RawMessage  string    `db:"raw_message"`
	ObservedAt  time.Time `db:"observed_at"`
	Delivered   bool      `db:"delivered"`
	CreatedAt   time.Time `db:"created_at"`
}

// InsertLog records one observed OTP and its delivery outcome
func (db *DB) InsertLog(ctx context.Context, record *models.MessageRecord, delivered bool) error {
	query := `
		INSERT INTO otp_logs (otp_code, phone_number, service_name, raw_message, observed_at, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		record.OTPCode,
		record.PhoneNumber,
		record.ServiceName,
		record.RawText,
		record.ObservedAt,
		delivered,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert otp log: %w", err)
	}
	return nil
}

// RecentLogs returns the most recent audit rows, newest first
func (db *DB) RecentLogs(ctx context.Context, limit int) ([]*OTPLog, error) {
	var logs []*OTPLog
	query := `SELECT * FROM otp_logs ORDER BY created_at DESC, id DESC LIMIT ?`
	if err := db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent logs: %w", err)
	}
	return logs, nil
}

// CountLogs returns the total number of audited OTPs
func (db *DB) CountLogs(ctx context.Context) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM otp_logs`); err != nil {
		return 0, fmt.Errorf("failed to count logs: %w", err)
	}
	return count, nil
}

// CountDelivered returns the number of OTPs successfully delivered
func (db *DB) CountDelivered(ctx context.Context) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM otp_logs WHERE delivered = true`); err != nil {
		return 0, fmt.Errorf("failed to count delivered logs: %w", err)
	}
	return count, nil
}
