package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchuk/otprelay/pkg/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func sampleRecord(otp string) *models.MessageRecord {
	return &models.MessageRecord{
		PhoneNumber: "+15551234567",
		ServiceName: "Google",
		OTPCode:     otp,
		RawText:     "code: " + otp,
		ObservedAt:  time.Now().UTC(),
	}
}

func TestInsertAndCountLogs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertLog(ctx, sampleRecord("111111"), true))
	require.NoError(t, db.InsertLog(ctx, sampleRecord("222222"), true))
	require.NoError(t, db.InsertLog(ctx, sampleRecord("333333"), false))

	total, err := db.CountLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	delivered, err := db.CountDelivered(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
}

func TestRecentLogs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, otp := range []string{"111111", "222222", "333333"} {
		require.NoError(t, db.InsertLog(ctx, sampleRecord(otp), true))
	}

	logs, err := db.RecentLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "333333", logs[0].OTPCode, "newest first")
	assert.Equal(t, "222222", logs[1].OTPCode)
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetStat(ctx, StatLastCheck)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.SetStat(ctx, StatLastCheck, "2025-06-01 12:00:00"))
	value, err := db.GetStat(ctx, StatLastCheck)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01 12:00:00", value)

	// Upsert overwrites
	require.NoError(t, db.SetStat(ctx, StatLastCheck, "2025-06-01 12:00:30"))
	value, err = db.GetStat(ctx, StatLastCheck)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01 12:00:30", value)
}
