package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"docvault/internal/database"
	"docvault/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_RemovesOldReadNotifications(t *testing.T) {
	db := database.OpenTest(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)
	fresh := now.Add(-time.Hour)

	rows := []utils.Notification{
		{ID: "old-read", UserID: "u1", Message: "a", Read: true, CreatedAt: old},
		{ID: "old-unread", UserID: "u1", Message: "b", Read: false, CreatedAt: old},
		{ID: "fresh-read", UserID: "u1", Message: "c", Read: true, CreatedAt: fresh},
	}
	require.NoError(t, db.Create(&rows).Error)

	var logs bytes.Buffer
	sweeper := NewSweeper(NewGormStore(db), 24*time.Hour, slog.New(slog.NewTextHandler(&logs, nil)))
	sweeper.now = func() time.Time { return now }

	removed, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	assert.Contains(t, logs.String(), `msg="Swept read notifications" removed=1`)

	var left []string
	require.NoError(t, db.Model(&utils.Notification{}).Order("id").Pluck("id", &left).Error)
	assert.Equal(t, []string{"fresh-read", "old-unread"}, left)
}

func TestSweeper_StartRejectsBadSchedule(t *testing.T) {
	sweeper := NewSweeper(NewGormStore(database.OpenTest(t)), time.Hour, slog.Default())
	assert.Error(t, sweeper.Start("not a schedule"))

	require.NoError(t, sweeper.Start("@hourly"))
	sweeper.Stop()
}
