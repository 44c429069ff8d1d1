package settings

import (
	"testing"
	"time"

	"giftwall/pkg/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.EventSettings{}))
	return db
}

func boolPtr(b bool) *bool { return &b }

func TestGetOrCreate_Defaults(t *testing.T) {
	svc := NewService(setupDB(t))
	startAt := time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)

	row, err := svc.GetOrCreate("11111111-1111-1111-1111-111111111111", startAt)
	require.NoError(t, err)

	assert.False(t, row.RequireApproval)
	assert.Equal(t, 2, row.ApprovalLockAfterDays)
	assert.Equal(t, 8, row.MaxBlessingLines)
	assert.Equal(t, 30, row.ArchiveAfterDays)
	assert.Equal(t, 72, row.DeleteAfterHours)
	assert.True(t, row.VerifyDriveBeforeDelete)
	assert.Nil(t, row.ApprovalOpenedAt)
}

func TestGetOrCreate_SingleRowPerEvent(t *testing.T) {
	svc := NewService(setupDB(t))
	eventID := "11111111-1111-1111-1111-111111111111"

	first, err := svc.GetOrCreate(eventID, time.Now())
	require.NoError(t, err)

	second, err := svc.GetOrCreate(eventID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	// The second call must not replace the existing aggregate
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.StartAt.Equal(second.StartAt))
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(setupDB(t))

	_, err := svc.Get("22222222-2222-2222-2222-222222222222")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_ReopeningStampsApprovalOpenedAt(t *testing.T) {
	svc := NewService(setupDB(t))
	eventID := "11111111-1111-1111-1111-111111111111"

	_, err := svc.GetOrCreate(eventID, time.Now())
	require.NoError(t, err)

	// Turn approvals on, then back off
	_, err = svc.Update(eventID, Update{RequireApproval: boolPtr(true)}, time.Now())
	require.NoError(t, err)

	reopenedAt := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	row, err := svc.Update(eventID, Update{RequireApproval: boolPtr(false)}, reopenedAt)
	require.NoError(t, err)

	require.NotNil(t, row.ApprovalOpenedAt)
	assert.True(t, row.ApprovalOpenedAt.Equal(reopenedAt))
	assert.False(t, row.RequireApproval)
}

func TestUpdate_TogglingOnDoesNotStamp(t *testing.T) {
	svc := NewService(setupDB(t))
	eventID := "11111111-1111-1111-1111-111111111111"

	_, err := svc.GetOrCreate(eventID, time.Now())
	require.NoError(t, err)

	row, err := svc.Update(eventID, Update{RequireApproval: boolPtr(true)}, time.Now())
	require.NoError(t, err)

	assert.Nil(t, row.ApprovalOpenedAt)
	assert.True(t, row.RequireApproval)
}

func TestUpdate_Knobs(t *testing.T) {
	svc := NewService(setupDB(t))
	eventID := "11111111-1111-1111-1111-111111111111"

	_, err := svc.GetOrCreate(eventID, time.Now())
	require.NoError(t, err)

	lines := 4
	days := 14
	row, err := svc.Update(eventID, Update{MaxBlessingLines: &lines, ArchiveAfterDays: &days}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 4, row.MaxBlessingLines)
	assert.Equal(t, 14, row.ArchiveAfterDays)
}
