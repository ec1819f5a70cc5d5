package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/meetnote/backend/internal/domain/meeting"
)

// setupTestDB 创建临时测试数据库
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "meeting_test_*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)

	// 启用 WAL 模式
	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

func TestMeetingRepository_Save(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMeetingRepository(db)

	m := &meeting.Meeting{
		UserID:      "user-1",
		MeetingDate: "2024-04-22",
		Title:       "주간 회의",
		StoragePath: "meetings/user-1/2024-04-22/abc.txt",
		ChunkCount:  5,
		Indexed:     true,
	}

	err := repo.Save(m)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID, "保存后应自动生成 ID")
	assert.False(t, m.CreatedAt.IsZero(), "保存后应自动填充创建时间")

	// 更新后再次保存（upsert）
	m.ChunkCount = 8
	err = repo.Save(m)
	require.NoError(t, err)

	found, err := repo.FindByID(m.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 8, found.ChunkCount)
	assert.Equal(t, "주간 회의", found.Title)
	assert.True(t, found.Indexed)
}

func TestMeetingRepository_FindByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMeetingRepository(db)

	found, err := repo.FindByID("nonexistent")
	require.NoError(t, err)
	assert.Nil(t, found, "不存在的记录应返回 nil 而不是错误")
}

func TestMeetingRepository_ListByUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMeetingRepository(db)

	meetings := []*meeting.Meeting{
		{UserID: "user-1", MeetingDate: "2024-04-22", Title: "四月会议", CreatedAt: time.Now()},
		{UserID: "user-1", MeetingDate: "2024-05-03", Title: "五月会议", CreatedAt: time.Now()},
		{UserID: "user-2", MeetingDate: "2024-04-25", Title: "别人的会议", CreatedAt: time.Now()},
	}
	for _, m := range meetings {
		require.NoError(t, repo.Save(m))
	}

	t.Run("按用户过滤", func(t *testing.T) {
		found, err := repo.ListByUser("user-1", "")
		require.NoError(t, err)
		assert.Len(t, found, 2)
		// 日期降序
		assert.Equal(t, "2024-05-03", found[0].MeetingDate)
		assert.Equal(t, "2024-04-22", found[1].MeetingDate)
	})

	t.Run("按年月过滤", func(t *testing.T) {
		found, err := repo.ListByUser("user-1", "2024-04")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "四月会议", found[0].Title)
	})

	t.Run("无记录的用户返回空", func(t *testing.T) {
		found, err := repo.ListByUser("user-3", "")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestMeetingRepository_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMeetingRepository(db)

	m := &meeting.Meeting{UserID: "user-1", MeetingDate: "2024-04-22"}
	require.NoError(t, repo.Save(m))

	require.NoError(t, repo.Delete(m.ID))

	found, err := repo.FindByID(m.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
