package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meetnote/backend/internal/domain/meeting"
)

// meetingRepository 会议记录 SQLite 仓储实现
type meetingRepository struct {
	db *sql.DB
}

// NewMeetingRepository 创建会议记录仓储实例
func NewMeetingRepository(db *sql.DB) meeting.Repository {
	// 确保表存在
	if err := initMeetingTable(db); err != nil {
		// 初始化失败时记录错误但不阻止创建
		fmt.Printf("failed to init meetings table: %v\n", err)
	}
	return &meetingRepository{db: db}
}

// initMeetingTable 初始化会议记录表
func initMeetingTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS meetings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		meeting_date TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		storage_path TEXT NOT NULL DEFAULT '',
		chunk_count INTEGER NOT NULL DEFAULT 0,
		indexed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create meetings table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_meetings_user_id ON meetings(user_id);
	CREATE INDEX IF NOT EXISTS idx_meetings_meeting_date ON meetings(meeting_date);
	`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create meetings indexes: %w", err)
	}

	return nil
}

// Save 保存会议记录
func (r *meetingRepository) Save(m *meeting.Meeting) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	indexed := 0
	if m.Indexed {
		indexed = 1
	}

	// 使用 INSERT OR REPLACE 实现 upsert
	query := `
		INSERT OR REPLACE INTO meetings
		(id, user_id, meeting_date, title, storage_path, chunk_count, indexed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		m.ID,
		m.UserID,
		m.MeetingDate,
		m.Title,
		m.StoragePath,
		m.ChunkCount,
		indexed,
		m.CreatedAt.UnixMilli(),
	)

	if err != nil {
		return fmt.Errorf("failed to save meeting: %w", err)
	}

	return nil
}

// FindByID 根据 ID 查找会议记录
func (r *meetingRepository) FindByID(id string) (*meeting.Meeting, error) {
	query := `
		SELECT id, user_id, meeting_date, title, storage_path, chunk_count, indexed, created_at
		FROM meetings
		WHERE id = ?`

	m, err := scanMeeting(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query meeting: %w", err)
	}

	return m, nil
}

// ListByUser 列出用户的会议记录
// yearMonth 非空时（YYYY-MM）只返回该月的会议
func (r *meetingRepository) ListByUser(userID, yearMonth string) ([]*meeting.Meeting, error) {
	query := `
		SELECT id, user_id, meeting_date, title, storage_path, chunk_count, indexed, created_at
		FROM meetings
		WHERE user_id = ?`
	args := []interface{}{userID}

	if yearMonth != "" {
		query += ` AND meeting_date LIKE ?`
		args = append(args, yearMonth+"%")
	}

	query += ` ORDER BY meeting_date DESC, created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*meeting.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			continue
		}
		meetings = append(meetings, m)
	}

	return meetings, nil
}

// Delete 删除会议记录
func (r *meetingRepository) Delete(id string) error {
	query := `DELETE FROM meetings WHERE id = ?`
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	return nil
}

// rowScanner 兼容 *sql.Row 和 *sql.Rows 的扫描接口
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMeeting 扫描一行会议记录
func scanMeeting(row rowScanner) (*meeting.Meeting, error) {
	var m meeting.Meeting
	var indexed int
	var createdAt int64

	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.MeetingDate,
		&m.Title,
		&m.StoragePath,
		&m.ChunkCount,
		&indexed,
		&createdAt,
	); err != nil {
		return nil, err
	}

	m.Indexed = indexed == 1
	m.CreatedAt = time.UnixMilli(createdAt)

	return &m, nil
}

// 编译时检查接口实现
var _ meeting.Repository = (*meetingRepository)(nil)
