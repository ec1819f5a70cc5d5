package meeting

// Repository 会议记录仓储接口
type Repository interface {
	// Save 保存会议记录（创建或更新）
	Save(m *Meeting) error

	// FindByID 根据 ID 查找会议记录
	FindByID(id string) (*Meeting, error)

	// ListByUser 查询用户的会议列表
	// yearMonth 为 YYYY-MM，空串表示不按月份过滤
	ListByUser(userID, yearMonth string) ([]*Meeting, error)

	// Delete 删除会议记录
	Delete(id string) error
}
