package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/qdrant/go-client/qdrant"

	"github.com/meetnote/backend/internal/domain/meeting"
	"github.com/meetnote/backend/internal/infrastructure/config"
	"github.com/meetnote/backend/internal/infrastructure/log"
)

// Store 会议知识块的向量存储，封装外部 Qdrant 服务
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
	logger     *slog.Logger
}

// NewStore 创建向量存储并确保集合存在
func NewStore(cfg *config.QdrantConfig, embCfg *config.EmbeddingConfig) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &Store{
		client:     client,
		collection: cfg.Collection,
		dimension:  uint64(embCfg.Dimension),
		logger:     log.NewModuleLogger("vector", "store"),
	}

	if err := s.EnsureCollection(context.Background()); err != nil {
		client.Close()
		return nil, err
	}

	return s, nil
}

// EnsureCollection 确保集合存在，不存在时按配置维度创建
func (s *Store) EnsureCollection(ctx context.Context) error {
	existing, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range existing {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}

	s.logger.Info("Created qdrant collection",
		"collection", s.collection,
		"dimension", s.dimension,
	)

	return nil
}

// UpsertChunks 写入会议知识块及其向量
// chunks 与 vectors 必须等长且一一对应
func (s *Store) UpsertChunks(ctx context.Context, m *meeting.Meeting, chunks []meeting.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := s.buildChunkPoints(m, chunks, vectors)

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		s.logger.Error("Failed to upsert chunks",
			"meeting_id", m.ID,
			"chunks", len(points),
			"error", err,
		)
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}

	s.logger.Info("Upserted meeting chunks",
		"meeting_id", m.ID,
		"chunks", len(points),
	)

	return nil
}

// buildChunkPoints 构建 Qdrant 点
func (s *Store) buildChunkPoints(m *meeting.Meeting, chunks []meeting.Chunk, vectors [][]float32) []*qdrant.PointStruct {
	points := make([]*qdrant.PointStruct, len(chunks))

	for i, chunk := range chunks {
		vectorArgs := make([]float32, len(vectors[i]))
		copy(vectorArgs, vectors[i])

		speakersJSON, _ := json.Marshal(chunk.Speakers)

		// 清理所有字符串字段，Qdrant 客户端要求有效 UTF-8
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ID),
			Vectors: qdrant.NewVectors(vectorArgs...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"chunk_id":     chunk.ID,
				"chunk_index":  int64(chunk.Index),
				"meeting_id":   m.ID,
				"user_id":      sanitizeUTF8(m.UserID),
				"meeting_date": m.MeetingDate,
				"text":         sanitizeUTF8(chunk.Text),
				"speakers":     string(speakersJSON),
				"start":        chunk.Start,
				"end":          chunk.End,
				"indexed_at":   time.Now().UnixMilli(),
			}),
		}
	}

	return points
}

// Search 在历史会议中做语义检索
// userID 非空时限定该用户的会议，为空时跨全部用户检索
// excludeMeetingID 非空时排除该会议自身的块，避免检索增强时发生自引用
// 结果按相似度降序，相似度相同按会议日期降序
func (s *Store) Search(ctx context.Context, queryVector []float32, userID, excludeMeetingID string, limit int) ([]*meeting.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	filter := &qdrant.Filter{}
	if userID != "" {
		filter.Must = []*qdrant.Condition{
			qdrant.NewMatch("user_id", userID),
		}
	}
	if excludeMeetingID != "" {
		filter.MustNot = []*qdrant.Condition{
			qdrant.NewMatch("meeting_id", excludeMeetingID),
		}
	}

	qLimit := uint64(limit)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &qLimit,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		s.logger.Error("Failed to query qdrant", "error", err)
		return nil, fmt.Errorf("failed to query qdrant: %w", err)
	}

	results := make([]*meeting.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if result := hitToResult(hit); result != nil {
			results = append(results, result)
		}
	}

	// Qdrant 已按分数降序返回，这里补充日期降序的同分决胜
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].MeetingDate > results[j].MeetingDate
	})

	s.logger.Info("Vector search completed",
		"user_id", userID,
		"hits", len(results),
	)

	return results, nil
}

// DeleteMeeting 删除某个会议的全部向量点
func (s *Store) DeleteMeeting(ctx context.Context, meetingID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("meeting_id", meetingID),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete meeting points: %w", err)
	}

	s.logger.Info("Deleted meeting vectors", "meeting_id", meetingID)
	return nil
}

// Close 关闭底层连接
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// hitToResult 将检索命中转换为搜索结果
func hitToResult(hit *qdrant.ScoredPoint) *meeting.SearchResult {
	payload := hit.GetPayload()
	if payload == nil {
		return nil
	}

	result := &meeting.SearchResult{
		Score: hit.GetScore(),
	}

	if val, ok := payload["text"]; ok {
		result.Text = extractStringValue(val)
	}
	if val, ok := payload["meeting_id"]; ok {
		result.MeetingID = extractStringValue(val)
	}
	if val, ok := payload["meeting_date"]; ok {
		result.MeetingDate = extractStringValue(val)
	}
	if val, ok := payload["speakers"]; ok {
		speakersStr := extractStringValue(val)
		if speakersStr != "" {
			var speakers []string
			if err := json.Unmarshal([]byte(speakersStr), &speakers); err == nil {
				result.Speakers = speakers
			}
		}
	}
	if val, ok := payload["start"]; ok {
		result.Start = extractFloatValue(val)
	}
	if val, ok := payload["end"]; ok {
		result.End = extractFloatValue(val)
	}

	return result
}

// sanitizeUTF8 清理字符串中的无效 UTF-8 字符
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// extractStringValue 从 qdrant.Value 提取字符串值
func extractStringValue(val *qdrant.Value) string {
	if val == nil {
		return ""
	}
	return val.GetStringValue()
}

// extractFloatValue 从 qdrant.Value 提取浮点值
func extractFloatValue(val *qdrant.Value) float64 {
	if val == nil {
		return 0
	}
	if dblVal := val.GetDoubleValue(); dblVal != 0 {
		return dblVal
	}
	if intVal := val.GetIntegerValue(); intVal != 0 {
		return float64(intVal)
	}
	return 0
}
