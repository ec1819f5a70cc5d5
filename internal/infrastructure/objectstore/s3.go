package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/meetnote/backend/internal/infrastructure/config"
	"github.com/meetnote/backend/internal/infrastructure/log"
)

// Store 会议文稿的 S3 对象存储
// 支持通过自定义端点接入 MinIO 等兼容实现
type Store struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewStore 创建对象存储客户端
func NewStore(cfg *config.S3Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO 等自建服务通常不支持虚拟主机风格寻址
			o.UsePathStyle = true
		}
	})

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		logger: log.NewModuleLogger("objectstore", "s3"),
	}, nil
}

// TranscriptKey 生成文稿对象键
// 布局：meetings/{user_id}/{meeting_date}/{meeting_id}.txt
func TranscriptKey(userID, meetingDate, meetingID string) string {
	return fmt.Sprintf("meetings/%s/%s/%s.txt", userID, meetingDate, meetingID)
}

// SaveTranscript 保存说话人标注后的会议文稿，返回对象键
func (s *Store) SaveTranscript(ctx context.Context, userID, meetingDate, meetingID, content string) (string, error) {
	key := TranscriptKey(userID, meetingDate, meetingID)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		s.logger.Error("Failed to save transcript",
			"key", key,
			"error", err,
		)
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}

	s.logger.Info("Transcript saved",
		"key", key,
		"size", len(content),
	)

	return key, nil
}

// GetTranscript 读取会议文稿
func (s *Store) GetTranscript(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get transcript: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript body: %w", err)
	}

	return string(data), nil
}

// DeleteTranscript 删除会议文稿
func (s *Store) DeleteTranscript(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}

	s.logger.Info("Transcript deleted", "key", key)
	return nil
}
