package repository

import (
	"context"
	"fmt"
	"time"

	"relay_bot/internal/telegram/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// approvalTTL 审核单过期时间，到期未处理由 TTL 索引自动清理
const approvalTTL = 48 * time.Hour

// MongoApprovalQueue 基于 MongoDB 的手动审核队列
type MongoApprovalQueue struct {
	collection *mongo.Collection
}

// NewApprovalQueue 创建审核队列实例
func NewApprovalQueue(db *mongo.Database) *MongoApprovalQueue {
	return &MongoApprovalQueue{
		collection: db.Collection("pending_approvals"),
	}
}

// Enqueue 入队待审核单元，返回审核单ID
func (q *MongoApprovalQueue) Enqueue(ctx context.Context, approval *models.PendingApproval) (string, error) {
	if approval.ApprovalID == "" {
		approval.ApprovalID = uuid.New().String()
	}
	approval.Status = models.ApprovalStatusPending
	approval.CreatedAt = time.Now().UTC()

	if _, err := q.collection.InsertOne(ctx, approval); err != nil {
		return "", fmt.Errorf("failed to enqueue approval: %w", err)
	}
	return approval.ApprovalID, nil
}

// Get 根据审核单ID取回
func (q *MongoApprovalQueue) Get(ctx context.Context, approvalID string) (*models.PendingApproval, error) {
	var approval models.PendingApproval
	err := q.collection.FindOne(ctx, bson.M{"approval_id": approvalID}).Decode(&approval)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("approval %s not found", approvalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return &approval, nil
}

// ListPending 列出某用户待审核单元，按入队时间排序
func (q *MongoApprovalQueue) ListPending(ctx context.Context, userID int64) ([]*models.PendingApproval, error) {
	filter := bson.M{"user_id": userID, "status": models.ApprovalStatusPending}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := q.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer cursor.Close(ctx)

	var approvals []*models.PendingApproval
	if err := cursor.All(ctx, &approvals); err != nil {
		return nil, fmt.Errorf("failed to decode approvals: %w", err)
	}
	return approvals, nil
}

// Resolve 标记审核结果
func (q *MongoApprovalQueue) Resolve(ctx context.Context, approvalID string, status string) error {
	if status != models.ApprovalStatusApproved && status != models.ApprovalStatusRejected {
		return fmt.Errorf("invalid approval status: %s", status)
	}

	// 只允许从 pending 出发的单向迁移，重复裁决视为错误
	filter := bson.M{"approval_id": approvalID, "status": models.ApprovalStatusPending}
	update := bson.M{"$set": bson.M{"status": status}}
	result, err := q.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to resolve approval: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("approval %s not found or already resolved", approvalID)
	}
	return nil
}

// EnsureIndexes 确保索引存在
func (q *MongoApprovalQueue) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "approval_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// 按用户列出待审核单元
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		// TTL 索引：过期审核单自动删除
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(approvalTTL / time.Second)),
		},
	}

	if _, err := q.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes for pending_approvals: %w", err)
	}
	return nil
}
