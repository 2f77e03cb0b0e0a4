package repository

import (
	"context"
	"fmt"
	"time"

	"relay_bot/internal/telegram/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskSettings 单个任务的全部设置文档，每任务一条
type TaskSettings struct {
	TaskID       string                       `bson:"task_id"`
	Forwarding   *models.ForwardingSettings   `bson:"forwarding,omitempty"`
	Message      *models.MessageSettings      `bson:"message,omitempty"`
	Cleaning     *models.TextCleaningSettings `bson:"cleaning,omitempty"`
	Replacements []models.ReplacementRule     `bson:"replacements,omitempty"`
	Filters      *models.FilterSettings       `bson:"filters,omitempty"`
	Watermark    *models.WatermarkSettings    `bson:"watermark,omitempty"`
	UpdatedAt    time.Time                    `bson:"updated_at"`
}

// MongoTaskRepository 基于 MongoDB 的任务仓储
type MongoTaskRepository struct {
	tasks    *mongo.Collection
	settings *mongo.Collection
}

// NewTaskRepository 创建任务仓储实例
func NewTaskRepository(db *mongo.Database) *MongoTaskRepository {
	return &MongoTaskRepository{
		tasks:    db.Collection("tasks"),
		settings: db.Collection("task_settings"),
	}
}

// CreateTask 创建任务
func (r *MongoTaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.ForwardMode == "" {
		task.ForwardMode = models.ForwardModeForward
	}

	if _, err := r.tasks.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// SetActive 启用/停用任务
func (r *MongoTaskRepository) SetActive(ctx context.Context, taskID string, active bool) error {
	update := bson.M{"$set": bson.M{"active": active, "updated_at": time.Now().UTC()}}
	result, err := r.tasks.UpdateOne(ctx, bson.M{"task_id": taskID}, update)
	if err != nil {
		return fmt.Errorf("failed to update task active flag: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("task %s not found", taskID)
	}
	return nil
}

// SaveSettings 整体写入任务设置文档（upsert）
func (r *MongoTaskRepository) SaveSettings(ctx context.Context, taskID string, settings *TaskSettings) error {
	settings.TaskID = taskID
	settings.UpdatedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.settings.ReplaceOne(ctx, bson.M{"task_id": taskID}, settings, opts); err != nil {
		return fmt.Errorf("failed to save task settings: %w", err)
	}
	return nil
}

// ActiveTasksForSource 查询某用户源会话匹配的全部启用任务
func (r *MongoTaskRepository) ActiveTasksForSource(ctx context.Context, sourceChatID int64, userID int64) ([]*models.Task, error) {
	filter := bson.M{
		"source_chat_id": sourceChatID,
		"user_id":        userID,
		"active":         true,
	}

	// 固定按创建时间排序，保证同一事件内任务处理顺序稳定
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.tasks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []*models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// ActiveUserIDsForSource 查询源会话上配置了启用任务的用户列表
func (r *MongoTaskRepository) ActiveUserIDsForSource(ctx context.Context, sourceChatID int64) ([]int64, error) {
	filter := bson.M{"source_chat_id": sourceChatID, "active": true}

	values, err := r.tasks.Distinct(ctx, "user_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query task owners: %w", err)
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		switch id := v.(type) {
		case int64:
			ids = append(ids, id)
		case int32:
			ids = append(ids, int64(id))
		}
	}
	return ids, nil
}

// ForwardingSettings 任务传输选项快照，缺省时返回默认值
func (r *MongoTaskRepository) ForwardingSettings(ctx context.Context, taskID string) (*models.ForwardingSettings, error) {
	doc, err := r.loadSettings(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Forwarding == nil {
		return DefaultForwardingSettings(), nil
	}
	return normalizeForwarding(doc.Forwarding), nil
}

// MessageSettings 任务内容选项快照
func (r *MongoTaskRepository) MessageSettings(ctx context.Context, taskID string) (*models.MessageSettings, error) {
	doc, err := r.loadSettings(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Message == nil {
		return &models.MessageSettings{}, nil
	}
	return doc.Message, nil
}

// TextCleaningSettings 文本清理规则
func (r *MongoTaskRepository) TextCleaningSettings(ctx context.Context, taskID string) (*models.TextCleaningSettings, error) {
	doc, err := r.loadSettings(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Cleaning == nil {
		return &models.TextCleaningSettings{}, nil
	}
	return doc.Cleaning, nil
}

// ReplacementRules 文本替换规则
func (r *MongoTaskRepository) ReplacementRules(ctx context.Context, taskID string) ([]models.ReplacementRule, error) {
	doc, err := r.loadSettings(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return doc.Replacements, nil
}

// FilterSettings 内容过滤规则
func (r *MongoTaskRepository) FilterSettings(ctx context.Context, taskID string) (*models.FilterSettings, error) {
	doc, err := r.loadSettings(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Filters == nil {
		return &models.FilterSettings{}, nil
	}
	return doc.Filters, nil
}

// WatermarkSettings 水印配置，在此边界完成数值归一化
func (r *MongoTaskRepository) WatermarkSettings(ctx context.Context, taskID string) (*models.WatermarkSettings, error) {
	doc, err := r.loadSettings(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Watermark == nil {
		return &models.WatermarkSettings{Type: models.WatermarkTypeNone}, nil
	}
	return normalizeWatermark(doc.Watermark), nil
}

// loadSettings 读取任务设置文档，不存在时返回 nil（不视为错误）
func (r *MongoTaskRepository) loadSettings(ctx context.Context, taskID string) (*TaskSettings, error) {
	var doc TaskSettings
	err := r.settings.FindOne(ctx, bson.M{"task_id": taskID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task settings: %w", err)
	}
	return &doc, nil
}

// EnsureIndexes 确保索引存在
func (r *MongoTaskRepository) EnsureIndexes(ctx context.Context) error {
	taskIndexes := []mongo.IndexModel{
		// 入站消息按源会话匹配任务
		{
			Keys: bson.D{
				{Key: "source_chat_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "active", Value: 1},
			},
		},
		// task_id 唯一索引
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.tasks.Indexes().CreateMany(ctx, taskIndexes); err != nil {
		return fmt.Errorf("failed to create indexes for tasks: %w", err)
	}

	settingsIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.settings.Indexes().CreateMany(ctx, settingsIndexes); err != nil {
		return fmt.Errorf("failed to create indexes for task_settings: %w", err)
	}
	return nil
}

// DefaultForwardingSettings 传输选项默认值
func DefaultForwardingSettings() *models.ForwardingSettings {
	return &models.ForwardingSettings{
		PublishingMode: models.PublishingModeAuto,
	}
}

// normalizeForwarding 归一化传输选项：未知发布模式回退为 auto，间隔不允许为负
func normalizeForwarding(s *models.ForwardingSettings) *models.ForwardingSettings {
	out := *s
	if out.PublishingMode != models.PublishingModeManual {
		out.PublishingMode = models.PublishingModeAuto
	}
	if out.SendingInterval < 0 {
		out.SendingInterval = 0
	}
	return &out
}

// normalizeWatermark 归一化水印配置：透明度/尺寸截断到合法区间，锚点缺省取右下
func normalizeWatermark(s *models.WatermarkSettings) *models.WatermarkSettings {
	out := *s
	if out.Opacity <= 0 || out.Opacity > 100 {
		out.Opacity = 100
	}
	if out.SizePercentage <= 0 || out.SizePercentage > 100 {
		out.SizePercentage = 20
	}
	if out.Position == "" {
		out.Position = models.PositionBottomRight
	}
	return &out
}
