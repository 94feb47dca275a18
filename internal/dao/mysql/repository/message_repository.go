// Package repository 提供数据访问层的具体实现
// 本文件实现 GroupMessageRepository 接口
package repository

import (
	"context"

	"mood_chat_server/internal/model"
)

// groupMessageRepository GroupMessageRepository 接口的实现
type groupMessageRepository struct {
	gormBase
}

// Get 根据雪花 ID 查找消息
func (r *groupMessageRepository) Get(ctx context.Context, id int64) (*model.GroupMessage, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var message model.GroupMessage
	if err := db.First(&message, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 id=%d", id)
	}
	return &message, nil
}

// Find 按条件查询消息，最近消息列表使用 created_at DESC, id DESC
func (r *groupMessageRepository) Find(ctx context.Context, q Query) ([]model.GroupMessage, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var messages []model.GroupMessage
	if err := applyQuery(db.Model(&model.GroupMessage{}), q).Find(&messages).Error; err != nil {
		return nil, wrapDBError(err, "查询消息列表")
	}
	return messages, nil
}

func (r *groupMessageRepository) Count(ctx context.Context, q Query) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var total int64
	if err := applyConds(db.Model(&model.GroupMessage{}), q).Count(&total).Error; err != nil {
		return 0, wrapDBError(err, "统计消息数量")
	}
	return total, nil
}

// Create 保存消息
func (r *groupMessageRepository) Create(ctx context.Context, message *model.GroupMessage) error {
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Create(message).Error; err != nil {
		return wrapDBErrorf(err, "保存消息 group_id=%s", message.GroupId)
	}
	return nil
}

// Delete 物理删除消息
func (r *groupMessageRepository) Delete(ctx context.Context, id int64) error {
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Where("id = ?", id).Delete(&model.GroupMessage{}).Error; err != nil {
		return wrapDBErrorf(err, "删除消息 id=%d", id)
	}
	return nil
}
