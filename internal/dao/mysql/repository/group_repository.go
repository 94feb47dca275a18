// Package repository 提供数据访问层的具体实现
// 本文件实现 GroupRepository 接口，处理群组相关的数据库操作
package repository

import (
	"context"

	"mood_chat_server/internal/model"

	"gorm.io/gorm"
)

// groupRepository GroupRepository 接口的实现
type groupRepository struct {
	gormBase
}

// Get 根据 id 查找群组
func (r *groupRepository) Get(ctx context.Context, id string) (*model.Group, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var group model.Group
	if err := db.First(&group, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询群组 id=%s", id)
	}
	return &group, nil
}

// Find 按条件查询群组
func (r *groupRepository) Find(ctx context.Context, q Query) ([]model.Group, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var groups []model.Group
	if err := applyQuery(db.Model(&model.Group{}), q).Find(&groups).Error; err != nil {
		return nil, wrapDBError(err, "查询群组列表")
	}
	return groups, nil
}

// Count 按条件计数
func (r *groupRepository) Count(ctx context.Context, q Query) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var total int64
	if err := applyConds(db.Model(&model.Group{}), q).Count(&total).Error; err != nil {
		return 0, wrapDBError(err, "统计群组数量")
	}
	return total, nil
}

// Create 创建群组
func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Create(group).Error; err != nil {
		return wrapDBErrorf(err, "创建群组 id=%s", group.Id)
	}
	return nil
}

// Update 局部更新群组字段
func (r *groupRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Model(&model.Group{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return wrapDBErrorf(err, "更新群组 id=%s", id)
	}
	return nil
}

// IncrementMemberCount 原子自增，不经过读-改-写
func (r *groupRepository) IncrementMemberCount(ctx context.Context, id string) error {
	db, cancel := r.session(ctx)
	defer cancel()
	err := db.Model(&model.Group{}).Where("id = ?", id).
		UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	if err != nil {
		return wrapDBErrorf(err, "群人数+1 id=%s", id)
	}
	return nil
}

// DecrementMemberCount 原子自减，计数已经漂移到 0 时保持为 0
func (r *groupRepository) DecrementMemberCount(ctx context.Context, id string) error {
	db, cancel := r.session(ctx)
	defer cancel()
	err := db.Model(&model.Group{}).Where("id = ?", id).
		UpdateColumn("member_count", gorm.Expr("CASE WHEN member_count > 0 THEN member_count - 1 ELSE 0 END")).Error
	if err != nil {
		return wrapDBErrorf(err, "群人数-1 id=%s", id)
	}
	return nil
}

// Delete 物理删除群组
func (r *groupRepository) Delete(ctx context.Context, id string) error {
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Where("id = ?", id).Delete(&model.Group{}).Error; err != nil {
		return wrapDBErrorf(err, "删除群组 id=%s", id)
	}
	return nil
}
