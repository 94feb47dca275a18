// Package repository 提供数据访问层的具体实现
// 本文件实现 GroupMemberRepository 接口，处理群成员相关的数据库操作
package repository

import (
	"context"

	"mood_chat_server/internal/model"
)

// groupMemberRepository GroupMemberRepository 接口的实现
type groupMemberRepository struct {
	gormBase
}

func (r *groupMemberRepository) Get(ctx context.Context, id string) (*model.GroupMember, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var member model.GroupMember
	if err := db.First(&member, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询群成员 id=%s", id)
	}
	return &member, nil
}

func (r *groupMemberRepository) Find(ctx context.Context, q Query) ([]model.GroupMember, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var members []model.GroupMember
	if err := applyQuery(db.Model(&model.GroupMember{}), q).Find(&members).Error; err != nil {
		return nil, wrapDBError(err, "查询群成员列表")
	}
	return members, nil
}

func (r *groupMemberRepository) Count(ctx context.Context, q Query) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()
	var total int64
	if err := applyConds(db.Model(&model.GroupMember{}), q).Count(&total).Error; err != nil {
		return 0, wrapDBError(err, "统计群成员数量")
	}
	return total, nil
}

func (r *groupMemberRepository) Create(ctx context.Context, member *model.GroupMember) error {
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Create(member).Error; err != nil {
		return wrapDBErrorf(err, "创建群成员 group_id=%s user_id=%s", member.GroupId, member.UserId)
	}
	return nil
}

func (r *groupMemberRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Model(&model.GroupMember{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return wrapDBErrorf(err, "更新群成员 id=%s", id)
	}
	return nil
}

func (r *groupMemberRepository) Delete(ctx context.Context, id string) error {
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.Where("id = ?", id).Delete(&model.GroupMember{}).Error; err != nil {
		return wrapDBErrorf(err, "删除群成员 id=%s", id)
	}
	return nil
}
