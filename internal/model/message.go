// Package model 定义数据库实体模型
// 本文件定义群消息模型
package model

import "time"

// GroupMessage 群消息
// 写入后不再修改，只在群组清理时物理删除
type GroupMessage struct {
	// Id 雪花 ID，JSON 中以字符串输出避免前端精度丢失
	Id int64 `gorm:"column:id;primaryKey;autoIncrement:false;type:bigint" json:"id,string"`

	GroupId string `gorm:"column:group_id;type:char(20);index:idx_message_group_time;not null" json:"group_id"`

	// UserId 仅用于归属判断，不对其他成员展示
	UserId string `gorm:"column:user_id;type:varchar(64);not null" json:"-"`

	// AnonymousSender 发送时刻的匿名昵称快照，改名后历史消息不变
	AnonymousSender string `gorm:"column:anonymous_sender;type:varchar(64);not null" json:"anonymous_sender"`

	Body      string    `gorm:"column:message;type:TEXT;not null" json:"message"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);index:idx_message_group_time;not null" json:"created_at"`
}

// TableName 指定表名
func (GroupMessage) TableName() string {
	return "group_message"
}
