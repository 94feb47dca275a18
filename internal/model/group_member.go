package model

import "time"

// GroupMember 群成员关系
// 同一 (group_id, user_id) 最多一条 is_active=true 的记录；退群只置 is_active=false
type GroupMember struct {
	Id            string    `gorm:"column:id;primaryKey;type:char(20)" json:"id"`
	GroupId       string    `gorm:"column:group_id;type:char(20);index:idx_member_group_user;not null" json:"group_id"`
	UserId        string    `gorm:"column:user_id;type:varchar(64);index:idx_member_group_user;index;not null" json:"user_id"`
	AnonymousName string    `gorm:"column:anonymous_name;type:varchar(64);not null;comment:群内匿名昵称" json:"anonymous_name"`
	IsActive      bool      `gorm:"column:is_active;not null" json:"is_active"`
	JoinedAt      time.Time `gorm:"column:joined_at;type:datetime(3);not null" json:"joined_at"`
}

func (GroupMember) TableName() string {
	return "group_member"
}
