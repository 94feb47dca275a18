package model

import "time"

// Group 匿名群组
// 不嵌入 gorm.Model：清理时必须物理删除，不能走软删除
type Group struct {
	Id          string     `gorm:"column:id;primaryKey;type:char(20);comment:群组id" json:"id"`
	Name        string     `gorm:"column:name;type:varchar(64);index;not null;comment:群名称" json:"name"`
	Description string     `gorm:"column:description;type:varchar(500);comment:群描述" json:"description"`
	Type        string     `gorm:"column:type;type:varchar(20);index;not null;comment:mood_based/topic_based/time_based/community_based" json:"type"`
	MemberCount int        `gorm:"column:member_count;not null;default:0;comment:在群人数（冗余计数）" json:"member_count"`
	IsActive    bool       `gorm:"column:is_active;index;not null" json:"is_active"`
	ExpiresAt   *time.Time `gorm:"column:expires_at;index;type:datetime(3);comment:过期时间，为空表示永不过期" json:"expires_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:datetime(3);not null" json:"created_at"`
}

func (Group) TableName() string {
	return "group_info"
}

// IsExpired expires_at 存在且 now >= expires_at
func (g *Group) IsExpired(now time.Time) bool {
	return g.ExpiresAt != nil && !now.Before(*g.ExpiresAt)
}

// IsJoinable 群组处于 Active-Open 状态
func (g *Group) IsJoinable(now time.Time) bool {
	return g.IsActive && !g.IsExpired(now)
}
