package repository

import (
	"context"
	"errors"
	"time"

	"mood_chat_server/pkg/errorx"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== 错误包装辅助函数 ====================

// wrapDBError 包装数据库错误
// 根据错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - 其他错误（含 context 超时） -> CodeStoreUnavailable
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	return errorx.Wrap(err, errorx.CodeStoreUnavailable, msg)
}

// wrapDBErrorf 功能同 wrapDBError，支持格式化消息
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeStoreUnavailable, format, args...)
}

// gormBase 各 gorm Repository 共用的连接和超时
type gormBase struct {
	db      *gorm.DB
	timeout time.Duration
}

// session 为单次存储调用派生带超时的 db 句柄
func (b gormBase) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if b.timeout <= 0 {
		return b.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

// applyConds 把 Query 的条件翻译成 gorm clause，列名由 gorm 负责转义
func applyConds(db *gorm.DB, q Query) *gorm.DB {
	for _, c := range q.Conds {
		col := clause.Column{Name: c.Field}
		switch c.Op {
		case OpEq:
			db = db.Where(clause.Eq{Column: col, Value: c.Value})
		case OpLte:
			db = db.Where(clause.Lte{Column: col, Value: c.Value})
		case OpGt:
			db = db.Where(clause.Gt{Column: col, Value: c.Value})
		case OpIn:
			values, _ := c.Value.([]any)
			db = db.Where(clause.IN{Column: col, Values: values})
		default:
			_ = db.AddError(errorx.Newf(errorx.CodeInvalidParam, "unsupported operator %q", c.Op))
		}
	}
	return db
}

// applyQuery 条件 + 排序 + 分页
func applyQuery(db *gorm.DB, q Query) *gorm.DB {
	db = applyConds(db, q)
	for _, o := range q.Orders {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Field}, Desc: o.Desc})
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	return db
}

// NewRepositories 创建 gorm 版本的 Repository 聚合
// timeout: 单次存储调用的超时，超时返回 CodeStoreUnavailable
func NewRepositories(db *gorm.DB, timeout time.Duration) *Repositories {
	base := gormBase{db: db, timeout: timeout}
	return &Repositories{
		Group:       &groupRepository{base},
		GroupMember: &groupMemberRepository{base},
		Message:     &groupMessageRepository{base},
	}
}
