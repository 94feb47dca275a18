// Package cleanup 过期群组的级联删除
// 定时清理、手动清理和加群时的惰性清理共用同一个 CleanupGroup
package cleanup

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mood_chat_server/internal/dao/mysql/repository"
	"mood_chat_server/internal/dto/respond"
	"mood_chat_server/internal/infrastructure/metrics"
	"mood_chat_server/internal/model"
	"mood_chat_server/pkg/errorx"
)

const (
	// 单个群组内删除消息/成员的并发度
	deleteParallelism = 8
	// 每轮定时清理的总超时
	sweepTimeout = 5 * time.Minute
)

// GroupDeletedHook 群组删除成功后的回调：缓存失效、踢出房间、释放发送锁
type GroupDeletedHook func(groupId string)

// Sweeper 过期群组清理器
type Sweeper struct {
	repos    *repository.Repositories
	now      func() time.Time
	interval time.Duration
	hooks    []GroupDeletedHook
}

// NewSweeper 创建清理器，interval 为定时清理间隔
func NewSweeper(repos *repository.Repositories, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		repos:    repos,
		now:      time.Now,
		interval: interval,
	}
}

// SetClock 替换时间源
func (s *Sweeper) SetClock(now func() time.Time) {
	s.now = now
}

// OnGroupDeleted 注册删除回调，需在 Start 之前完成
func (s *Sweeper) OnGroupDeleted(hook GroupDeletedHook) {
	s.hooks = append(s.hooks, hook)
}

// CleanupGroup 级联删除：停用群组 -> 删消息 -> 删成员 -> 删群组
// 任意一步失败整个群组算失败，已删除的数据不回滚；群组行还在，下一轮按 expires_at 继续处理
func (s *Sweeper) CleanupGroup(ctx context.Context, groupId string) (respond.CleanupResult, error) {
	var result respond.CleanupResult

	// 先停用，让并发的加群请求尽快看到群组不可用
	if err := s.repos.Group.Update(ctx, groupId, map[string]any{repository.ColIsActive: false}); err != nil && !errorx.IsNotFound(err) {
		return result, err
	}

	messages, err := s.repos.Message.Find(ctx, repository.Query{}.Eq(repository.ColGroupId, groupId))
	if err != nil {
		return result, err
	}
	deleted, err := fanOutDelete(ctx, messages, func(ctx context.Context, m model.GroupMessage) error {
		return s.repos.Message.Delete(ctx, m.Id)
	})
	result.DeletedMessages = deleted
	if err != nil {
		return result, err
	}

	members, err := s.repos.GroupMember.Find(ctx, repository.Query{}.Eq(repository.ColGroupId, groupId))
	if err != nil {
		return result, err
	}
	deleted, err = fanOutDelete(ctx, members, func(ctx context.Context, m model.GroupMember) error {
		return s.repos.GroupMember.Delete(ctx, m.Id)
	})
	result.DeletedMembers = deleted
	if err != nil {
		return result, err
	}

	if err := s.repos.Group.Delete(ctx, groupId); err != nil {
		return result, err
	}
	result.DeletedGroups = 1
	metrics.GroupsSwept.Inc()

	for _, hook := range s.hooks {
		hook(groupId)
	}
	zap.L().Info("群组已清理",
		zap.String("group_id", groupId),
		zap.Int("messages", result.DeletedMessages),
		zap.Int("members", result.DeletedMembers))
	return result, nil
}

// CleanupExpiredGroups 手动触发一轮清理，返回累计删除数量
func (s *Sweeper) CleanupExpiredGroups(ctx context.Context) (respond.CleanupResult, error) {
	return s.sweep(ctx, "manual")
}

// Start 按 interval 定时清理，ctx 取消后退出
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	zap.L().Info("过期群组清理已启动", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("过期群组清理已停止")
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
			if _, err := s.sweep(tickCtx, "scheduled"); err != nil {
				zap.L().Error("scheduled cleanup failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// sweep 单个群组失败只记录日志并继续，只有查询过期群组失败才返回错误
func (s *Sweeper) sweep(ctx context.Context, trigger string) (respond.CleanupResult, error) {
	metrics.SweepRuns.WithLabelValues(trigger).Inc()
	var total respond.CleanupResult

	expired, err := s.repos.Group.Find(ctx, s.expiredQuery())
	if err != nil {
		return total, err
	}
	if len(expired) == 0 {
		zap.L().Debug("没有过期群组", zap.String("trigger", trigger))
		return total, nil
	}
	zap.L().Info("开始清理过期群组", zap.String("trigger", trigger), zap.Int("count", len(expired)))

	for _, group := range expired {
		result, err := s.CleanupGroup(ctx, group.Id)
		total.Add(result)
		if err != nil {
			metrics.SweepFailures.Inc()
			zap.L().Error("cleanup group failed", zap.String("group_id", group.Id), zap.Error(err))
			continue
		}
	}
	zap.L().Info("过期群组清理完成",
		zap.String("trigger", trigger),
		zap.Int("groups", total.DeletedGroups),
		zap.Int("messages", total.DeletedMessages),
		zap.Int("members", total.DeletedMembers))
	return total, nil
}

// IsExpired 群组是否已过期，群组不存在返回 NotFound
func (s *Sweeper) IsExpired(ctx context.Context, groupId string) (bool, error) {
	group, err := s.repos.Group.Get(ctx, groupId)
	if err != nil {
		return false, err
	}
	return group.IsExpired(s.now()), nil
}

// GroupsExpiringWithin 未来 hours 小时内将要过期的活跃群组，按过期时间升序
func (s *Sweeper) GroupsExpiringWithin(ctx context.Context, hours int) ([]model.Group, error) {
	if hours <= 0 {
		return nil, errorx.New(errorx.CodeInvalidParam, "hours 必须大于 0")
	}
	now := s.now()
	return s.repos.Group.Find(ctx, repository.Query{}.
		Eq(repository.ColIsActive, true).
		Where(repository.ColExpiresAt, repository.OpGt, now).
		Where(repository.ColExpiresAt, repository.OpLte, now.Add(time.Duration(hours)*time.Hour)).
		OrderBy(repository.ColExpiresAt, false))
}

// CleanupStats 群组总数、待清理数、活跃数
func (s *Sweeper) CleanupStats(ctx context.Context) (*respond.CleanupStats, error) {
	total, err := s.repos.Group.Count(ctx, repository.Query{})
	if err != nil {
		return nil, err
	}
	expired, err := s.repos.Group.Count(ctx, s.expiredQuery())
	if err != nil {
		return nil, err
	}
	active, err := s.repos.Group.Count(ctx, repository.Query{}.Eq(repository.ColIsActive, true))
	if err != nil {
		return nil, err
	}
	return &respond.CleanupStats{
		TotalGroups:   total,
		ExpiredGroups: expired,
		ActiveGroups:  active,
	}, nil
}

// expiredQuery expires_at <= now
// 不过滤 is_active：上一轮停用后删除失败的群组也要被再次选中
func (s *Sweeper) expiredQuery() repository.Query {
	return repository.Query{}.
		Where(repository.ColExpiresAt, repository.OpLte, s.now())
}

// fanOutDelete 并发删除 rows，返回成功删除的条数和第一个错误
func fanOutDelete[T any](ctx context.Context, rows []T, del func(context.Context, T) error) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var deleted atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(deleteParallelism)
	for _, row := range rows {
		row := row
		eg.Go(func() error {
			if err := del(egCtx, row); err != nil {
				return err
			}
			deleted.Add(1)
			return nil
		})
	}
	err := eg.Wait()
	return int(deleted.Load()), err
}
