package group

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"mood_chat_server/internal/dao/mysql/repository"
	myredis "mood_chat_server/internal/dao/redis"
	"mood_chat_server/internal/dto/request"
	"mood_chat_server/internal/dto/respond"
	"mood_chat_server/internal/infrastructure/metrics"
	"mood_chat_server/internal/model"
	"mood_chat_server/pkg/constants"
	"mood_chat_server/pkg/enum/group_type_enum"
	"mood_chat_server/pkg/errorx"
	"mood_chat_server/pkg/util/random"
	"mood_chat_server/pkg/util/snowflake"
)

// MessageBroadcaster 已持久化消息的扇出出口，由 chat 包实现
type MessageBroadcaster interface {
	BroadcastMessage(ctx context.Context, msg *model.GroupMessage) error
}

// GroupCleaner 级联删除单个群组，由 cleanup 包实现
type GroupCleaner interface {
	CleanupGroup(ctx context.Context, groupId string) (respond.CleanupResult, error)
}

// Service 群组生命周期业务逻辑
// 状态：Active-Open -> Active-Expired -> Deleted，删除后不可恢复
//
// 存储层没有事务把成员写入和人数计数绑在一起，member_count 只保证最终一致：
// 先插入成员再 +1，中途失败只会少计，不会多出"幽灵成员"。
//
// 同一 (group, user) 的加群/退群在本进程内串行；多实例部署下仍可能重复入群，
// 需要 (group_id, user_id, is_active) 上的唯一约束兜底。
type Service struct {
	repos       *repository.Repositories
	cache       myredis.AsyncCacheService
	alias       *AliasAllocator
	cleaner     GroupCleaner
	broadcaster MessageBroadcaster

	now              func() time.Time
	moodTTL          time.Duration
	recentLimit      int
	maxMessageLength int

	// 同一群组的 持久化->扇出 串行执行，保证扇出顺序与写入顺序一致
	sendLocks sync.Map // groupId -> *sync.Mutex
	// 按 (groupId, userId) 哈希分段的成员锁
	memberLocks [memberLockStripes]sync.Mutex
	// 最近消息缓存的代数，失效时 +1，回填前后比对，丢弃过期快照
	cacheGens sync.Map // groupId -> *atomic.Int64
}

const memberLockStripes = 64

// Option 可选配置
type Option func(*Service)

// WithClock 替换时间源，测试中用来跨过 TTL
func WithClock(now func() time.Time) Option {
	return func(g *Service) { g.now = now }
}

// WithCache 启用最近消息缓存
func WithCache(cache myredis.AsyncCacheService) Option {
	return func(g *Service) { g.cache = cache }
}

// WithMoodGroupTTL 情绪群存活时长
func WithMoodGroupTTL(ttl time.Duration) Option {
	return func(g *Service) { g.moodTTL = ttl }
}

// WithRecentLimit 进房回放和聊天页的最近消息条数
func WithRecentLimit(n int) Option {
	return func(g *Service) { g.recentLimit = n }
}

// WithMaxMessageLength 单条消息最大字符数
func WithMaxMessageLength(n int) Option {
	return func(g *Service) { g.maxMessageLength = n }
}

// NewGroupService 构造函数，注入所有依赖
// broadcaster 依赖本服务，需在构造后通过 SetBroadcaster 注入
func NewGroupService(repos *repository.Repositories, alias *AliasAllocator, cleaner GroupCleaner, opts ...Option) *Service {
	g := &Service{
		repos:            repos,
		alias:            alias,
		cleaner:          cleaner,
		now:              time.Now,
		moodTTL:          constants.MOOD_GROUP_TTL_HOURS * time.Hour,
		recentLimit:      constants.RECENT_MESSAGE_LIMIT,
		maxMessageLength: constants.MESSAGE_MAX_LENGTH,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetBroadcaster 注入消息扇出实现
func (g *Service) SetBroadcaster(b MessageBroadcaster) {
	g.broadcaster = b
}

// CreateGroup 创建群组，群主随即自动入群，返回入群后的群组
func (g *Service) CreateGroup(ctx context.Context, ownerId string, req request.CreateGroupRequest) (*model.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "群名称不能为空")
	}
	if !group_type_enum.IsValid(req.Type) {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "未知群组类型 %q", req.Type)
	}

	now := g.now()
	group := model.Group{
		Id:          fmt.Sprintf("G%s", random.GetNowAndLenRandomString(11)),
		Name:        name,
		Description: req.Description,
		Type:        req.Type,
		MemberCount: 0,
		IsActive:    true,
		CreatedAt:   now,
	}
	if req.ExpiresInHours != nil {
		if *req.ExpiresInHours <= 0 {
			return nil, errorx.New(errorx.CodeInvalidParam, "expires_in_hours 必须大于 0")
		}
		expiresAt := now.Add(time.Duration(*req.ExpiresInHours) * time.Hour)
		group.ExpiresAt = &expiresAt
	}

	if err := g.repos.Group.Create(ctx, &group); err != nil {
		zap.L().Error("create group failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	metrics.GroupsCreated.WithLabelValues(group.Type).Inc()
	zap.L().Info("群组已创建", zap.String("group_id", group.Id), zap.String("name", name), zap.String("type", group.Type))

	if _, err := g.JoinGroup(ctx, ownerId, group.Id); err != nil {
		// 群主没进群的空群不留下，请求已取消也要清掉
		if _, cleanErr := g.cleaner.CleanupGroup(context.WithoutCancel(ctx), group.Id); cleanErr != nil {
			zap.L().Error("remove orphan group failed",
				zap.String("group_id", group.Id), zap.NamedError("join_error", err), zap.Error(cleanErr))
		}
		return nil, err
	}
	return g.repos.Group.Get(ctx, group.Id)
}

// GetOrCreateMoodGroup 取得情绪对应的群组
// 命中未过期的群直接返回；命中已过期的群先同步级联删除，再新建同名群
// 并发请求同一情绪可能各自新建一个群，这种短暂重复是可以接受的
func (g *Service) GetOrCreateMoodGroup(ctx context.Context, userId, moodType string) (*model.Group, error) {
	mood := strings.ToLower(strings.TrimSpace(moodType))
	if mood == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "mood_type 不能为空")
	}
	name := moodGroupName(mood)

	found, err := g.repos.Group.Find(ctx, repository.Query{}.
		Eq(repository.ColName, name).
		Eq(repository.ColType, group_type_enum.MoodBased).
		Eq(repository.ColIsActive, true).
		OrderBy(repository.ColCreatedAt, true))
	if err != nil {
		return nil, err
	}

	now := g.now()
	for i := range found {
		existing := &found[i]
		if !existing.IsExpired(now) {
			return existing, nil
		}
		// 过期群挡住了新群的创建，顺手清掉
		metrics.SweepRuns.WithLabelValues("lazy").Inc()
		if _, err := g.cleaner.CleanupGroup(ctx, existing.Id); err != nil {
			return nil, err
		}
	}

	hours := int(g.moodTTL / time.Hour)
	return g.CreateGroup(ctx, userId, request.CreateGroupRequest{
		Name:           name,
		Description:    "Support group for people feeling " + mood,
		Type:           group_type_enum.MoodBased,
		ExpiresInHours: &hours,
	})
}

// JoinGroup 加入群组，重复加入返回已有成员记录
func (g *Service) JoinGroup(ctx context.Context, userId, groupId string) (*model.GroupMember, error) {
	group, err := g.repos.Group.Get(ctx, groupId)
	if err != nil {
		return nil, err
	}
	if !group.IsJoinable(g.now()) {
		return nil, errorx.ErrGroupNotFound
	}

	unlock := g.lockMember(groupId, userId)
	defer unlock()

	if existing, err := g.activeMembership(ctx, userId, groupId); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	name, err := g.alias.Allocate(ctx, groupId)
	if err != nil {
		return nil, err
	}
	member := model.GroupMember{
		Id:            fmt.Sprintf("M%s", random.GetNowAndLenRandomString(11)),
		GroupId:       groupId,
		UserId:        userId,
		AnonymousName: name,
		IsActive:      true,
		JoinedAt:      g.now(),
	}
	if err := g.repos.GroupMember.Create(ctx, &member); err != nil {
		return nil, err
	}
	if err := g.repos.Group.IncrementMemberCount(ctx, groupId); err != nil {
		// 成员已写入，计数少 1，下次退群会被下限 0 兜住
		zap.L().Warn("member_count increment failed", zap.String("group_id", groupId), zap.Error(err))
		return nil, err
	}
	metrics.GroupJoins.Inc()
	return &member, nil
}

// LeaveGroup 退出群组，没有活跃成员记录时什么也不做
func (g *Service) LeaveGroup(ctx context.Context, userId, groupId string) error {
	unlock := g.lockMember(groupId, userId)
	defer unlock()

	member, err := g.activeMembership(ctx, userId, groupId)
	if err != nil || member == nil {
		return err
	}
	if err := g.repos.GroupMember.Update(ctx, member.Id, map[string]any{repository.ColIsActive: false}); err != nil {
		return err
	}
	return g.repos.Group.DecrementMemberCount(ctx, groupId)
}

// AutoJoinMoodGroup 取得情绪群并加入
func (g *Service) AutoJoinMoodGroup(ctx context.Context, userId, moodType string) (*respond.AutoJoinRespond, error) {
	group, err := g.GetOrCreateMoodGroup(ctx, userId, moodType)
	if err != nil {
		return nil, err
	}
	member, err := g.JoinGroup(ctx, userId, group.Id)
	if err != nil {
		return nil, err
	}
	if fresh, err := g.repos.Group.Get(ctx, group.Id); err == nil {
		group = fresh
	}
	return &respond.AutoJoinRespond{Group: group, Membership: member}, nil
}

// SendMessage 以当前匿名昵称发送群消息，持久化后交给 broadcaster 扇出
func (g *Service) SendMessage(ctx context.Context, userId, groupId, body string) (*model.GroupMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}
	if utf8.RuneCountInString(body) > g.maxMessageLength {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "消息长度不能超过 %d 个字符", g.maxMessageLength)
	}

	member, err := g.activeMembership(ctx, userId, groupId)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errorx.ErrNotMember
	}

	unlock := g.lockGroup(groupId)
	defer unlock()

	msg := model.GroupMessage{
		Id:              snowflake.GenerateID(),
		GroupId:         groupId,
		UserId:          userId,
		AnonymousSender: member.AnonymousName,
		Body:            body,
		IsActive:        true,
		CreatedAt:       g.now(),
	}
	if err := g.repos.Message.Create(ctx, &msg); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()
	g.invalidateRecent(context.WithoutCancel(ctx), groupId)

	if g.broadcaster != nil {
		// 消息已落库，扇出失败时客户端重新进房可从回放中拿到
		if err := g.broadcaster.BroadcastMessage(ctx, &msg); err != nil {
			zap.L().Error("broadcast group message failed",
				zap.String("group_id", groupId), zap.Int64("message_id", msg.Id), zap.Error(err))
		}
	}
	return &msg, nil
}

// ChangeAnonymousName 重新分配匿名昵称，历史消息保留旧昵称
func (g *Service) ChangeAnonymousName(ctx context.Context, userId, groupId string) (*model.GroupMember, error) {
	member, err := g.activeMembership(ctx, userId, groupId)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errorx.ErrNotMember
	}
	name, err := g.alias.Allocate(ctx, groupId)
	if err != nil {
		return nil, err
	}
	if err := g.repos.GroupMember.Update(ctx, member.Id, map[string]any{repository.ColAnonymousName: name}); err != nil {
		return nil, err
	}
	member.AnonymousName = name
	return member, nil
}

// GetGroupChat 聊天页：群信息 + 最近消息（时间正序）+ 我的匿名昵称
func (g *Service) GetGroupChat(ctx context.Context, userId, groupId string) (*respond.GroupChatRespond, error) {
	group, err := g.repos.Group.Get(ctx, groupId)
	if err != nil {
		return nil, err
	}
	member, err := g.activeMembership(ctx, userId, groupId)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errorx.ErrNotMember
	}
	if group.IsExpired(g.now()) {
		return nil, errorx.ErrGroupExpired
	}

	messages, err := g.recentMessages(ctx, groupId)
	if err != nil {
		return nil, err
	}
	return &respond.GroupChatRespond{
		Group:           group,
		Messages:        messages,
		MyAnonymousName: member.AnonymousName,
	}, nil
}

// GetRecentMessages 进房回放用的最近消息，群组必须处于可见状态
func (g *Service) GetRecentMessages(ctx context.Context, groupId string) ([]model.GroupMessage, error) {
	group, err := g.repos.Group.Get(ctx, groupId)
	if err != nil {
		return nil, err
	}
	if !group.IsJoinable(g.now()) {
		return nil, errorx.ErrGroupNotFound
	}
	return g.recentMessages(ctx, groupId)
}

// GetAvailableGroups 可加入的群组，人数多的在前
func (g *Service) GetAvailableGroups(ctx context.Context) ([]model.Group, error) {
	groups, err := g.repos.Group.Find(ctx, repository.Query{}.
		Eq(repository.ColIsActive, true).
		OrderBy(repository.ColMemberCount, true).
		OrderBy(repository.ColCreatedAt, true))
	if err != nil {
		return nil, err
	}
	return g.visible(groups), nil
}

// GetUserGroups 用户当前所在的可见群组
func (g *Service) GetUserGroups(ctx context.Context, userId string) ([]model.Group, error) {
	memberships, err := g.repos.GroupMember.Find(ctx, repository.Query{}.
		Eq(repository.ColUserId, userId).
		Eq(repository.ColIsActive, true))
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []model.Group{}, nil
	}
	ids := make([]any, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupId)
	}
	groups, err := g.repos.Group.Find(ctx, repository.Query{}.
		In(repository.ColId, ids...).
		Eq(repository.ColIsActive, true).
		OrderBy(repository.ColCreatedAt, true))
	if err != nil {
		return nil, err
	}
	return g.visible(groups), nil
}

// ForgetGroup 群组被删除后释放本地状态
func (g *Service) ForgetGroup(groupId string) {
	g.sendLocks.Delete(groupId)
	g.invalidateRecent(context.Background(), groupId)
	g.cacheGens.Delete(groupId)
}

// activeMembership 查找 (userId, groupId) 的活跃成员记录，不存在返回 nil, nil
func (g *Service) activeMembership(ctx context.Context, userId, groupId string) (*model.GroupMember, error) {
	members, err := g.repos.GroupMember.Find(ctx, repository.Query{}.
		Eq(repository.ColGroupId, groupId).
		Eq(repository.ColUserId, userId).
		Eq(repository.ColIsActive, true).
		OrderBy(repository.ColJoinedAt, false).
		Take(1))
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}
	return &members[0], nil
}

// recentMessages 先读缓存，未命中再查库：按 created_at 倒序取最近 N 条，反转成正序
func (g *Service) recentMessages(ctx context.Context, groupId string) ([]model.GroupMessage, error) {
	cacheKey := constants.GROUP_MESSAGES_PREFIX + groupId
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var messages []model.GroupMessage
			if err := json.Unmarshal([]byte(cached), &messages); err == nil {
				return messages, nil
			}
			zap.L().Warn("group message cache corrupted", zap.String("key", cacheKey))
		}
	}

	var gen *atomic.Int64
	var seen int64
	if g.cache != nil {
		gen = g.cacheGen(groupId)
		seen = gen.Load()
	}

	messages, err := g.repos.Message.Find(ctx, repository.Query{}.
		Eq(repository.ColGroupId, groupId).
		Eq(repository.ColIsActive, true).
		OrderBy(repository.ColCreatedAt, true).
		OrderBy(repository.ColId, true).
		Take(g.recentLimit))
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if g.cache != nil {
		snapshot := messages
		g.cache.SubmitTask(func() {
			// 查库之后有新消息，快照已过期
			if gen.Load() != seen {
				return
			}
			rspBytes, err := json.Marshal(snapshot)
			if err != nil {
				zap.L().Error("marshal group messages for cache", zap.Error(err))
				return
			}
			bgCtx := context.Background()
			if err := g.cache.Set(bgCtx, cacheKey, string(rspBytes), time.Minute*constants.REDIS_TIMEOUT); err != nil {
				zap.L().Error("set group message cache", zap.Error(err))
				return
			}
			// Set 期间发生了失效，撤回刚写入的快照
			if gen.Load() != seen {
				if err := g.cache.Delete(bgCtx, cacheKey); err != nil {
					zap.L().Error("drop stale group message cache", zap.Error(err))
				}
			}
		})
	}
	return messages, nil
}

// invalidateRecent 同步删除缓存，返回后读到的一定是库里的最新数据
func (g *Service) invalidateRecent(ctx context.Context, groupId string) {
	if g.cache == nil {
		return
	}
	g.cacheGen(groupId).Add(1)
	if err := g.cache.Delete(ctx, constants.GROUP_MESSAGES_PREFIX+groupId); err != nil {
		zap.L().Error("invalidate group message cache", zap.String("group_id", groupId), zap.Error(err))
	}
}

func (g *Service) cacheGen(groupId string) *atomic.Int64 {
	v, _ := g.cacheGens.LoadOrStore(groupId, new(atomic.Int64))
	return v.(*atomic.Int64)
}

func (g *Service) lockMember(groupId, userId string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(groupId + "/" + userId))
	mu := &g.memberLocks[h.Sum32()%memberLockStripes]
	mu.Lock()
	return mu.Unlock
}

func (g *Service) lockGroup(groupId string) func() {
	v, _ := g.sendLocks.LoadOrStore(groupId, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (g *Service) visible(groups []model.Group) []model.Group {
	now := g.now()
	out := make([]model.Group, 0, len(groups))
	for _, group := range groups {
		if group.IsJoinable(now) {
			out = append(out, group)
		}
	}
	return out
}

// moodGroupName "sad" -> "Feeling Sad"
func moodGroupName(mood string) string {
	r, size := utf8.DecodeRuneInString(mood)
	return "Feeling " + string(unicode.ToUpper(r)) + mood[size:]
}
