package group

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mood_chat_server/internal/dao/memory"
	"mood_chat_server/internal/dao/mysql/repository"
	"mood_chat_server/internal/dto/request"
	"mood_chat_server/internal/model"
	"mood_chat_server/internal/service/cleanup"
	"mood_chat_server/pkg/constants"
	"mood_chat_server/pkg/enum/group_type_enum"
	"mood_chat_server/pkg/errorx"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	ids  []int64
	fail bool
}

func (b *recordingBroadcaster) BroadcastMessage(_ context.Context, msg *model.GroupMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids = append(b.ids, msg.Id)
	if b.fail {
		return errors.New("broker down")
	}
	return nil
}

// failingMembers 写入成员记录时返回存储错误
type failingMembers struct {
	repository.GroupMemberRepository
}

func (failingMembers) Create(context.Context, *model.GroupMember) error {
	return errorx.New(errorx.CodeStoreUnavailable, "insert member failed")
}

// queuedCache 异步任务先排队，由测试决定何时执行
type queuedCache struct {
	mu     sync.Mutex
	values map[string]string
	tasks  []func()
}

func newQueuedCache() *queuedCache {
	return &queuedCache{values: map[string]string{}}
}

func (c *queuedCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *queuedCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *queuedCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *queuedCache) SubmitTask(action func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, action)
}

func (c *queuedCache) runTasks() {
	c.mu.Lock()
	tasks := c.tasks
	c.tasks = nil
	c.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

func (c *queuedCache) value(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

type fixture struct {
	svc   *Service
	repos *repository.Repositories
	clock *fakeClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repos := memory.NewRepositories()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	sweeper := cleanup.NewSweeper(repos, time.Hour)
	sweeper.SetClock(clock.Now)
	svc := NewGroupService(repos, NewAliasAllocator(repos.GroupMember, 0), sweeper,
		append([]Option{WithClock(clock.Now)}, opts...)...)
	sweeper.OnGroupDeleted(svc.ForgetGroup)
	return &fixture{svc: svc, repos: repos, clock: clock}
}

func (f *fixture) createGroup(t *testing.T, owner string, hours *int) *model.Group {
	t.Helper()
	g, err := f.svc.CreateGroup(context.Background(), owner, request.CreateGroupRequest{
		Name:           "Night Owls",
		Type:           group_type_enum.TopicBased,
		ExpiresInHours: hours,
	})
	require.NoError(t, err)
	return g
}

func intPtr(n int) *int { return &n }

func TestCreateGroupJoinsOwner(t *testing.T) {
	f := newFixture(t)
	g := f.createGroup(t, "owner", nil)

	assert.True(t, strings.HasPrefix(g.Id, "G"))
	assert.Equal(t, 1, g.MemberCount)
	assert.True(t, g.IsActive)
	assert.Nil(t, g.ExpiresAt)

	mine, err := f.svc.GetUserGroups(context.Background(), "owner")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, g.Id, mine[0].Id)
}

func TestCreateGroupValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGroup(ctx, "owner", request.CreateGroupRequest{Name: "   ", Type: group_type_enum.TopicBased})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = f.svc.CreateGroup(ctx, "owner", request.CreateGroupRequest{Name: "x", Type: "party"})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = f.svc.CreateGroup(ctx, "owner", request.CreateGroupRequest{Name: "x", Type: group_type_enum.TimeBased, ExpiresInHours: intPtr(0)})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	g, err := f.svc.CreateGroup(ctx, "owner", request.CreateGroupRequest{Name: "x", Type: group_type_enum.TimeBased, ExpiresInHours: intPtr(2)})
	require.NoError(t, err)
	require.NotNil(t, g.ExpiresAt)
	assert.Equal(t, f.clock.Now().Add(2*time.Hour), *g.ExpiresAt)
}

func TestJoinGroupIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	first, err := f.svc.JoinGroup(ctx, "alice", g.Id)
	require.NoError(t, err)
	second, err := f.svc.JoinGroup(ctx, "alice", g.Id)
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, first.AnonymousName, second.AnonymousName)

	got, err := f.repos.Group.Get(ctx, g.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemberCount)
}

func TestJoinGroupRejectsMissingAndExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.JoinGroup(ctx, "alice", "Gmissing")
	assert.True(t, errorx.IsNotFound(err))

	g := f.createGroup(t, "owner", intPtr(1))
	f.clock.Advance(time.Hour)
	_, err = f.svc.JoinGroup(ctx, "alice", g.Id)
	assert.ErrorIs(t, err, errorx.ErrGroupNotFound)
}

func TestLeaveGroupNeverGoesNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	require.NoError(t, f.svc.LeaveGroup(ctx, "owner", g.Id))
	require.NoError(t, f.svc.LeaveGroup(ctx, "owner", g.Id))
	require.NoError(t, f.svc.LeaveGroup(ctx, "stranger", g.Id))

	got, err := f.repos.Group.Get(ctx, g.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.MemberCount)

	mine, err := f.svc.GetUserGroups(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, mine)

	// 退群后重新加入是一条新的成员记录
	again, err := f.svc.JoinGroup(ctx, "owner", g.Id)
	require.NoError(t, err)
	assert.True(t, again.IsActive)
	got, err = f.repos.Group.Get(ctx, g.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MemberCount)
}

func TestMembersGetDistinctAliases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	seen := map[string]struct{}{}
	for _, user := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		m, err := f.svc.JoinGroup(ctx, user, g.Id)
		require.NoError(t, err)
		seen[m.AnonymousName] = struct{}{}
	}
	assert.Len(t, seen, 6)
}

func TestAutoJoinSharesMoodGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.AutoJoinMoodGroup(ctx, "alice", "Sad")
	require.NoError(t, err)
	assert.Equal(t, "Feeling Sad", a.Group.Name)
	assert.Equal(t, "Support group for people feeling sad", a.Group.Description)
	assert.Equal(t, group_type_enum.MoodBased, a.Group.Type)
	require.NotNil(t, a.Group.ExpiresAt)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), *a.Group.ExpiresAt)

	b, err := f.svc.AutoJoinMoodGroup(ctx, "bob", "sad")
	require.NoError(t, err)
	assert.Equal(t, a.Group.Id, b.Group.Id)
	assert.Equal(t, 2, b.Group.MemberCount)
	assert.NotEqual(t, a.Membership.AnonymousName, b.Membership.AnonymousName)

	other, err := f.svc.AutoJoinMoodGroup(ctx, "carol", "happy")
	require.NoError(t, err)
	assert.NotEqual(t, a.Group.Id, other.Group.Id)
}

func TestAutoJoinReplacesExpiredMoodGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old, err := f.svc.AutoJoinMoodGroup(ctx, "alice", "sad")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, "alice", old.Group.Id, "anyone here?")
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)

	fresh, err := f.svc.AutoJoinMoodGroup(ctx, "bob", "sad")
	require.NoError(t, err)
	assert.NotEqual(t, old.Group.Id, fresh.Group.Id)
	assert.Equal(t, "Feeling Sad", fresh.Group.Name)
	assert.Equal(t, 1, fresh.Group.MemberCount)

	_, err = f.repos.Group.Get(ctx, old.Group.Id)
	assert.True(t, errorx.IsNotFound(err))
	n, err := f.repos.Message.Count(ctx, repository.Query{}.Eq(repository.ColGroupId, old.Group.Id))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAutoJoinRejectsBlankMood(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AutoJoinMoodGroup(context.Background(), "alice", "  ")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
}

func TestSendMessageChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	_, err := f.svc.SendMessage(ctx, "stranger", g.Id, "hi")
	assert.ErrorIs(t, err, errorx.ErrNotMember)
	assert.True(t, errorx.IsBadRequest(err))

	_, err = f.svc.SendMessage(ctx, "owner", g.Id, "   ")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = f.svc.SendMessage(ctx, "owner", g.Id, strings.Repeat("好", 101))
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	msg, err := f.svc.SendMessage(ctx, "owner", g.Id, "  "+strings.Repeat("好", 100)+"  ")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("好", 100), msg.Body)
	assert.NotZero(t, msg.Id)
}

func TestSendMessageBroadcastsInOrder(t *testing.T) {
	b := &recordingBroadcaster{}
	f := newFixture(t)
	f.svc.SetBroadcaster(b)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	var want []int64
	for i := 0; i < 5; i++ {
		msg, err := f.svc.SendMessage(ctx, "owner", g.Id, "hello")
		require.NoError(t, err)
		want = append(want, msg.Id)
	}
	assert.Equal(t, want, b.ids)
}

func TestSendMessageSurvivesBroadcastFailure(t *testing.T) {
	b := &recordingBroadcaster{fail: true}
	f := newFixture(t)
	f.svc.SetBroadcaster(b)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	msg, err := f.svc.SendMessage(ctx, "owner", g.Id, "still saved")
	require.NoError(t, err)

	chat, err := f.svc.GetGroupChat(ctx, "owner", g.Id)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, msg.Id, chat.Messages[0].Id)
}

func TestChangeAnonymousNameKeepsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	before, err := f.svc.SendMessage(ctx, "owner", g.Id, "first")
	require.NoError(t, err)

	renamed, err := f.svc.ChangeAnonymousName(ctx, "owner", g.Id)
	require.NoError(t, err)
	assert.NotEqual(t, before.AnonymousSender, renamed.AnonymousName)

	after, err := f.svc.SendMessage(ctx, "owner", g.Id, "second")
	require.NoError(t, err)
	assert.Equal(t, renamed.AnonymousName, after.AnonymousSender)

	chat, err := f.svc.GetGroupChat(ctx, "owner", g.Id)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, before.AnonymousSender, chat.Messages[0].AnonymousSender)
	assert.Equal(t, renamed.AnonymousName, chat.Messages[1].AnonymousSender)
	assert.Equal(t, renamed.AnonymousName, chat.MyAnonymousName)

	_, err = f.svc.ChangeAnonymousName(ctx, "stranger", g.Id)
	assert.ErrorIs(t, err, errorx.ErrNotMember)
}

func TestGetGroupChatReturnsRecentInOrder(t *testing.T) {
	f := newFixture(t, WithRecentLimit(3))
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	for _, body := range []string{"m1", "m2", "m3", "m4", "m5"} {
		_, err := f.svc.SendMessage(ctx, "owner", g.Id, body)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	chat, err := f.svc.GetGroupChat(ctx, "owner", g.Id)
	require.NoError(t, err)
	var bodies []string
	for _, m := range chat.Messages {
		bodies = append(bodies, m.Body)
	}
	assert.Equal(t, []string{"m3", "m4", "m5"}, bodies)

	recent, err := f.svc.GetRecentMessages(ctx, g.Id)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestGetGroupChatErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetGroupChat(ctx, "owner", "Gmissing")
	assert.True(t, errorx.IsNotFound(err))

	g := f.createGroup(t, "owner", intPtr(1))
	_, err = f.svc.GetGroupChat(ctx, "stranger", g.Id)
	assert.ErrorIs(t, err, errorx.ErrNotMember)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.GetGroupChat(ctx, "owner", g.Id)
	assert.ErrorIs(t, err, errorx.ErrGroupExpired)

	_, err = f.svc.GetRecentMessages(ctx, g.Id)
	assert.ErrorIs(t, err, errorx.ErrGroupNotFound)
}

func TestGetAvailableGroupsHidesExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	small := f.createGroup(t, "a", nil)
	big := f.createGroup(t, "b", nil)
	_, err := f.svc.JoinGroup(ctx, "c", big.Id)
	require.NoError(t, err)
	short := f.createGroup(t, "d", intPtr(1))

	groups, err := f.svc.GetAvailableGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, big.Id, groups[0].Id)

	f.clock.Advance(time.Hour)
	groups, err = f.svc.GetAvailableGroups(ctx)
	require.NoError(t, err)
	var ids []string
	for _, g := range groups {
		ids = append(ids, g.Id)
	}
	assert.ElementsMatch(t, []string{small.Id, big.Id}, ids)
	assert.NotContains(t, ids, short.Id)

	mine, err := f.svc.GetUserGroups(ctx, "d")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestMoodGroupName(t *testing.T) {
	assert.Equal(t, "Feeling Sad", moodGroupName("sad"))
	assert.Equal(t, "Feeling Burnt out", moodGroupName("burnt out"))
}

func TestCreateGroupRemovesOrphanWhenOwnerJoinFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repos.GroupMember = failingMembers{GroupMemberRepository: f.repos.GroupMember}

	_, err := f.svc.CreateGroup(ctx, "owner", request.CreateGroupRequest{Name: "Night Owls", Type: group_type_enum.TopicBased})
	require.Error(t, err)
	assert.True(t, errorx.IsStoreUnavailable(err))

	n, err := f.repos.Group.Count(ctx, repository.Query{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConcurrentJoinLeaveKeepsMemberCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	const users = 40
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			_, err := f.svc.JoinGroup(ctx, user, g.Id)
			assert.NoError(t, err)
			if i%2 == 1 {
				assert.NoError(t, f.svc.LeaveGroup(ctx, user, g.Id))
			}
		}(i)
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		got, err := f.repos.Group.Get(ctx, g.Id)
		if err != nil {
			return false
		}
		active, err := f.repos.GroupMember.Count(ctx, repository.Query{}.
			Eq(repository.ColGroupId, g.Id).
			Eq(repository.ColIsActive, true))
		if err != nil {
			return false
		}
		return int64(got.MemberCount) == active && active == 1+users/2
	}, time.Second, 10*time.Millisecond)
}

func TestConcurrentDoubleJoinCreatesOneMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.JoinGroup(ctx, "alice", g.Id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := f.repos.GroupMember.Count(ctx, repository.Query{}.
		Eq(repository.ColGroupId, g.Id).
		Eq(repository.ColUserId, "alice").
		Eq(repository.ColIsActive, true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.repos.Group.Get(ctx, g.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemberCount)
}

func TestConcurrentSendBroadcastMatchesStoreOrder(t *testing.T) {
	b := &recordingBroadcaster{}
	f := newFixture(t)
	f.svc.SetBroadcaster(b)
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)

	const senders = 8
	const perSender = 10
	for i := 0; i < senders; i++ {
		_, err := f.svc.JoinGroup(ctx, fmt.Sprintf("user-%d", i), g.Id)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				_, err := f.svc.SendMessage(ctx, fmt.Sprintf("user-%d", i), g.Id, fmt.Sprintf("m%d-%d", i, j))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	stored, err := f.repos.Message.Find(ctx, repository.Query{}.
		Eq(repository.ColGroupId, g.Id).
		OrderBy(repository.ColCreatedAt, false).
		OrderBy(repository.ColId, false))
	require.NoError(t, err)
	want := make([]int64, 0, len(stored))
	for _, m := range stored {
		want = append(want, m.Id)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.ids, senders*perSender)
	assert.Equal(t, want, b.ids)
}

func TestStaleRecentCacheFillIsDropped(t *testing.T) {
	cache := newQueuedCache()
	f := newFixture(t, WithCache(cache))
	ctx := context.Background()
	g := f.createGroup(t, "owner", nil)
	key := constants.GROUP_MESSAGES_PREFIX + g.Id

	_, err := f.svc.SendMessage(ctx, "owner", g.Id, "first")
	require.NoError(t, err)

	// 回填任务排队时又来了一条新消息
	chat, err := f.svc.GetGroupChat(ctx, "owner", g.Id)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 1)
	_, err = f.svc.SendMessage(ctx, "owner", g.Id, "second")
	require.NoError(t, err)

	cache.runTasks()
	_, ok := cache.value(key)
	assert.False(t, ok)

	chat, err = f.svc.GetGroupChat(ctx, "owner", g.Id)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "second", chat.Messages[1].Body)

	cache.runTasks()
	cached, ok := cache.value(key)
	require.True(t, ok)
	assert.Contains(t, cached, "second")

	// 命中缓存也是最新的两条
	chat, err = f.svc.GetGroupChat(ctx, "owner", g.Id)
	require.NoError(t, err)
	assert.Len(t, chat.Messages, 2)
}
