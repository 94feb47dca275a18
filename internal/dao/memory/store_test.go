package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mood_chat_server/internal/dao/mysql/repository"
	"mood_chat_server/internal/model"
	"mood_chat_server/pkg/errorx"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func seedGroups(t *testing.T, repos *repository.Repositories) {
	t.Helper()
	ctx := context.Background()
	groups := []model.Group{
		{Id: "G1", Name: "Feeling Sad", Type: "mood_based", IsActive: true, MemberCount: 3, ExpiresAt: ptr(base.Add(time.Hour)), CreatedAt: base},
		{Id: "G2", Name: "Feeling Sad", Type: "mood_based", IsActive: true, MemberCount: 1, ExpiresAt: ptr(base.Add(-time.Hour)), CreatedAt: base.Add(time.Minute)},
		{Id: "G3", Name: "Go Talk", Type: "topic_based", IsActive: true, MemberCount: 7, CreatedAt: base.Add(2 * time.Minute)},
		{Id: "G4", Name: "Old", Type: "topic_based", IsActive: false, MemberCount: 0, ExpiresAt: ptr(base.Add(-2 * time.Hour)), CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range groups {
		require.NoError(t, repos.Group.Create(ctx, &groups[i]))
	}
}

func ids(groups []model.Group) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Id)
	}
	return out
}

func TestGroupGetMissingIsNotFound(t *testing.T) {
	repos := NewRepositories()
	_, err := repos.Group.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errorx.IsNotFound(err))
}

func TestGroupFindFiltersAndOrders(t *testing.T) {
	repos := NewRepositories()
	seedGroups(t, repos)
	ctx := context.Background()

	got, err := repos.Group.Find(ctx, repository.Query{}.
		Eq(repository.ColIsActive, true).
		OrderBy(repository.ColMemberCount, true))
	require.NoError(t, err)
	assert.Equal(t, []string{"G3", "G1", "G2"}, ids(got))

	got, err = repos.Group.Find(ctx, repository.Query{}.
		Eq(repository.ColName, "Feeling Sad").
		OrderBy(repository.ColCreatedAt, true).
		Take(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"G2"}, ids(got))

	got, err = repos.Group.Find(ctx, repository.Query{}.
		In(repository.ColId, "G1", "G4", "missing").
		OrderBy(repository.ColId, false))
	require.NoError(t, err)
	assert.Equal(t, []string{"G1", "G4"}, ids(got))

	got, err = repos.Group.Find(ctx, repository.Query{}.OrderBy(repository.ColId, false).Skip(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"G4"}, ids(got))
}

func TestNullExpiresAtNeverMatchesComparison(t *testing.T) {
	repos := NewRepositories()
	seedGroups(t, repos)
	ctx := context.Background()

	expired, err := repos.Group.Find(ctx, repository.Query{}.
		Eq(repository.ColIsActive, true).
		Where(repository.ColExpiresAt, repository.OpLte, base).
		OrderBy(repository.ColId, false))
	require.NoError(t, err)
	assert.Equal(t, []string{"G2"}, ids(expired))

	future, err := repos.Group.Find(ctx, repository.Query{}.
		Where(repository.ColExpiresAt, repository.OpGt, base))
	require.NoError(t, err)
	assert.Equal(t, []string{"G1"}, ids(future))
}

func TestUnknownColumnRejected(t *testing.T) {
	repos := NewRepositories()
	seedGroups(t, repos)

	_, err := repos.Group.Find(context.Background(), repository.Query{}.Eq("owner_id", "U1"))
	require.Error(t, err)
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
}

func TestMemberCountFlooredAtZero(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	require.NoError(t, repos.Group.Create(ctx, &model.Group{Id: "G1", IsActive: true}))

	require.NoError(t, repos.Group.DecrementMemberCount(ctx, "G1"))
	require.NoError(t, repos.Group.IncrementMemberCount(ctx, "G1"))
	require.NoError(t, repos.Group.DecrementMemberCount(ctx, "G1"))
	require.NoError(t, repos.Group.DecrementMemberCount(ctx, "G1"))

	g, err := repos.Group.Get(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, 0, g.MemberCount)
}

func TestReturnedRowsAreCopies(t *testing.T) {
	repos := NewRepositories()
	seedGroups(t, repos)
	ctx := context.Background()

	g, err := repos.Group.Get(ctx, "G1")
	require.NoError(t, err)
	g.Name = "changed"
	*g.ExpiresAt = base.Add(100 * time.Hour)

	again, err := repos.Group.Get(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, "Feeling Sad", again.Name)
	assert.Equal(t, base.Add(time.Hour), *again.ExpiresAt)
}

func TestCanceledContextIsStoreUnavailable(t *testing.T) {
	repos := NewRepositories()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repos.Message.Find(ctx, repository.Query{})
	require.Error(t, err)
	assert.True(t, errorx.IsStoreUnavailable(err))
}

func TestMessagesOrderedByCreatedAtThenId(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	for i, at := range []time.Time{base, base.Add(time.Second), base.Add(time.Second)} {
		require.NoError(t, repos.Message.Create(ctx, &model.GroupMessage{
			Id: int64(i + 1), GroupId: "G1", Body: "m", IsActive: true, CreatedAt: at,
		}))
	}
	require.NoError(t, repos.Message.Create(ctx, &model.GroupMessage{Id: 9, GroupId: "G2", IsActive: true, CreatedAt: base}))

	got, err := repos.Message.Find(ctx, repository.Query{}.
		Eq(repository.ColGroupId, "G1").
		OrderBy(repository.ColCreatedAt, true).
		OrderBy(repository.ColId, true).
		Take(2))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].Id)
	assert.Equal(t, int64(2), got[1].Id)

	n, err := repos.Message.Count(ctx, repository.Query{}.Eq(repository.ColGroupId, "G1"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestMemberUpdateAndDelete(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	require.NoError(t, repos.GroupMember.Create(ctx, &model.GroupMember{
		Id: "M1", GroupId: "G1", UserId: "U1", AnonymousName: "Calm Otter", IsActive: true, JoinedAt: base,
	}))

	require.NoError(t, repos.GroupMember.Update(ctx, "M1", map[string]any{
		repository.ColIsActive:      false,
		repository.ColAnonymousName: "Brave Fox",
	}))
	m, err := repos.GroupMember.Get(ctx, "M1")
	require.NoError(t, err)
	assert.False(t, m.IsActive)
	assert.Equal(t, "Brave Fox", m.AnonymousName)

	require.NoError(t, repos.GroupMember.Delete(ctx, "M1"))
	_, err = repos.GroupMember.Get(ctx, "M1")
	assert.True(t, errorx.IsNotFound(err))
}
