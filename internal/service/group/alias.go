package group

import (
	"context"
	"fmt"

	"mood_chat_server/internal/dao/mysql/repository"
	"mood_chat_server/pkg/constants"
	"mood_chat_server/pkg/util/random"
)

// AliasAllocator 为群成员分配群内匿名昵称
//
// 候选昵称为 "<形容词> <名词>"，与该群所有 is_active 成员的昵称比对，
// 最多尝试 maxAttempts 次。全部碰撞时在最后一个候选后追加 0-999 的数字直接返回，
// 这一分支不再校验，同名是可能的；房间通常只有几十人，命中概率很低。
type AliasAllocator struct {
	members     repository.GroupMemberRepository
	adjectives  []string
	nouns       []string
	maxAttempts int
	intn        func(n int) int // [0, n) 随机数，测试中可替换
}

// NewAliasAllocator 使用默认词表创建分配器
func NewAliasAllocator(members repository.GroupMemberRepository, maxAttempts int) *AliasAllocator {
	if maxAttempts <= 0 {
		maxAttempts = constants.MAX_ALIAS_ATTEMPTS
	}
	return &AliasAllocator{
		members:     members,
		adjectives:  constants.AliasAdjectives,
		nouns:       constants.AliasNouns,
		maxAttempts: maxAttempts,
		intn:        random.RandomIndex,
	}
}

// Allocate 为 groupId 生成一个未被活跃成员占用的昵称
func (a *AliasAllocator) Allocate(ctx context.Context, groupId string) (string, error) {
	active, err := a.members.Find(ctx, repository.Query{}.
		Eq(repository.ColGroupId, groupId).
		Eq(repository.ColIsActive, true))
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(active))
	for _, m := range active {
		taken[m.AnonymousName] = struct{}{}
	}

	var candidate string
	for i := 0; i < a.maxAttempts; i++ {
		candidate = a.candidate()
		if _, used := taken[candidate]; !used {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s %d", candidate, a.intn(constants.ALIAS_SUFFIX_RANGE)), nil
}

func (a *AliasAllocator) candidate() string {
	return a.adjectives[a.intn(len(a.adjectives))] + " " + a.nouns[a.intn(len(a.nouns))]
}
