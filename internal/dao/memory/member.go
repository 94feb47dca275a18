package memory

import (
	"context"

	"mood_chat_server/internal/dao/mysql/repository"
	"mood_chat_server/internal/model"
	"mood_chat_server/pkg/errorx"
)

type groupMemberRepository struct {
	s *Store
}

func memberField(m *model.GroupMember, field string) (any, bool) {
	switch field {
	case repository.ColId:
		return m.Id, true
	case repository.ColGroupId:
		return m.GroupId, true
	case repository.ColUserId:
		return m.UserId, true
	case repository.ColAnonymousName:
		return m.AnonymousName, true
	case repository.ColIsActive:
		return m.IsActive, true
	case repository.ColJoinedAt:
		return m.JoinedAt, true
	}
	return nil, false
}

func (r *groupMemberRepository) Get(ctx context.Context, id string) (*model.GroupMember, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "查询群成员 id=%s: record not found", id)
	}
	return &m, nil
}

func (r *groupMemberRepository) Find(ctx context.Context, q repository.Query) ([]model.GroupMember, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	rows := make([]model.GroupMember, 0, len(r.s.members))
	for _, m := range r.s.members {
		rows = append(rows, m)
	}
	r.s.mu.RUnlock()
	return runQuery(rows, q, memberField)
}

func (r *groupMemberRepository) Count(ctx context.Context, q repository.Query) (int64, error) {
	rows, err := r.Find(ctx, repository.Query{Conds: q.Conds})
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (r *groupMemberRepository) Create(ctx context.Context, member *model.GroupMember) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.members[member.Id]; exists {
		return errorx.Newf(errorx.CodeStoreUnavailable, "创建群成员 id=%s: duplicate key", member.Id)
	}
	r.s.members[member.Id] = *member
	return nil
}

func (r *groupMemberRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case repository.ColAnonymousName:
			m.AnonymousName, _ = v.(string)
		case repository.ColIsActive:
			m.IsActive, _ = v.(bool)
		default:
			return errorx.Newf(errorx.CodeInvalidParam, "unknown column %q", k)
		}
	}
	r.s.members[id] = m
	return nil
}

func (r *groupMemberRepository) Delete(ctx context.Context, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	delete(r.s.members, id)
	r.s.mu.Unlock()
	return nil
}
