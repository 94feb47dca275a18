package memory

import (
	"context"
	"time"

	"mood_chat_server/internal/dao/mysql/repository"
	"mood_chat_server/internal/model"
	"mood_chat_server/pkg/errorx"
)

type groupRepository struct {
	s *Store
}

func groupField(g *model.Group, field string) (any, bool) {
	switch field {
	case repository.ColId:
		return g.Id, true
	case repository.ColName:
		return g.Name, true
	case "description":
		return g.Description, true
	case repository.ColType:
		return g.Type, true
	case repository.ColMemberCount:
		return g.MemberCount, true
	case repository.ColIsActive:
		return g.IsActive, true
	case repository.ColExpiresAt:
		return g.ExpiresAt, true
	case repository.ColCreatedAt:
		return g.CreatedAt, true
	}
	return nil, false
}

func cloneGroup(g model.Group) model.Group {
	if g.ExpiresAt != nil {
		t := *g.ExpiresAt
		g.ExpiresAt = &t
	}
	return g
}

func (r *groupRepository) Get(ctx context.Context, id string) (*model.Group, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "查询群组 id=%s: record not found", id)
	}
	g = cloneGroup(g)
	return &g, nil
}

func (r *groupRepository) Find(ctx context.Context, q repository.Query) ([]model.Group, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	rows := make([]model.Group, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		rows = append(rows, cloneGroup(g))
	}
	r.s.mu.RUnlock()
	return runQuery(rows, q, groupField)
}

func (r *groupRepository) Count(ctx context.Context, q repository.Query) (int64, error) {
	rows, err := r.Find(ctx, repository.Query{Conds: q.Conds})
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.groups[group.Id]; exists {
		return errorx.Newf(errorx.CodeStoreUnavailable, "创建群组 id=%s: duplicate key", group.Id)
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now()
	}
	r.s.groups[group.Id] = cloneGroup(*group)
	return nil
}

func (r *groupRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case repository.ColName:
			g.Name, _ = v.(string)
		case "description":
			g.Description, _ = v.(string)
		case repository.ColMemberCount:
			g.MemberCount = int(toInt64(v))
		case repository.ColIsActive:
			g.IsActive, _ = v.(bool)
		case repository.ColExpiresAt:
			switch t := v.(type) {
			case time.Time:
				g.ExpiresAt = &t
			case *time.Time:
				g.ExpiresAt = t
			default:
				g.ExpiresAt = nil
			}
		default:
			return errorx.Newf(errorx.CodeInvalidParam, "unknown column %q", k)
		}
	}
	r.s.groups[id] = cloneGroup(g)
	return nil
}

func (r *groupRepository) IncrementMemberCount(ctx context.Context, id string) error {
	return r.addMemberCount(ctx, id, 1)
}

func (r *groupRepository) DecrementMemberCount(ctx context.Context, id string) error {
	return r.addMemberCount(ctx, id, -1)
}

func (r *groupRepository) addMemberCount(ctx context.Context, id string, delta int) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil
	}
	g.MemberCount += delta
	if g.MemberCount < 0 {
		g.MemberCount = 0
	}
	r.s.groups[id] = g
	return nil
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	delete(r.s.groups, id)
	r.s.mu.Unlock()
	return nil
}
