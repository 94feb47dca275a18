package memory

import (
	"context"

	"mood_chat_server/internal/dao/mysql/repository"
	"mood_chat_server/internal/model"
	"mood_chat_server/pkg/errorx"
)

type groupMessageRepository struct {
	s *Store
}

func messageField(m *model.GroupMessage, field string) (any, bool) {
	switch field {
	case repository.ColId:
		return m.Id, true
	case repository.ColGroupId:
		return m.GroupId, true
	case repository.ColUserId:
		return m.UserId, true
	case repository.ColIsActive:
		return m.IsActive, true
	case repository.ColCreatedAt:
		return m.CreatedAt, true
	}
	return nil, false
}

func (r *groupMessageRepository) Get(ctx context.Context, id int64) (*model.GroupMessage, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, errorx.Newf(errorx.CodeNotFound, "查询消息 id=%d: record not found", id)
	}
	return &m, nil
}

func (r *groupMessageRepository) Find(ctx context.Context, q repository.Query) ([]model.GroupMessage, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	rows := make([]model.GroupMessage, 0, len(r.s.messages))
	for _, m := range r.s.messages {
		rows = append(rows, m)
	}
	r.s.mu.RUnlock()
	return runQuery(rows, q, messageField)
}

func (r *groupMessageRepository) Count(ctx context.Context, q repository.Query) (int64, error) {
	rows, err := r.Find(ctx, repository.Query{Conds: q.Conds})
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (r *groupMessageRepository) Create(ctx context.Context, message *model.GroupMessage) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.messages[message.Id]; exists {
		return errorx.Newf(errorx.CodeStoreUnavailable, "保存消息 id=%d: duplicate key", message.Id)
	}
	r.s.messages[message.Id] = *message
	return nil
}

func (r *groupMessageRepository) Delete(ctx context.Context, id int64) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	delete(r.s.messages, id)
	r.s.mu.Unlock()
	return nil
}
