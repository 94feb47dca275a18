package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"mood_chat_server/internal/dao/mysql/repository"
	"mood_chat_server/pkg/errorx"
)

// fieldFunc 按列名取值，第二个返回值表示列是否存在
type fieldFunc[T any] func(row *T, field string) (any, bool)

// runQuery 过滤 -> 排序 -> offset/limit
func runQuery[T any](rows []T, q repository.Query, field fieldFunc[T]) ([]T, error) {
	matched, err := filter(rows, q, field)
	if err != nil {
		return nil, err
	}
	if len(q.Orders) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, o := range q.Orders {
				a, _ := field(&matched[i], o.Field)
				b, _ := field(&matched[j], o.Field)
				c := compare(a, b)
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []T{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func filter[T any](rows []T, q repository.Query, field fieldFunc[T]) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i := range rows {
		ok, err := matches(&rows[i], q.Conds, field)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

func matches[T any](row *T, conds []repository.Cond, field fieldFunc[T]) (bool, error) {
	for _, c := range conds {
		v, ok := field(row, c.Field)
		if !ok {
			return false, errorx.Newf(errorx.CodeInvalidParam, "unknown column %q", c.Field)
		}
		switch c.Op {
		case repository.OpEq:
			if !bothPresent(v, c.Value) || compare(v, c.Value) != 0 {
				return false, nil
			}
		case repository.OpLte:
			// NULL 与任何值比较都不成立，和 SQL 一致
			if isNil(v) || compare(v, c.Value) > 0 {
				return false, nil
			}
		case repository.OpGt:
			if isNil(v) || compare(v, c.Value) <= 0 {
				return false, nil
			}
		case repository.OpIn:
			values, _ := c.Value.([]any)
			found := false
			for _, candidate := range values {
				if bothPresent(v, candidate) && compare(v, candidate) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, errorx.Newf(errorx.CodeInvalidParam, "unsupported operator %q", c.Op)
		}
	}
	return true, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	t, ok := v.(*time.Time)
	return ok && t == nil
}

// bothPresent NULL 不等于任何值
func bothPresent(a, b any) bool {
	return !isNil(a) && !isNil(b)
}

// compare 支持本仓库模型里出现的列类型；NULL 排在最前
func compare(a, b any) int {
	if isNil(a) || isNil(b) {
		switch {
		case isNil(a) && isNil(b):
			return 0
		case isNil(a):
			return -1
		default:
			return 1
		}
	}
	if t, ok := a.(*time.Time); ok {
		a = *t
	}
	if t, ok := b.(*time.Time); ok {
		b = *t
	}
	switch x := a.(type) {
	case string:
		return strings.Compare(x, fmt.Sprint(b))
	case bool:
		y, _ := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case int:
		return cmpInt64(int64(x), toInt64(b))
	case int64:
		return cmpInt64(x, toInt64(b))
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
