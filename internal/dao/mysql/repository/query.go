package repository

// 列名，Query 的 Field 和 Update 的 key 都使用列名
const (
	ColId            = "id"
	ColName          = "name"
	ColType          = "type"
	ColMemberCount   = "member_count"
	ColIsActive      = "is_active"
	ColExpiresAt     = "expires_at"
	ColCreatedAt     = "created_at"
	ColGroupId       = "group_id"
	ColUserId        = "user_id"
	ColAnonymousName = "anonymous_name"
	ColJoinedAt      = "joined_at"
)

// Op 条件运算符
type Op string

const (
	OpEq  Op = "="
	OpLte Op = "<="
	OpGt  Op = ">"
	OpIn  Op = "IN"
)

// Cond 单个过滤条件，多个条件之间是 AND 关系
// OpIn 的 Value 为 []any
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Order 排序字段
type Order struct {
	Field string
	Desc  bool
}

// Query 查询描述：谓词 + 排序 + limit/offset
// 零值表示查询全部
type Query struct {
	Conds  []Cond
	Orders []Order
	Limit  int
	Offset int
}

// Where 追加一个条件，返回新的 Query，不修改原值
func (q Query) Where(field string, op Op, value any) Query {
	conds := make([]Cond, len(q.Conds), len(q.Conds)+1)
	copy(conds, q.Conds)
	q.Conds = append(conds, Cond{Field: field, Op: op, Value: value})
	return q
}

// Eq field = value
func (q Query) Eq(field string, value any) Query {
	return q.Where(field, OpEq, value)
}

// In field IN (values...)
func (q Query) In(field string, values ...any) Query {
	return q.Where(field, OpIn, values)
}

// OrderBy 追加排序字段
func (q Query) OrderBy(field string, desc bool) Query {
	orders := make([]Order, len(q.Orders), len(q.Orders)+1)
	copy(orders, q.Orders)
	q.Orders = append(orders, Order{Field: field, Desc: desc})
	return q
}

// Take 设置 limit
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Skip 设置 offset
func (q Query) Skip(n int) Query {
	q.Offset = n
	return q
}
