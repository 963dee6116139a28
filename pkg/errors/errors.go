package errors

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable 上游数据源不可用：重试耗尽后包装返回，
// Handler 映射为 503；缓存中若有最近可用值应优先返回旧值而非直接失败
var ErrUpstreamUnavailable = errors.New("上游数据源暂时不可用")

// InvalidQueryError 非法查询参数错误
// 永不重试，Handler 映射为 400 并指明具体字段
type InvalidQueryError struct {
	Field  string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("参数 %s 非法: %s", e.Field, e.Reason)
}

// NewInvalidQuery 构造非法查询错误
func NewInvalidQuery(field, reason string) error {
	return &InvalidQueryError{Field: field, Reason: reason}
}

// AsInvalidQuery 判断并提取非法查询错误
func AsInvalidQuery(err error) (*InvalidQueryError, bool) {
	var iq *InvalidQueryError
	if errors.As(err, &iq) {
		return iq, true
	}
	return nil, false
}
