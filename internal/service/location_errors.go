package service

import (
	"errors"
	"fmt"
)

// ── 地点模块业务错误 ──

var (
	ErrLocationNotFound      = errors.New("地点不存在")
	ErrInvalidLocationID     = errors.New("地点ID格式不正确")
	ErrLocationValidation    = errors.New("地点数据校验失败")
	ErrDuplicateSerialNumber = errors.New("设备序列号已存在")
	ErrStorageUnavailable    = errors.New("存储服务暂不可用")
	ErrLocationConflict      = errors.New("地点已被其他操作修改，请刷新后重试")
)

// FieldError 携带出错字段的业务错误，errors.Is 可匹配到 Kind 对应的哨兵错误
type FieldError struct {
	Kind   error
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Reason)
	}
	return msg
}

func (e *FieldError) Unwrap() error { return e.Kind }

func validationError(field, value, reason string) error {
	return &FieldError{Kind: ErrLocationValidation, Field: field, Value: value, Reason: reason}
}

func duplicateSerialError(field, serial string) error {
	return &FieldError{Kind: ErrDuplicateSerialNumber, Field: field, Value: serial, Reason: "序列号已被其他设备使用"}
}

// Retryable 调用方重试是否可能成功
func Retryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrLocationConflict)
}
