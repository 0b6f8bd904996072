package errors

import "errors"

// ── 存储层通用错误（各存储实现负责将驱动错误翻译为以下哨兵值） ──

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// ErrDuplicateKey 唯一约束冲突
var ErrDuplicateKey = errors.New("唯一约束冲突")
