// Package errors 存放跨 repository 与 service 共享的哨兵错误
package errors

import "errors"

// ErrOptimisticLock 更新时 version 不匹配：记录已被并发请求或自动签退巡检修改
var ErrOptimisticLock = errors.New("记录已被其他操作修改，请刷新后重试")
