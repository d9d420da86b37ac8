package errors

import "errors"

// ── 通用业务错误分类 ──
// 服务层以 fmt.Errorf("...: %w", ErrXxx) 包装，调用方使用 errors.Is 判断

var (
	// ErrNotInitialized 组件在 Initialize 之前被调用
	ErrNotInitialized = errors.New("组件尚未初始化")
	// ErrNotFound 成员 / 课程 / 报名记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrInvalidConfiguration 日程配置非法（星期名、BMQ 训练日、MM-DD 日期等）
	ErrInvalidConfiguration = errors.New("日程配置无效")
	// ErrInvalidRange 日期范围缺失或非法
	ErrInvalidRange = errors.New("日期范围无效")
	// ErrSimulationRunning 已有模拟任务在执行
	ErrSimulationRunning = errors.New("已有数据模拟任务正在执行")
)
