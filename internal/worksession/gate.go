package worksession

import (
	"errors"
	"sync"
)

// Prompt 需要用户显式确认的提示类型
type Prompt int

const (
	// PromptLogout 下班（签退并退出登录）确认
	PromptLogout Prompt = iota + 1
	// PromptOvertimeResume 今日已签退后开始加班的确认
	PromptOvertimeResume
)

func (p Prompt) String() string {
	switch p {
	case PromptLogout:
		return "logout"
	case PromptOvertimeResume:
		return "overtime_resume"
	}
	return "unknown"
}

// ErrNotAwaiting 未处于待确认状态时调用了确认
var ErrNotAwaiting = errors.New("当前没有待确认的操作")

// Gate 确认闸门：不是持久状态，只是每类提示一个"等待确认"标记。
// 标记存在期间对应的转换被挂起，直到用户确认或取消。
type Gate struct {
	mu       sync.Mutex
	awaiting map[Prompt]bool
}

// NewGate 创建 Gate
func NewGate() *Gate {
	return &Gate{awaiting: make(map[Prompt]bool)}
}

// Raise 挂起并等待确认
func (g *Gate) Raise(p Prompt) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.awaiting[p] = true
}

// Awaiting 是否在等待该提示的确认
func (g *Gate) Awaiting(p Prompt) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.awaiting[p]
}

// Cancel 清除标记，无任何副作用
func (g *Gate) Cancel(p Prompt) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.awaiting, p)
}

// Pending 当前所有待确认的提示
func (g *Gate) Pending() []Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Prompt
	for _, p := range []Prompt{PromptLogout, PromptOvertimeResume} {
		if g.awaiting[p] {
			out = append(out, p)
		}
	}
	return out
}
