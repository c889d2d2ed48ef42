package tui

import (
	"sync"
	"time"
)

// maxNotices 界面保留的提示条数
const maxNotices = 5

// Notice 一条界面提示
type Notice struct {
	At    time.Time
	Text  string
	Alert bool
}

// Notifier 缓冲控制器发出的提示，由界面在渲染时读取。
// 控制器在 tea.Cmd 的 goroutine 中调用，需加锁。
type Notifier struct {
	mu      sync.Mutex
	now     func() time.Time
	notices []Notice
}

// NewNotifier 创建 Notifier
func NewNotifier() *Notifier {
	return &Notifier{now: time.Now}
}

func (n *Notifier) Notify(message string) {
	n.push(Notice{Text: message})
}

func (n *Notifier) Alert(message string, err error) {
	text := message
	if err != nil {
		text += "：" + err.Error()
	}
	n.push(Notice{Text: text, Alert: true})
}

// Recent 最近的提示，旧的在前
func (n *Notifier) Recent() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

func (n *Notifier) push(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	notice.At = n.now()
	n.notices = append(n.notices, notice)
	if len(n.notices) > maxNotices {
		n.notices = n.notices[len(n.notices)-maxNotices:]
	}
}
