package worksession

import (
	"math/rand"
	"sync"
	"time"
)

// 固定提示文案
const (
	NoticeResumed         = "休息结束，继续加油！"
	NoticeOvertimeStarted = "加班已开始，注意劳逸结合。"
)

var welcomeBackNotices = []string{
	"欢迎回来，今天也要元气满满！",
	"签到成功，祝你今天工作顺利。",
	"早上好！新的一天从专注开始。",
	"欢迎上线，记得按时休息哦。",
	"签到完成，一起把事情做好吧！",
}

// WelcomeBackNotices 返回欢迎文案池的副本
func WelcomeBackNotices() []string {
	out := make([]string, len(welcomeBackNotices))
	copy(out, welcomeBackNotices)
	return out
}

// NoticePicker 从固定文案池中选取欢迎语；相同 seed 产生相同序列，便于测试断言
type NoticePicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewNoticePicker 创建 NoticePicker，seed 为 0 时按当前时间取种子
func NewNoticePicker(seed int64) *NoticePicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &NoticePicker{rnd: rand.New(rand.NewSource(seed))}
}

// WelcomeBack 随机取一条欢迎语
func (p *NoticePicker) WelcomeBack() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return welcomeBackNotices[p.rnd.Intn(len(welcomeBackNotices))]
}
