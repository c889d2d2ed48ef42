package worksession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ═══════════════════════════════════════════════════════════
// 内存版考勤协作方：模拟服务端"至多一条未签退记录"等语义
// ═══════════════════════════════════════════════════════════

type fakeLog struct {
	id            string
	workDate      string
	checkInAt     time.Time
	checkOutAt    *time.Time
	overnight     bool
	autoClosed    bool
	userConfirmed bool
}

type fakeBackend struct {
	mu sync.Mutex

	now      time.Time
	logs     []*fakeLog
	realtime WorkStatus
	requests []CorrectionRequest
	calls    []string
	signedIn bool
	nextID   int

	// 故障注入：按调用名返回错误
	failures map[string]error
	// 签到响应附带的自动签退历史
	checkInWarning []AutoCheckoutRecord
}

func newFakeBackend(now time.Time) *fakeBackend {
	return &fakeBackend{now: now, signedIn: true, failures: make(map[string]error)}
}

func (f *fakeBackend) record(call string) error {
	f.calls = append(f.calls, call)
	return f.failures[call]
}

func (f *fakeBackend) today() string { return f.now.Format("2006-01-02") }

func (f *fakeBackend) openLog() *fakeLog {
	for _, l := range f.logs {
		if l.checkOutAt == nil {
			return l
		}
	}
	return nil
}

func (f *fakeBackend) addLog(l *fakeLog) {
	f.nextID++
	if l.id == "" {
		l.id = fmt.Sprintf("log-%d", f.nextID)
	}
	f.logs = append(f.logs, l)
}

func (f *fakeBackend) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.logs {
		if l.checkOutAt == nil {
			n++
		}
	}
	return n
}

// ── StatusReader ──

func (f *fakeBackend) AttendanceStatus(_ context.Context) (AttendanceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("attendance-status"); err != nil {
		return AttendanceStatus{}, err
	}
	if open := f.openLog(); open != nil {
		return AttendanceStatus{IsCheckedIn: true, IsOvernightWork: open.overnight || open.workDate != f.today()}, nil
	}
	var latest *fakeLog
	for _, l := range f.logs {
		if l.workDate == f.today() && l.checkOutAt != nil {
			latest = l
		}
	}
	if latest == nil {
		return AttendanceStatus{}, nil
	}
	return AttendanceStatus{IsCheckedIn: true, IsCheckedOut: true, HasCheckedOut: true, IsOvernightWork: latest.overnight}, nil
}

func (f *fakeBackend) RealtimeStatus(_ context.Context) (WorkStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get-realtime-status"); err != nil {
		return "", err
	}
	return f.realtime, nil
}

func (f *fakeBackend) PendingAutoCheckouts(_ context.Context) ([]AutoCheckoutRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("pending-auto-checkouts"); err != nil {
		return nil, err
	}
	var out []AutoCheckoutRecord
	for _, l := range f.logs {
		if l.autoClosed && !l.userConfirmed && l.checkOutAt != nil {
			out = append(out, AutoCheckoutRecord{ID: l.id, WorkDate: l.workDate, CheckInAt: l.checkInAt, CheckOutAt: *l.checkOutAt})
		}
	}
	return out, nil
}

// ── SessionActions ──

func (f *fakeBackend) SetRealtimeStatus(_ context.Context, status WorkStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("set-realtime-status"); err != nil {
		return err
	}
	f.realtime = status
	return nil
}

func (f *fakeBackend) CheckIn(_ context.Context) (CheckInResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("check-in"); err != nil {
		return CheckInResult{}, err
	}
	if f.openLog() != nil {
		return CheckInResult{}, errors.New("already checked in: 当前已有未签退记录")
	}
	f.addLog(&fakeLog{workDate: f.today(), checkInAt: f.now})
	return CheckInResult{AutoCheckoutHistory: f.checkInWarning}, nil
}

func (f *fakeBackend) CheckOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("check-out"); err != nil {
		return err
	}
	open := f.openLog()
	if open == nil {
		return errors.New("Already checked out today")
	}
	t := f.now
	open.checkOutAt = &t
	return nil
}

func (f *fakeBackend) OvertimeCheckIn(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("overtime-check-in"); err != nil {
		return err
	}
	if f.openLog() != nil {
		return ErrAlreadyCheckedIn
	}
	f.addLog(&fakeLog{workDate: f.today(), checkInAt: f.now})
	return nil
}

func (f *fakeBackend) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("sign-out"); err != nil {
		return err
	}
	f.signedIn = false
	return nil
}

// ── AutoCheckoutResolver ──

func (f *fakeBackend) ConfirmAutoCheckout(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("confirm-auto-checkout"); err != nil {
		return err
	}
	for _, l := range f.logs {
		if l.id == id {
			l.userConfirmed = true
			return nil
		}
	}
	return errors.New("record not found")
}

func (f *fakeBackend) CreateCorrectionRequest(_ context.Context, req CorrectionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create-correction-request"); err != nil {
		return err
	}
	f.requests = append(f.requests, req)
	return nil
}

// ═══════════════════════════════════════════════════════════
// 记录型 Notifier
// ═══════════════════════════════════════════════════════════

type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
	alerts  []error
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, message)
}

func (n *recordingNotifier) Alert(_ string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, err)
}

func (n *recordingNotifier) noticeCount(message string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.notices {
		if m == message {
			c++
		}
	}
	return c
}
