package worksession

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seedAutoClosed 写入两条系统自动签退、尚未确认的记录
func seedAutoClosed(fb *fakeBackend) (*fakeLog, *fakeLog) {
	out1 := time.Date(2026, 10, 13, 23, 59, 0, 0, time.UTC)
	out2 := time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC)
	a := &fakeLog{id: "log-a", workDate: "2026-10-13", checkInAt: time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC), checkOutAt: &out1, autoClosed: true}
	b := &fakeLog{id: "log-b", workDate: "2026-10-14", checkInAt: time.Date(2026, 10, 14, 8, 45, 0, 0, time.UTC), checkOutAt: &out2, autoClosed: true}
	fb.addLog(a)
	fb.addLog(b)
	return a, b
}

func newTestRecovery(fb *fakeBackend) (*Recovery, *recordingNotifier) {
	n := &recordingNotifier{}
	r := NewRecovery(fb, n, zap.NewNop(), time.UTC)
	list, _ := fb.PendingAutoCheckouts(context.Background())
	r.Present(list)
	fb.calls = nil
	return r, n
}

func TestRecovery_ConfirmOneCorrectOther(t *testing.T) {
	fb := newFakeBackend(testNow)
	a, b := seedAutoClosed(fb)
	origA, origB := *a.checkOutAt, *b.checkOutAt
	r, _ := newTestRecovery(fb)
	require.True(t, r.Visible())
	require.Len(t, r.Pending(), 2)

	require.NoError(t, r.Confirm(context.Background(), "log-a"))
	assert.True(t, r.Visible())

	require.NoError(t, r.RequestCorrection(context.Background(), "log-b", CorrectionInput{CheckOut: "18:30", Reason: "忘记签退"}))

	assert.Empty(t, r.Pending())
	assert.False(t, r.Visible(), "队列清空后提示自动关闭")

	// 服务端：两条记录均已确认，签退时间未变，只产生一条更正申请
	assert.True(t, a.userConfirmed)
	assert.True(t, b.userConfirmed)
	assert.Equal(t, origA, *a.checkOutAt)
	assert.Equal(t, origB, *b.checkOutAt)
	require.Len(t, fb.requests, 1)

	req := fb.requests[0]
	assert.Equal(t, CorrectionRequestType, req.RequestType)
	assert.Equal(t, "2026-10-14", req.StartDate)
	assert.Equal(t, "2026-10-14", req.EndDate)
	assert.Equal(t, "08:45", req.StartTime)
	assert.Equal(t, "18:30", req.EndTime)
	assert.True(t, strings.HasPrefix(req.Reason, correctionReasonPrefix))
	assert.True(t, strings.HasSuffix(req.Reason, "忘记签退"))

	// 再次拉取待处理列表为空
	list, err := fb.PendingAutoCheckouts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	// 申请创建先于确认标记
	assert.Equal(t, []string{"confirm-auto-checkout", "create-correction-request", "confirm-auto-checkout", "pending-auto-checkouts"}, fb.calls)
}

func TestRecovery_ConfirmIsIdempotentOnBackend(t *testing.T) {
	fb := newFakeBackend(testNow)
	seedAutoClosed(fb)

	require.NoError(t, fb.ConfirmAutoCheckout(context.Background(), "log-a"))
	require.NoError(t, fb.ConfirmAutoCheckout(context.Background(), "log-a"))

	list, _ := fb.PendingAutoCheckouts(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, "log-b", list[0].ID)
}

func TestRecovery_ValidationRejectsLocally(t *testing.T) {
	fb := newFakeBackend(testNow)
	seedAutoClosed(fb)
	r, _ := newTestRecovery(fb)

	err := r.RequestCorrection(context.Background(), "log-a", CorrectionInput{CheckOut: "", Reason: "x"})
	assert.ErrorIs(t, err, ErrCorrectionTimeRequired)

	err = r.RequestCorrection(context.Background(), "log-a", CorrectionInput{CheckOut: "25:99", Reason: "x"})
	assert.ErrorIs(t, err, ErrCorrectionTimeInvalid)

	err = r.RequestCorrection(context.Background(), "log-a", CorrectionInput{CheckOut: "18:00", Reason: "   "})
	assert.ErrorIs(t, err, ErrCorrectionReasonRequired)

	assert.Empty(t, fb.calls, "校验失败不得发出任何请求")
	assert.Len(t, r.Pending(), 2)
}

func TestRecovery_CreateFailureSkipsConfirm(t *testing.T) {
	fb := newFakeBackend(testNow)
	a, _ := seedAutoClosed(fb)
	fb.failures["create-correction-request"] = errors.New("503")
	r, n := newTestRecovery(fb)

	err := r.RequestCorrection(context.Background(), "log-a", CorrectionInput{CheckOut: "18:00", Reason: "加班后忘记签退"})
	require.Error(t, err)

	assert.Equal(t, 0, fb.callCount("confirm-auto-checkout"))
	assert.False(t, a.userConfirmed)
	assert.Len(t, r.Pending(), 2)
	assert.True(t, r.Visible())
	assert.Len(t, n.alerts, 1)
}

func TestRecovery_ConfirmFailureRetainsRecord(t *testing.T) {
	fb := newFakeBackend(testNow)
	seedAutoClosed(fb)
	fb.failures["confirm-auto-checkout"] = errors.New("timeout")
	r, n := newTestRecovery(fb)

	require.Error(t, r.Confirm(context.Background(), "log-a"))
	assert.Len(t, r.Pending(), 2)
	assert.Len(t, n.alerts, 1)

	// 故障恢复后可以重试
	delete(fb.failures, "confirm-auto-checkout")
	require.NoError(t, r.Confirm(context.Background(), "log-a"))
	assert.Len(t, r.Pending(), 1)
}

func TestRecovery_DismissIsNonDestructive(t *testing.T) {
	fb := newFakeBackend(testNow)
	a, b := seedAutoClosed(fb)
	r, _ := newTestRecovery(fb)

	r.Dismiss()
	assert.False(t, r.Visible())
	assert.Empty(t, fb.calls)
	assert.False(t, a.userConfirmed)
	assert.False(t, b.userConfirmed)

	// 下次对账重新出现
	list, _ := fb.PendingAutoCheckouts(context.Background())
	r.Present(list)
	assert.True(t, r.Visible())
	assert.Len(t, r.Pending(), 2)
}

func TestRecovery_PresentDeduplicates(t *testing.T) {
	fb := newFakeBackend(testNow)
	seedAutoClosed(fb)
	r, _ := newTestRecovery(fb)

	list, _ := fb.PendingAutoCheckouts(context.Background())
	r.Present(list)
	assert.Len(t, r.Pending(), 2)

	r.Present(nil)
	assert.True(t, r.Visible())
}

func TestRecovery_DefaultCorrectionPrefill(t *testing.T) {
	fb := newFakeBackend(testNow)
	seedAutoClosed(fb)
	r, _ := newTestRecovery(fb)

	in, err := r.DefaultCorrection("log-a")
	require.NoError(t, err)
	assert.Equal(t, "23:59", in.CheckOut)
	assert.Empty(t, in.Reason)

	_, err = r.DefaultCorrection("missing")
	assert.ErrorIs(t, err, ErrRecordNotPending)
}

func TestRecovery_UnknownRecord(t *testing.T) {
	fb := newFakeBackend(testNow)
	r, _ := newTestRecovery(fb)
	assert.ErrorIs(t, r.Confirm(context.Background(), "nope"), ErrRecordNotPending)
}
