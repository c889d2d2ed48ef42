package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/tkaykim/totalmanagement-sub001/internal/model"
	"github.com/tkaykim/totalmanagement-sub001/internal/repository"
	pkgerrors "github.com/tkaykim/totalmanagement-sub001/pkg/errors"
)

// ── Mock UserRepository ──

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockUserRepo struct {
	users map[string]*model.User // key: employee_no 或 user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

// add 预置用户（仓储接口不提供写入）
func (m *mockUserRepo) add(user *model.User) {
	if user.UserID == "" {
		user.UserID = "test-user-" + user.EmployeeNo
	}
	m.users[user.EmployeeNo] = user
	m.users[user.UserID] = user
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmployeeNo(_ context.Context, employeeNo string) (*model.User, error) {
	if u, ok := m.users[employeeNo]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock AttendanceRepository ──
// 以副本存储，模拟数据库读出的独立对象与乐观锁

type mockAttendanceRepo struct {
	logs   map[string]*model.AttendanceLog
	users  *mockUserRepo
	nextID int
}

func newMockAttendanceRepo(users *mockUserRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{logs: make(map[string]*model.AttendanceLog), users: users}
}

func (m *mockAttendanceRepo) Create(_ context.Context, log *model.AttendanceLog) error {
	if log.CheckOutAt == nil {
		for _, l := range m.logs {
			if l.UserID == log.UserID && l.CheckOutAt == nil {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if log.LogID == "" {
		m.nextID++
		log.LogID = fmt.Sprintf("log-%d", m.nextID)
	}
	if log.Version == 0 {
		log.Version = 1
	}
	cp := *log
	m.logs[log.LogID] = &cp
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.AttendanceLog, error) {
	if l, ok := m.logs[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) GetOpenByUser(_ context.Context, userID string) (*model.AttendanceLog, error) {
	for _, l := range m.logs {
		if l.UserID == userID && l.CheckOutAt == nil {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) GetLatestByUserAndDate(_ context.Context, userID string, workDate time.Time) (*model.AttendanceLog, error) {
	var latest *model.AttendanceLog
	for _, l := range m.logs {
		if l.UserID != userID || l.WorkDate.Format("2006-01-02") != workDate.Format("2006-01-02") {
			continue
		}
		if latest == nil || l.CheckInAt.After(latest.CheckInAt) {
			latest = l
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockAttendanceRepo) ListPendingConfirmation(_ context.Context, userID string) ([]model.AttendanceLog, error) {
	return m.filter(func(l *model.AttendanceLog) bool {
		return l.UserID == userID && l.PendingConfirmation()
	}), nil
}

func (m *mockAttendanceRepo) ListByUserAndRange(_ context.Context, userID string, from, to time.Time) ([]model.AttendanceLog, error) {
	return m.filter(func(l *model.AttendanceLog) bool {
		return l.UserID == userID && inRange(l.WorkDate, from, to)
	}), nil
}

func (m *mockAttendanceRepo) ListByRange(_ context.Context, from, to time.Time) ([]model.AttendanceLog, error) {
	out := m.filter(func(l *model.AttendanceLog) bool { return inRange(l.WorkDate, from, to) })
	for i := range out {
		if u, ok := m.users.users[out[i].UserID]; ok {
			out[i].User = u
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) ListOpen(_ context.Context) ([]model.AttendanceLog, error) {
	return m.filter(func(l *model.AttendanceLog) bool { return l.CheckOutAt == nil }), nil
}

func (m *mockAttendanceRepo) MarkOvernight(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for _, l := range m.logs {
		if l.CheckOutAt == nil && !l.IsOvernight && l.WorkDate.Format("2006-01-02") < before.Format("2006-01-02") {
			l.IsOvernight = true
			l.Version++
			n++
		}
	}
	return n, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, log *model.AttendanceLog) error {
	stored, ok := m.logs[log.LogID]
	if !ok || stored.Version != log.Version {
		return pkgerrors.ErrOptimisticLock
	}
	log.Version++
	cp := *log
	m.logs[log.LogID] = &cp
	return nil
}

func (m *mockAttendanceRepo) filter(keep func(*model.AttendanceLog) bool) []model.AttendanceLog {
	var out []model.AttendanceLog
	for _, l := range m.logs {
		if keep(l) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInAt.Before(out[j].CheckInAt) })
	return out
}

func inRange(d, from, to time.Time) bool {
	s := d.Format("2006-01-02")
	return s >= from.Format("2006-01-02") && s <= to.Format("2006-01-02")
}

// ── Mock RealtimeStatusRepository ──

type mockRealtimeStatusRepo struct {
	rows map[string]string
	err  error
}

func newMockRealtimeStatusRepo() *mockRealtimeStatusRepo {
	return &mockRealtimeStatusRepo{rows: make(map[string]string)}
}

func (m *mockRealtimeStatusRepo) Get(_ context.Context, userID string) (*model.RealtimeStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.RealtimeStatus{UserID: userID, Status: s, UpdatedAt: time.Now()}, nil
}

func (m *mockRealtimeStatusRepo) Upsert(_ context.Context, userID, status string) error {
	if m.err != nil {
		return m.err
	}
	m.rows[userID] = status
	return nil
}

// ── Mock WorkRequestRepository ──

type mockWorkRequestRepo struct {
	reqs   map[string]*model.WorkRequest
	nextID int
}

func newMockWorkRequestRepo() *mockWorkRequestRepo {
	return &mockWorkRequestRepo{reqs: make(map[string]*model.WorkRequest)}
}

func (m *mockWorkRequestRepo) Create(_ context.Context, req *model.WorkRequest) error {
	if req.RequestID == "" {
		m.nextID++
		req.RequestID = fmt.Sprintf("req-%d", m.nextID)
	}
	if req.Version == 0 {
		req.Version = 1
	}
	req.CreatedAt = time.Now()
	cp := *req
	m.reqs[req.RequestID] = &cp
	return nil
}

func (m *mockWorkRequestRepo) GetByID(_ context.Context, id string) (*model.WorkRequest, error) {
	if r, ok := m.reqs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkRequestRepo) ListByUser(_ context.Context, userID string) ([]model.WorkRequest, error) {
	var out []model.WorkRequest
	for _, r := range m.reqs {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockWorkRequestRepo) List(_ context.Context, status string, offset, limit int) ([]model.WorkRequest, int64, error) {
	var all []model.WorkRequest
	for _, r := range m.reqs {
		if status == "" || r.Status == status {
			all = append(all, *r)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockWorkRequestRepo) Update(_ context.Context, req *model.WorkRequest) error {
	stored, ok := m.reqs[req.RequestID]
	if !ok || stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	cp := *req
	m.reqs[req.RequestID] = &cp
	return nil
}

// ── 测试辅助 ──

type mockRepos struct {
	user       *mockUserRepo
	attendance *mockAttendanceRepo
	realtime   *mockRealtimeStatusRepo
	request    *mockWorkRequestRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	m := &mockRepos{
		user:       users,
		attendance: newMockAttendanceRepo(users),
		realtime:   newMockRealtimeStatusRepo(),
		request:    newMockWorkRequestRepo(),
	}
	return &repository.Repository{
		User:           m.user,
		Attendance:     m.attendance,
		RealtimeStatus: m.realtime,
		WorkRequest:    m.request,
	}, m
}
