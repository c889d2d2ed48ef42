package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/tkaykim/totalmanagement-sub001/config"
	"github.com/tkaykim/totalmanagement-sub001/internal/model"
	"github.com/tkaykim/totalmanagement-sub001/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportMonthInvalid = errors.New("月份格式应为 YYYY-MM")
	ErrExportNoRecords    = errors.New("该时间段内暂无考勤记录")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// calendarProductID 日历文件的 PRODID
const calendarProductID = "-//totalmanagement//attendance//ZH"

// ExportService 导出业务接口
//
// 设计说明：
//   - 月度考勤导出为 Excel (.xlsx)，面向管理员，包含全部成员
//   - 个人考勤导出为 iCalendar (.ics)，每条已签退记录对应一个事件
//   - 未签退的记录没有结束时间，两种导出都会跳过或标注
type ExportService interface {
	ExportAttendance(ctx context.Context, month string) (*bytes.Buffer, string, error)
	ExportCalendar(ctx context.Context, userID, from, to string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.AttendanceConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, loc: cfg.Location()}
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance 月度考勤导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "考勤记录"，首行为标题
//   - 列：姓名 | 工号 | 日期 | 签到 | 签退 | 时长(小时) | 加班 | 跨夜 | 自动签退 | 已确认 | 已更正
//   - 按成员、日期、签到时间排序

func (s *exportService) ExportAttendance(ctx context.Context, month string) (*bytes.Buffer, string, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, "", ErrExportMonthInvalid
	}
	end := start.AddDate(0, 1, -1)

	logs, err := s.repo.Attendance.ListByRange(ctx, start, end)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("month", month), zap.Error(err))
		return nil, "", err
	}
	if len(logs) == 0 {
		return nil, "", ErrExportNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "考勤记录"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"姓名", "工号", "日期", "签到", "签退", "时长(小时)", "加班", "跨夜", "自动签退", "已确认", "已更正"}
	f.SetColWidth(sheetName, "A", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "E", 18)
	f.SetColWidth(sheetName, "F", colName(len(headers)-1), 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s 考勤记录", month))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行
	row := 3
	for i := range logs {
		l := &logs[i]
		name, employeeNo := "-", "-"
		if l.User != nil {
			name, employeeNo = l.User.Name, l.User.EmployeeNo
		}

		checkOut, hours := "未签退", "-"
		if l.CheckOutAt != nil {
			checkOut = l.CheckOutAt.In(s.loc).Format("2006-01-02 15:04")
			hours = fmt.Sprintf("%.2f", l.CheckOutAt.Sub(l.CheckInAt).Hours())
		}

		values := []interface{}{
			name,
			employeeNo,
			l.WorkDate.Format(dateLayout),
			l.CheckInAt.In(s.loc).Format("2006-01-02 15:04"),
			checkOut,
			hours,
			yesNo(l.IsOvertime),
			yesNo(l.IsOvernight),
			yesNo(l.AutoClosed),
			yesNo(!l.AutoClosed || l.UserConfirmed),
			yesNo(l.CorrectedAt != nil),
		}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考勤记录_%s.xlsx", month)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 个人考勤导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportCalendar(ctx context.Context, userID, from, to string) ([]byte, string, error) {
	fromDate, toDate, err := parseDateRange(from, to)
	if err != nil {
		return nil, "", err
	}

	logs, err := s.repo.Attendance.ListByUserAndRange(ctx, userID, fromDate, toDate)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("考勤记录")
	cal.SetXWRTimezone(s.loc.String())

	for i := range logs {
		l := &logs[i]
		if l.CheckOutAt == nil {
			continue
		}
		event := cal.AddEvent(l.LogID + "@totalmanagement")
		event.SetDtStampTime(l.UpdatedAt)
		event.SetStartAt(l.CheckInAt)
		event.SetEndAt(*l.CheckOutAt)
		event.SetSummary(calendarSummary(l))
		if l.AutoClosed {
			event.SetDescription("签退时间由系统自动写入")
		}
	}

	filename := fmt.Sprintf("考勤记录_%s_%s.ics", from, to)
	return []byte(cal.Serialize()), filename, nil
}

// ── 辅助函数 ──

func calendarSummary(l *model.AttendanceLog) string {
	switch {
	case l.IsOvertime:
		return "加班"
	case l.IsOvernight:
		return "工作（跨夜）"
	default:
		return "工作"
	}
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
