package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportService renders member and attendance data as CSV and Excel files
// for the treasury's offline records.
type ExportService struct {
	db      *gorm.DB
	reports *ReportService
}

// NewExportService creates a new export service
func NewExportService(db *gorm.DB, reports *ReportService) *ExportService {
	return &ExportService{db: db, reports: reports}
}

var memberExportHeader = []string{
	"Member ID", "Initials", "First Name", "Last Name", "Role",
	"Phone", "Account No", "Active", "Joined",
}

// MembersCSV streams all members as CSV.
func (s *ExportService) MembersCSV(w io.Writer) error {
	members, err := s.loadMembers()
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(memberExportHeader); err != nil {
		return errors.InternalErrorWithCause("failed to write CSV header", err)
	}
	for i := range members {
		if err := writer.Write(memberCSVRow(&members[i])); err != nil {
			return errors.InternalErrorWithCause("failed to write CSV row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.InternalErrorWithCause("failed to flush CSV", err)
	}
	return nil
}

// MembersXLSX builds an Excel workbook of all members.
func (s *ExportService) MembersXLSX() (*excelize.File, error) {
	members, err := s.loadMembers()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Members"
	f.SetSheetName("Sheet1", sheet)

	if err := writeHeaderRow(f, sheet, memberExportHeader); err != nil {
		return nil, err
	}
	for i := range members {
		row := memberCSVRow(&members[i])
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, errors.InternalErrorWithCause("failed to write cell", err)
			}
		}
	}

	return f, nil
}

// AttendanceCSV streams the attendance grid for a date range as CSV: one
// row per member, one column pair (present, paid) per meeting.
func (s *ExportService) AttendanceCSV(w io.Writer, from, to *string) error {
	heatmap, err := s.reports.Heatmap(from, to)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	header := []string{"Member ID", "Name"}
	for _, meeting := range heatmap.Meetings {
		header = append(header, meeting.MeetingDate+" present", meeting.MeetingDate+" paid")
	}
	header = append(header, "Attendance %")
	if err := writer.Write(header); err != nil {
		return errors.InternalErrorWithCause("failed to write CSV header", err)
	}

	for _, row := range heatmap.Rows {
		record := []string{row.MemberID, row.Name}
		for _, cell := range row.Cells {
			record = append(record, formatBool(cell.Present), formatBool(cell.FeePaid))
		}
		record = append(record, fmt.Sprintf("%.1f", row.Rate))
		if err := writer.Write(record); err != nil {
			return errors.InternalErrorWithCause("failed to write CSV row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.InternalErrorWithCause("failed to flush CSV", err)
	}
	return nil
}

// AttendanceXLSX builds the attendance grid for a date range as an Excel
// workbook.
func (s *ExportService) AttendanceXLSX(from, to *string) (*excelize.File, error) {
	heatmap, err := s.reports.Heatmap(from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Attendance"
	f.SetSheetName("Sheet1", sheet)

	header := []string{"Member ID", "Name"}
	for _, meeting := range heatmap.Meetings {
		header = append(header, meeting.MeetingDate+" present", meeting.MeetingDate+" paid")
	}
	header = append(header, "Attendance %")
	if err := writeHeaderRow(f, sheet, header); err != nil {
		return nil, err
	}

	for i, row := range heatmap.Rows {
		values := []interface{}{row.MemberID, row.Name}
		for _, cell := range row.Cells {
			values = append(values, formatBool(cell.Present), formatBool(cell.FeePaid))
		}
		values = append(values, row.Rate)
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, errors.InternalErrorWithCause("failed to write cell", err)
			}
		}
	}

	return f, nil
}

var meetingExportHeader = []string{"Meeting ID", "Date", "Fee", "Present", "Paid"}

// MeetingsCSV streams all meetings with per-meeting attendance counts.
func (s *ExportService) MeetingsCSV(w io.Writer) error {
	rows, err := s.loadMeetingRows()
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(meetingExportHeader); err != nil {
		return errors.InternalErrorWithCause("failed to write CSV header", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return errors.InternalErrorWithCause("failed to write CSV row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.InternalErrorWithCause("failed to flush CSV", err)
	}
	return nil
}

// MeetingsXLSX builds an Excel workbook of all meetings.
func (s *ExportService) MeetingsXLSX() (*excelize.File, error) {
	rows, err := s.loadMeetingRows()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Meetings"
	f.SetSheetName("Sheet1", sheet)

	if err := writeHeaderRow(f, sheet, meetingExportHeader); err != nil {
		return nil, err
	}
	for i, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, errors.InternalErrorWithCause("failed to write cell", err)
			}
		}
	}
	return f, nil
}

var paymentExportHeader = []string{
	"Payment ID", "Member ID", "Amount", "Method", "Receipt No",
	"Recorded By", "Paid At",
}

// PaymentsCSV streams all payments, newest first.
func (s *ExportService) PaymentsCSV(w io.Writer) error {
	payments, err := s.loadPayments()
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(paymentExportHeader); err != nil {
		return errors.InternalErrorWithCause("failed to write CSV header", err)
	}
	for i := range payments {
		if err := writer.Write(paymentCSVRow(&payments[i])); err != nil {
			return errors.InternalErrorWithCause("failed to write CSV row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.InternalErrorWithCause("failed to flush CSV", err)
	}
	return nil
}

// PaymentsXLSX builds an Excel workbook of all payments.
func (s *ExportService) PaymentsXLSX() (*excelize.File, error) {
	payments, err := s.loadPayments()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Payments"
	f.SetSheetName("Sheet1", sheet)

	if err := writeHeaderRow(f, sheet, paymentExportHeader); err != nil {
		return nil, err
	}
	for i := range payments {
		row := paymentCSVRow(&payments[i])
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, errors.InternalErrorWithCause("failed to write cell", err)
			}
		}
	}
	return f, nil
}

// loadMeetingRows renders each meeting with its presence and fee counts.
func (s *ExportService) loadMeetingRows() ([][]string, error) {
	var meetings []models.Meeting
	if err := s.db.Order("meeting_date").Find(&meetings).Error; err != nil {
		return nil, errors.DatabaseError("load meetings", err)
	}

	rows := make([][]string, 0, len(meetings))
	for _, meeting := range meetings {
		var present, paid int64
		if err := s.db.Model(&models.AttendanceRecord{}).
			Where("meeting_id = ? AND present = ?", meeting.MeetingID, true).
			Count(&present).Error; err != nil {
			return nil, errors.DatabaseError("count presences", err)
		}
		if err := s.db.Model(&models.AttendanceRecord{}).
			Where("meeting_id = ? AND fee_paid = ?", meeting.MeetingID, true).
			Count(&paid).Error; err != nil {
			return nil, errors.DatabaseError("count fee payments", err)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(meeting.MeetingID), 10),
			utils.FormatDate(meeting.MeetingDate),
			strconv.FormatFloat(meeting.Fee, 'f', 2, 64),
			strconv.FormatInt(present, 10),
			strconv.FormatInt(paid, 10),
		})
	}
	return rows, nil
}

func (s *ExportService) loadPayments() ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.Order("paid_at DESC").Find(&payments).Error; err != nil {
		return nil, errors.DatabaseError("load payments", err)
	}
	return payments, nil
}

func paymentCSVRow(p *models.Payment) []string {
	return []string{
		p.PaymentID,
		p.MemberID,
		strconv.FormatFloat(p.Amount, 'f', 2, 64),
		string(p.Method),
		p.ReceiptNumber,
		p.RecordedBy,
		p.PaidAt.Format("2006-01-02"),
	}
}

func (s *ExportService) loadMembers() ([]models.Member, error) {
	var members []models.Member
	if err := s.db.Order("member_id").Find(&members).Error; err != nil {
		return nil, errors.DatabaseError("load members", err)
	}
	return members, nil
}

// writeHeaderRow writes a bold header row on row 1.
func writeHeaderRow(f *excelize.File, sheet string, header []string) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.InternalErrorWithCause("failed to create header style", err)
	}
	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return errors.InternalErrorWithCause("failed to write header cell", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return errors.InternalErrorWithCause("failed to style header cell", err)
		}
	}
	return nil
}

func memberCSVRow(m *models.Member) []string {
	return []string{
		m.MemberID,
		m.Initials,
		m.FirstName,
		m.LastName,
		m.Role.Display(),
		m.Phone,
		m.AccountNo,
		strconv.FormatBool(m.IsActive),
		utils.FormatDate(m.JoinedAt),
	}
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
