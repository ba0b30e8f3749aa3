package services

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/shared/monitoring"
	"github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentService tracks fee payments outside the per-meeting attendance
// flags, e.g. bank transfers and bulk settlements.
type PaymentService struct {
	db *gorm.DB
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db}
}

// CreatePayment records a payment for a member, optionally tied to a meeting.
func (s *PaymentService) CreatePayment(req *models.CreatePaymentRequest, recordedBy string) (*models.PaymentResponse, error) {
	fieldErrs := make(map[string]string)
	if req.MemberID == "" {
		fieldErrs["memberId"] = "member ID is required"
	}
	if req.Amount <= 0 {
		fieldErrs["amount"] = "amount must be positive"
	}
	if !models.ValidPaymentMethod(req.Method) {
		fieldErrs["method"] = fmt.Sprintf("unknown payment method %q", req.Method)
	}
	if len(req.Notes) > models.MaxNotesLength {
		fieldErrs["notes"] = fmt.Sprintf("notes must be at most %d characters", models.MaxNotesLength)
	}
	if len(fieldErrs) > 0 {
		return nil, errors.FieldValidationError(fieldErrs)
	}

	var member models.Member
	if err := s.db.First(&member, "member_id = ?", req.MemberID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "create payment")
	}
	if req.MeetingID != nil {
		var meeting models.Meeting
		if err := s.db.First(&meeting, "meeting_id = ?", *req.MeetingID).Error; err != nil {
			return nil, errors.HandleDatabaseError(err, "meeting", "create payment")
		}
	}

	payment := models.Payment{
		PaymentID:     "pay_" + uuid.New().String(),
		MemberID:      req.MemberID,
		MeetingID:     req.MeetingID,
		Amount:        req.Amount,
		Method:        models.PaymentMethod(req.Method),
		ReceiptNumber: req.ReceiptNumber,
		Notes:         req.Notes,
		RecordedBy:    recordedBy,
		PaidAt:        time.Now().UTC(),
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "payment", "create payment")
	}

	slog.Info("Payment recorded",
		"paymentId", payment.PaymentID,
		"memberId", payment.MemberID,
		"amount", payment.Amount,
		"method", payment.Method)
	monitoring.RecordBusinessEvent(monitoring.EventPaymentRecorded, monitoring.OutcomeSuccess)

	resp := s.toPaymentResponse(&payment)
	return &resp, nil
}

// GetPayment retrieves a payment by ID
func (s *PaymentService) GetPayment(paymentID string) (*models.PaymentResponse, error) {
	var payment models.Payment
	if err := s.db.Preload("Member").Preload("Meeting").
		First(&payment, "payment_id = ?", paymentID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "payment", "get payment")
	}
	resp := s.toPaymentResponse(&payment)
	return &resp, nil
}

// ListPayments returns a filtered, paginated payment listing with the total
// amount over the filtered set.
func (s *PaymentService) ListPayments(filter *models.PaymentFilter) (*models.PaymentListResponse, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = models.DefaultPageSize
	}
	if pageSize > models.MaxPageSize {
		pageSize = models.MaxPageSize
	}

	applyFilter, err := paymentFilterScope(filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := applyFilter(s.db.Model(&models.Payment{})).Count(&total).Error; err != nil {
		return nil, errors.DatabaseError("count payments", err)
	}

	var totalAmount float64
	if err := applyFilter(s.db.Model(&models.Payment{})).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalAmount).Error; err != nil {
		return nil, errors.DatabaseError("sum payments", err)
	}

	var payments []models.Payment
	offset := (page - 1) * pageSize
	if err := applyFilter(s.db.Preload("Member").Preload("Meeting")).
		Order("paid_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&payments).Error; err != nil {
		return nil, errors.DatabaseError("list payments", err)
	}

	responses := make([]models.PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, s.toPaymentResponse(&payments[i]))
	}

	return &models.PaymentListResponse{
		Payments:    responses,
		TotalAmount: totalAmount,
		TotalCount:  total,
		Page:        page,
		PageSize:    pageSize,
	}, nil
}

// paymentFilterScope validates a filter and returns a scope applying it to a
// query. Each caller gets a fresh query chain, so count, sum and find do not
// contaminate one another.
func paymentFilterScope(filter *models.PaymentFilter) (func(*gorm.DB) *gorm.DB, error) {
	var from, to *time.Time
	if filter.Method != "" && !models.ValidPaymentMethod(filter.Method) {
		return nil, errors.FieldValidationError(map[string]string{"method": "unknown payment method"})
	}
	if filter.DateFrom != nil && *filter.DateFrom != "" {
		parsed, err := utils.ParseDate(*filter.DateFrom)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"dateFrom": err.Error()})
		}
		from = &parsed
	}
	if filter.DateTo != nil && *filter.DateTo != "" {
		parsed, err := utils.ParseDate(*filter.DateTo)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"dateTo": err.Error()})
		}
		end := parsed.Add(24 * time.Hour)
		to = &end
	}

	return func(db *gorm.DB) *gorm.DB {
		if filter.MemberID != "" {
			db = db.Where("member_id = ?", filter.MemberID)
		}
		if filter.Method != "" {
			db = db.Where("method = ?", filter.Method)
		}
		if from != nil {
			db = db.Where("paid_at >= ?", *from)
		}
		if to != nil {
			db = db.Where("paid_at < ?", *to)
		}
		return db
	}, nil
}

// UpdatePayment edits a payment record.
func (s *PaymentService) UpdatePayment(paymentID string, req *models.UpdatePaymentRequest) (*models.PaymentResponse, error) {
	var payment models.Payment
	if err := s.db.First(&payment, "payment_id = ?", paymentID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "payment", "update payment")
	}

	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, errors.FieldValidationError(map[string]string{"amount": "amount must be positive"})
		}
		payment.Amount = *req.Amount
	}
	if req.Method != nil {
		if !models.ValidPaymentMethod(*req.Method) {
			return nil, errors.FieldValidationError(map[string]string{"method": "unknown payment method"})
		}
		payment.Method = models.PaymentMethod(*req.Method)
	}
	if req.MeetingID != nil {
		var meeting models.Meeting
		if err := s.db.First(&meeting, "meeting_id = ?", *req.MeetingID).Error; err != nil {
			return nil, errors.HandleDatabaseError(err, "meeting", "update payment")
		}
		payment.MeetingID = req.MeetingID
	}
	if req.ReceiptNumber != nil {
		payment.ReceiptNumber = *req.ReceiptNumber
	}
	if req.Notes != nil {
		if len(*req.Notes) > models.MaxNotesLength {
			return nil, errors.FieldValidationError(map[string]string{"notes": "notes too long"})
		}
		payment.Notes = *req.Notes
	}

	if err := s.db.Save(&payment).Error; err != nil {
		return nil, errors.DatabaseError("update payment", err)
	}

	slog.Info("Payment updated", "paymentId", paymentID)
	resp := s.toPaymentResponse(&payment)
	return &resp, nil
}

// DeletePayment removes a payment record.
func (s *PaymentService) DeletePayment(paymentID string) error {
	result := s.db.Delete(&models.Payment{}, "payment_id = ?", paymentID)
	if result.Error != nil {
		return errors.DatabaseError("delete payment", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundError("payment")
	}
	slog.Info("Payment deleted", "paymentId", paymentID)
	return nil
}

// Statistics summarises one calendar year of collections: totals, split by
// method, a monthly series and the top paying members.
func (s *PaymentService) Statistics(year int) (*models.PaymentStatistics, error) {
	if year == 0 {
		year = time.Now().Year()
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var payments []models.Payment
	if err := s.db.Preload("Member").
		Where("paid_at >= ? AND paid_at < ?", start, end).
		Find(&payments).Error; err != nil {
		return nil, errors.DatabaseError("load payments", err)
	}

	stats := &models.PaymentStatistics{Year: year}
	byMethod := make(map[string]*models.MethodTotal)
	byMonth := make(map[string]*models.MonthlyTotal)
	byMember := make(map[string]*models.MemberTotal)

	for _, p := range payments {
		stats.TotalAmount += p.Amount
		stats.TotalCount++

		method := string(p.Method)
		if byMethod[method] == nil {
			byMethod[method] = &models.MethodTotal{Method: method}
		}
		byMethod[method].Amount += p.Amount
		byMethod[method].Count++

		month := p.PaidAt.Format("2006-01")
		if byMonth[month] == nil {
			byMonth[month] = &models.MonthlyTotal{Month: month}
		}
		byMonth[month].Amount += p.Amount
		byMonth[month].Count++

		if byMember[p.MemberID] == nil {
			name := p.MemberID
			if p.Member != nil {
				name = p.Member.FullName()
			}
			byMember[p.MemberID] = &models.MemberTotal{MemberID: p.MemberID, Name: name}
		}
		byMember[p.MemberID].Amount += p.Amount
		byMember[p.MemberID].Count++
	}

	for _, mt := range byMethod {
		stats.ByMethod = append(stats.ByMethod, *mt)
	}
	// Emit a contiguous monthly series so charts have no gaps.
	for month := 1; month <= 12; month++ {
		key := fmt.Sprintf("%d-%02d", year, month)
		if entry, ok := byMonth[key]; ok {
			stats.Monthly = append(stats.Monthly, *entry)
		} else {
			stats.Monthly = append(stats.Monthly, models.MonthlyTotal{Month: key})
		}
	}
	for _, mt := range byMember {
		stats.TopMembers = append(stats.TopMembers, *mt)
	}
	sort.Slice(stats.TopMembers, func(i, j int) bool {
		return stats.TopMembers[i].Amount > stats.TopMembers[j].Amount
	})
	if len(stats.TopMembers) > 10 {
		stats.TopMembers = stats.TopMembers[:10]
	}
	sort.Slice(stats.ByMethod, func(i, j int) bool {
		return stats.ByMethod[i].Amount > stats.ByMethod[j].Amount
	})

	return stats, nil
}

// toPaymentResponse converts a payment model to its API representation
func (s *PaymentService) toPaymentResponse(p *models.Payment) models.PaymentResponse {
	resp := models.PaymentResponse{
		PaymentID:     p.PaymentID,
		MemberID:      p.MemberID,
		MeetingID:     p.MeetingID,
		Amount:        p.Amount,
		Method:        string(p.Method),
		ReceiptNumber: p.ReceiptNumber,
		Notes:         p.Notes,
		RecordedBy:    p.RecordedBy,
		PaidAt:        p.PaidAt.Format(time.RFC3339),
	}
	if p.Member != nil {
		resp.MemberName = p.Member.FullName()
	}
	if p.Meeting != nil {
		resp.MeetingDate = utils.FormatDate(p.Meeting.MeetingDate)
	}
	return resp
}
