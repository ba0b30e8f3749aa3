package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clubworks/mms-backend/config"
	apierrors "github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/redisclient"
	"github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/middleware"
	"github.com/clubworks/mms-backend/v1/models"
	"github.com/clubworks/mms-backend/v1/services"
	v1utils "github.com/clubworks/mms-backend/v1/utils"

	"gorm.io/gorm"
)

// V1Handler handles all V1 API routes
type V1Handler struct {
	memberService     *services.MemberService
	meetingService    *services.MeetingService
	attendanceService *services.AttendanceService
	paymentService    *services.PaymentService
	badgeService      *services.BadgeService
	engagementService *services.EngagementService
	lifecycleService  *services.LifecycleService
	dashboardService  *services.DashboardService
	reportService     *services.ReportService
	calendarService   *services.CalendarService
	exportService     *services.ExportService
	staffService      *services.StaffService
	audit             *middleware.AuditLogger
}

// NewV1Handler wires up the full service graph. The lifecycle gate uses
// redis when available so sweep cooldowns hold across replicas, and falls
// back to an in-process timer otherwise.
func NewV1Handler(db *gorm.DB, cfg *config.Config, redisClient *redisclient.RedisClient) *V1Handler {
	var gate services.RunGate
	if redisClient != nil {
		gate = services.NewRedisGate(redisClient, cfg.Lifecycle.SweepCooldown)
	} else {
		gate = services.NewTimedGate(cfg.Lifecycle.SweepCooldown)
	}

	lifecycleService := services.NewLifecycleService(db, gate, cfg.Lifecycle.ConsecutiveMisses)
	badgeService := services.NewBadgeService(db, cfg.Badges)
	engagementService := services.NewEngagementService(db)
	recommendationService := services.NewRecommendationService(db)
	reportService := services.NewReportService(db)

	return &V1Handler{
		memberService:     services.NewMemberService(db),
		meetingService:    services.NewMeetingService(db),
		attendanceService: services.NewAttendanceService(db, lifecycleService, badgeService),
		paymentService:    services.NewPaymentService(db),
		badgeService:      badgeService,
		engagementService: engagementService,
		lifecycleService:  lifecycleService,
		dashboardService:  services.NewDashboardService(db, engagementService, recommendationService),
		reportService:     reportService,
		calendarService:   services.NewCalendarService(db),
		exportService:     services.NewExportService(db, reportService),
		staffService:      services.NewStaffService(db, cfg.Auth, redisClient),
		audit:             middleware.NewAuditLogger(redisClient, ""),
	}
}

// StaffService exposes the staff service for token parsing in middleware setup.
func (h *V1Handler) StaffService() *services.StaffService {
	return h.staffService
}

// SetupV1Routes configures all V1 API routes
func (h *V1Handler) SetupV1Routes(mux *http.ServeMux) {
	// Auth routes
	mux.Handle("/api/v1/auth/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleAuth)))

	// Member routes
	mux.Handle("/api/v1/members", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleMembers)))
	mux.Handle("/api/v1/members/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleMembers)))

	// Meeting routes
	mux.Handle("/api/v1/meetings", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleMeetings)))
	mux.Handle("/api/v1/meetings/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleMeetings)))

	// Attendance routes
	mux.Handle("/api/v1/attendance", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleAttendance)))
	mux.Handle("/api/v1/attendance/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleAttendance)))

	// Payment routes
	mux.Handle("/api/v1/payments", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handlePayments)))
	mux.Handle("/api/v1/payments/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handlePayments)))

	// Badge routes
	mux.Handle("/api/v1/badges/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleBadges)))

	// Lifecycle routes
	mux.Handle("/api/v1/lifecycle/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleLifecycle)))

	// Dashboard and report routes
	mux.Handle("/api/v1/dashboard", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleDashboard)))
	mux.Handle("/api/v1/reports/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleReports)))
	mux.Handle("/api/v1/exports/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleExports)))

	// Staff routes
	mux.Handle("/api/v1/staff", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleStaff)))
	mux.Handle("/api/v1/staff/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleStaff)))
}

// splitPath trims the route prefix and returns the remaining path segments.
func splitPath(r *http.Request, prefix string) []string {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	return strings.Split(strings.Trim(path, "/"), "/")
}

func parseUintParam(value, name string) (uint, error) {
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, apierrors.ValidationError("INVALID_ID", fmt.Sprintf("%s must be a positive integer", name))
	}
	return uint(id), nil
}

func optionalQuery(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

// handleAuth handles authentication routes
func (h *V1Handler) handleAuth(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/auth")

	if len(parts) == 1 && parts[0] == "login" {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.login(w, r)
		return
	}

	if len(parts) == 1 && parts[0] == "password" {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.changePassword(w, r)
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	resp, err := h.staffService.Login(r.Context(), &req)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// handleMembers handles member-related routes
func (h *V1Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/members")

	// Collection endpoint: GET /api/v1/members and POST /api/v1/members
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.listMembers(w, r)
		case http.MethodPost:
			h.createMember(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) < 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Member ID is required")
		return
	}

	memberID := parts[0]

	// Base member endpoint: GET/PUT/DELETE /api/v1/members/:memberId
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getMember(w, r, memberID)
		case http.MethodPut:
			h.updateMember(w, r, memberID)
		case http.MethodDelete:
			h.deleteMember(w, r, memberID)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Member sub-resources: badges, engagement, attendance
	if len(parts) == 2 && r.Method == http.MethodGet {
		switch parts[1] {
		case "badges":
			h.getMemberBadges(w, r, memberID)
			return
		case "engagement":
			h.getMemberEngagement(w, r, memberID)
			return
		case "attendance":
			h.getMemberAttendance(w, r, memberID)
			return
		}
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) createMember(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMemberRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	member, err := h.memberService.CreateMember(&req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeMembers, req.MemberID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeMembers, member.MemberID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusCreated, member)
}

func (h *V1Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := &models.MemberFilter{
		Query:      query.Get("q"),
		JoinedFrom: optionalQuery(r, "joinedFrom"),
		JoinedTo:   optionalQuery(r, "joinedTo"),
	}
	filter.Page, filter.PageSize = utils.ParsePagination(r, models.DefaultPageSize, models.MaxPageSize)

	if v := query.Get("isActive"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			utils.RespondWithAPIError(w, apierrors.ValidationError("INVALID_FILTER", "isActive must be true or false"))
			return
		}
		filter.IsActive = &active
	}

	if v := query.Get("role"); v != "" {
		role, err := models.ParseMemberRole(v)
		if err != nil {
			utils.RespondWithAPIError(w, apierrors.ValidationError("INVALID_FILTER", err.Error()))
			return
		}
		filter.Role = role
	}

	resp, err := h.memberService.ListMembers(filter)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *V1Handler) getMember(w http.ResponseWriter, r *http.Request, memberID string) {
	member, err := h.memberService.GetMember(memberID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, member)
}

func (h *V1Handler) updateMember(w http.ResponseWriter, r *http.Request, memberID string) {
	var req models.UpdateMemberRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	member, err := h.memberService.UpdateMember(memberID, &req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeMembers, memberID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeMembers, memberID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, member)
}

func (h *V1Handler) deleteMember(w http.ResponseWriter, r *http.Request, memberID string) {
	if _, err := v1utils.RequireSuperuser(r); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	if err := h.memberService.DeleteMember(memberID); err != nil {
		h.audit.LogAudit(r, models.ResourceTypeMembers, memberID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeMembers, memberID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "member deleted"})
}

func (h *V1Handler) getMemberBadges(w http.ResponseWriter, r *http.Request, memberID string) {
	summary, err := h.badgeService.GetMemberBadges(memberID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *V1Handler) getMemberEngagement(w http.ResponseWriter, r *http.Request, memberID string) {
	score, err := h.engagementService.Score(memberID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, score)
}

func (h *V1Handler) getMemberAttendance(w http.ResponseWriter, r *http.Request, memberID string) {
	records, err := h.attendanceService.ListForMember(memberID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, records)
}

// handleMeetings handles meeting-related routes
func (h *V1Handler) handleMeetings(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/meetings")

	// Collection endpoint: GET /api/v1/meetings and POST /api/v1/meetings
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.listMeetings(w, r)
		case http.MethodPost:
			h.createMeeting(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) < 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Meeting ID is required")
		return
	}

	meetingID, err := parseUintParam(parts[0], "meeting ID")
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	// Base meeting endpoint: GET/PUT/DELETE /api/v1/meetings/:meetingId
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getMeeting(w, r, meetingID)
		case http.MethodPut:
			h.updateMeeting(w, r, meetingID)
		case http.MethodDelete:
			h.deleteMeeting(w, r, meetingID)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// Meeting attendance sub-resource
	if len(parts) == 2 && parts[1] == "attendance" && r.Method == http.MethodGet {
		records, err := h.attendanceService.ListForMeeting(meetingID)
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, records)
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *V1Handler) createMeeting(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMeetingRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	meeting, err := h.meetingService.CreateMeeting(&req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeMeetings, req.MeetingDate, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeMeetings, strconv.FormatUint(uint64(meeting.MeetingID), 10), models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusCreated, meeting)
}

func (h *V1Handler) listMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.meetingService.ListMeetings(optionalQuery(r, "from"), optionalQuery(r, "to"))
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, meetings)
}

func (h *V1Handler) getMeeting(w http.ResponseWriter, r *http.Request, meetingID uint) {
	meeting, err := h.meetingService.GetMeeting(meetingID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, meeting)
}

func (h *V1Handler) updateMeeting(w http.ResponseWriter, r *http.Request, meetingID uint) {
	var req models.UpdateMeetingRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	meeting, err := h.meetingService.UpdateMeeting(meetingID, &req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeMeetings, strconv.FormatUint(uint64(meetingID), 10), models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeMeetings, strconv.FormatUint(uint64(meetingID), 10), models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, meeting)
}

func (h *V1Handler) deleteMeeting(w http.ResponseWriter, r *http.Request, meetingID uint) {
	if _, err := v1utils.RequireSuperuser(r); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	if err := h.meetingService.DeleteMeeting(meetingID); err != nil {
		h.audit.LogAudit(r, models.ResourceTypeMeetings, strconv.FormatUint(uint64(meetingID), 10), models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeMeetings, strconv.FormatUint(uint64(meetingID), 10), models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "meeting deleted"})
}

// handleAttendance handles attendance-related routes
func (h *V1Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/attendance")

	// Collection endpoint: POST /api/v1/attendance marks a single record
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodPost:
			h.markAttendance(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) != 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	switch parts[0] {
	case "bulk":
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.bulkMarkAttendance(w, r)
		return
	case "mark-all-present":
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.markAllPresent(w, r)
		return
	}

	// Record endpoint: PUT/DELETE /api/v1/attendance/:attendanceId
	attendanceID, err := parseUintParam(parts[0], "attendance ID")
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updateAttendance(w, r, attendanceID)
	case http.MethodDelete:
		h.deleteAttendance(w, r, attendanceID)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *V1Handler) markAttendance(w http.ResponseWriter, r *http.Request) {
	var req models.MarkAttendanceRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	record, err := h.attendanceService.Mark(r.Context(), &req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeAttendance, req.MemberID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeAttendance, req.MemberID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusCreated, record)
}

func (h *V1Handler) bulkMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req models.BulkAttendanceRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	result, err := h.attendanceService.BulkMark(r.Context(), &req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeAttendance, strconv.FormatUint(uint64(req.MeetingID), 10), models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeAttendance, strconv.FormatUint(uint64(req.MeetingID), 10), models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *V1Handler) markAllPresent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MeetingID uint `json:"meetingId"`
		FeePaid   bool `json:"feePaid"`
	}
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	result, err := h.attendanceService.MarkAllPresent(r.Context(), req.MeetingID, req.FeePaid)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeAttendance, strconv.FormatUint(uint64(req.MeetingID), 10), models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeAttendance, strconv.FormatUint(uint64(req.MeetingID), 10), models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *V1Handler) updateAttendance(w http.ResponseWriter, r *http.Request, attendanceID uint) {
	var req models.UpdateAttendanceRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	record, err := h.attendanceService.Update(r.Context(), attendanceID, &req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeAttendance, strconv.FormatUint(uint64(attendanceID), 10), models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeAttendance, strconv.FormatUint(uint64(attendanceID), 10), models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, record)
}

func (h *V1Handler) deleteAttendance(w http.ResponseWriter, r *http.Request, attendanceID uint) {
	if err := h.attendanceService.Delete(attendanceID); err != nil {
		h.audit.LogAudit(r, models.ResourceTypeAttendance, strconv.FormatUint(uint64(attendanceID), 10), models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeAttendance, strconv.FormatUint(uint64(attendanceID), 10), models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "attendance record deleted"})
}

// handlePayments handles payment-related routes
func (h *V1Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/payments")

	// Collection endpoint: GET /api/v1/payments and POST /api/v1/payments
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.listPayments(w, r)
		case http.MethodPost:
			h.createPayment(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) != 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	if parts[0] == "statistics" {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.paymentStatistics(w, r)
		return
	}

	paymentID := parts[0]
	switch r.Method {
	case http.MethodGet:
		h.getPayment(w, r, paymentID)
	case http.MethodPut:
		h.updatePayment(w, r, paymentID)
	case http.MethodDelete:
		h.deletePayment(w, r, paymentID)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *V1Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	staff, err := v1utils.RequireStaff(r)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	var req models.CreatePaymentRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	payment, err := h.paymentService.CreatePayment(&req, staff.Username)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypePayments, req.MemberID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypePayments, payment.PaymentID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusCreated, payment)
}

func (h *V1Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := &models.PaymentFilter{
		MemberID: query.Get("memberId"),
		Method:   query.Get("method"),
		DateFrom: optionalQuery(r, "from"),
		DateTo:   optionalQuery(r, "to"),
	}
	filter.Page, filter.PageSize = utils.ParsePagination(r, models.DefaultPageSize, models.MaxPageSize)

	resp, err := h.paymentService.ListPayments(filter)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *V1Handler) getPayment(w http.ResponseWriter, r *http.Request, paymentID string) {
	payment, err := h.paymentService.GetPayment(paymentID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, payment)
}

func (h *V1Handler) updatePayment(w http.ResponseWriter, r *http.Request, paymentID string) {
	var req models.UpdatePaymentRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	payment, err := h.paymentService.UpdatePayment(paymentID, &req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypePayments, paymentID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypePayments, paymentID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, payment)
}

func (h *V1Handler) deletePayment(w http.ResponseWriter, r *http.Request, paymentID string) {
	if _, err := v1utils.RequireSuperuser(r); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	if err := h.paymentService.DeletePayment(paymentID); err != nil {
		h.audit.LogAudit(r, models.ResourceTypePayments, paymentID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypePayments, paymentID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "payment deleted"})
}

func (h *V1Handler) paymentStatistics(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondWithAPIError(w, apierrors.ValidationError("INVALID_YEAR", "year must be a number"))
			return
		}
		year = parsed
	}

	stats, err := h.paymentService.Statistics(year)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}

// handleBadges handles badge evaluation routes
func (h *V1Handler) handleBadges(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/badges")

	if len(parts) >= 1 && parts[0] == "evaluate" {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		// POST /api/v1/badges/evaluate/:memberId evaluates one member,
		// POST /api/v1/badges/evaluate evaluates all active members.
		if len(parts) == 2 && parts[1] != "" {
			awarded, err := h.badgeService.Evaluate(parts[1])
			if err != nil {
				utils.RespondWithAPIError(w, err)
				return
			}
			h.audit.LogAudit(r, models.ResourceTypeBadges, parts[1], models.AuditStatusSuccess)
			utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
				"awarded": awarded,
				"count":   len(awarded),
			})
			return
		}

		count, err := h.badgeService.EvaluateAll()
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		h.audit.LogAudit(r, models.ResourceTypeBadges, "all", models.AuditStatusSuccess)
		utils.RespondWithJSON(w, http.StatusOK, map[string]int{"awarded": count})
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

// handleLifecycle handles member lifecycle routes
func (h *V1Handler) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/lifecycle")

	if len(parts) == 1 && parts[0] == "sweep" {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		dryRun := r.URL.Query().Get("dry_run") == "true"
		result, err := h.lifecycleService.Sweep(r.Context(), dryRun)
		if err != nil {
			h.audit.LogAudit(r, models.ResourceTypeMembers, "sweep", models.AuditStatusFailure)
			utils.RespondWithAPIError(w, err)
			return
		}

		h.audit.LogAudit(r, models.ResourceTypeMembers, "sweep", models.AuditStatusSuccess)
		utils.RespondWithJSON(w, http.StatusOK, result)
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

// handleDashboard handles the dashboard summary route
func (h *V1Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Opportunistic sweep; the dashboard renders regardless of its outcome.
	if _, err := h.lifecycleService.SweepTriggered(r.Context()); err != nil {
		slog.Warn("Triggered sweep failed", "error", err)
	}

	summary, err := h.dashboardService.Summary()
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}

// handleReports handles report routes
func (h *V1Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	parts := splitPath(r, "/api/v1/reports")
	if len(parts) != 1 {
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	switch parts[0] {
	case "quick-stats":
		stats, err := h.reportService.QuickStats()
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, stats)
	case "heatmap":
		heatmap, err := h.reportService.Heatmap(optionalQuery(r, "from"), optionalQuery(r, "to"))
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, heatmap)
	case "calendar":
		grid, err := h.calendarService.MonthGrid(optionalQuery(r, "year"), optionalQuery(r, "month"))
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, grid)
	default:
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// handleExports handles file export routes
func (h *V1Handler) handleExports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	parts := splitPath(r, "/api/v1/exports")
	if len(parts) != 1 {
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	switch parts[0] {
	case "members.csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="members.csv"`)
		if err := h.exportService.MembersCSV(w); err != nil {
			utils.RespondWithAPIError(w, err)
		}
	case "members.xlsx":
		f, err := h.exportService.MembersXLSX()
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="members.xlsx"`)
		if err := f.Write(w); err != nil {
			utils.RespondWithAPIError(w, apierrors.InternalErrorWithCause("failed to write workbook", err))
		}
	case "meetings.csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="meetings.csv"`)
		if err := h.exportService.MeetingsCSV(w); err != nil {
			utils.RespondWithAPIError(w, err)
		}
	case "meetings.xlsx":
		f, err := h.exportService.MeetingsXLSX()
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="meetings.xlsx"`)
		if err := f.Write(w); err != nil {
			utils.RespondWithAPIError(w, apierrors.InternalErrorWithCause("failed to write workbook", err))
		}
	case "payments.csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)
		if err := h.exportService.PaymentsCSV(w); err != nil {
			utils.RespondWithAPIError(w, err)
		}
	case "payments.xlsx":
		f, err := h.exportService.PaymentsXLSX()
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="payments.xlsx"`)
		if err := f.Write(w); err != nil {
			utils.RespondWithAPIError(w, apierrors.InternalErrorWithCause("failed to write workbook", err))
		}
	case "attendance.csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
		if err := h.exportService.AttendanceCSV(w, optionalQuery(r, "from"), optionalQuery(r, "to")); err != nil {
			utils.RespondWithAPIError(w, err)
		}
	case "attendance.xlsx":
		f, err := h.exportService.AttendanceXLSX(optionalQuery(r, "from"), optionalQuery(r, "to"))
		if err != nil {
			utils.RespondWithAPIError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance.xlsx"`)
		if err := f.Write(w); err != nil {
			utils.RespondWithAPIError(w, apierrors.InternalErrorWithCause("failed to write workbook", err))
		}
	default:
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// handleStaff handles staff account routes
func (h *V1Handler) handleStaff(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/staff")

	// Collection endpoint: GET /api/v1/staff and POST /api/v1/staff
	if len(parts) == 1 && parts[0] == "" {
		switch r.Method {
		case http.MethodGet:
			h.listStaff(w, r)
		case http.MethodPost:
			h.registerStaff(w, r)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) != 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	if parts[0] == "change-password" {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.changePassword(w, r)
		return
	}

	staffID := parts[0]
	switch r.Method {
	case http.MethodGet:
		h.getStaff(w, r, staffID)
	case http.MethodPut:
		h.updateStaff(w, r, staffID)
	case http.MethodDelete:
		h.deleteStaff(w, r, staffID)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *V1Handler) registerStaff(w http.ResponseWriter, r *http.Request) {
	if _, err := v1utils.RequireSuperuser(r); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	var req models.CreateStaffRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	staff, err := h.staffService.Register(&req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeStaff, req.Username, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeStaff, staff.StaffID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusCreated, staff)
}

func (h *V1Handler) listStaff(w http.ResponseWriter, r *http.Request) {
	if _, err := v1utils.RequireSuperuser(r); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	staff, err := h.staffService.ListStaff()
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, staff)
}

func (h *V1Handler) getStaff(w http.ResponseWriter, r *http.Request, staffID string) {
	caller, err := v1utils.RequireStaff(r)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	if !caller.IsSuperuser && caller.StaffID != staffID {
		utils.RespondWithAPIError(w, apierrors.ForbiddenError("access denied to this staff account"))
		return
	}

	staff, err := h.staffService.GetStaff(staffID)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, staff)
}

func (h *V1Handler) updateStaff(w http.ResponseWriter, r *http.Request, staffID string) {
	if _, err := v1utils.RequireSuperuser(r); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	var req models.UpdateStaffRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	staff, err := h.staffService.UpdateStaff(staffID, &req)
	if err != nil {
		h.audit.LogAudit(r, models.ResourceTypeStaff, staffID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeStaff, staffID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, staff)
}

func (h *V1Handler) deleteStaff(w http.ResponseWriter, r *http.Request, staffID string) {
	caller, err := v1utils.RequireSuperuser(r)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}
	if caller.StaffID == staffID {
		utils.RespondWithAPIError(w, apierrors.ValidationError("SELF_DELETE", "cannot delete your own account"))
		return
	}

	if err := h.staffService.DeleteStaff(staffID); err != nil {
		h.audit.LogAudit(r, models.ResourceTypeStaff, staffID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeStaff, staffID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "staff account deleted"})
}

func (h *V1Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	caller, err := v1utils.RequireStaff(r)
	if err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	var req models.ChangePasswordRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithAPIError(w, err)
		return
	}

	if err := h.staffService.ChangePassword(caller.StaffID, &req); err != nil {
		h.audit.LogAudit(r, models.ResourceTypeStaff, caller.StaffID, models.AuditStatusFailure)
		utils.RespondWithAPIError(w, err)
		return
	}

	h.audit.LogAudit(r, models.ResourceTypeStaff, caller.StaffID, models.AuditStatusSuccess)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
