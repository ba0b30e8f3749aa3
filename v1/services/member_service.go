package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clubworks/mms-backend/pkg/errors"
	"github.com/clubworks/mms-backend/shared/monitoring"
	"github.com/clubworks/mms-backend/shared/utils"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/gorm"
)

// MemberService handles member-related operations
type MemberService struct {
	db *gorm.DB
}

// NewMemberService creates a new member service
func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// CreateMember registers a new member. Exclusive roles are checked against
// current holders before anything is persisted.
func (s *MemberService) CreateMember(req *models.CreateMemberRequest) (*models.MemberResponse, error) {
	role, fieldErrs := validateMemberFields(req)
	if len(fieldErrs) > 0 {
		return nil, errors.FieldValidationError(fieldErrs)
	}

	member := models.Member{
		MemberID:     strings.ToUpper(strings.TrimSpace(req.MemberID)),
		Initials:     strings.TrimSpace(req.Initials),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Address:      strings.TrimSpace(req.Address),
		Phone:        strings.TrimSpace(req.Phone),
		AccountNo:    strings.TrimSpace(req.AccountNo),
		GuardianName: strings.TrimSpace(req.GuardianName),
		Role:         role,
		IsActive:     true,
		JoinedAt:     time.Now().UTC(),
	}

	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := utils.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"dateOfBirth": err.Error()})
		}
		member.DateOfBirth = &dob
	}
	if req.JoinedAt != nil && *req.JoinedAt != "" {
		joined, err := utils.ParseDate(*req.JoinedAt)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"joinedAt": err.Error()})
		}
		member.JoinedAt = joined
	}

	if err := s.ValidateRoleAssignment(member.MemberID, role); err != nil {
		return nil, err
	}

	if err := s.db.Create(&member).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "create member")
	}

	slog.Info("Member created", "memberId", member.MemberID, "role", member.Role)
	monitoring.RecordBusinessEvent(monitoring.EventMemberCreated, monitoring.OutcomeSuccess)

	resp := toMemberResponse(&member)
	return &resp, nil
}

// GetMember retrieves a member by ID
func (s *MemberService) GetMember(memberID string) (*models.MemberResponse, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "get member")
	}
	resp := toMemberResponse(&member)
	return &resp, nil
}

// ListMembers returns a paginated member listing. The free-text query
// matches member ID and name fields.
func (s *MemberService) ListMembers(filter *models.MemberFilter) (*models.MemberListResponse, error) {
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

	query := s.db.Model(&models.Member{})
	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where(
			"LOWER(member_id) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.JoinedFrom != nil {
		from, err := utils.ParseDate(*filter.JoinedFrom)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"joinedFrom": err.Error()})
		}
		query = query.Where("joined_at >= ?", from)
	}
	if filter.JoinedTo != nil {
		to, err := utils.ParseDate(*filter.JoinedTo)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"joinedTo": err.Error()})
		}
		query = query.Where("joined_at <= ?", to.Add(24*time.Hour))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, errors.DatabaseError("count members", err)
	}

	var members []models.Member
	offset := (page - 1) * pageSize
	if err := query.Order("member_id").Limit(pageSize).Offset(offset).Find(&members).Error; err != nil {
		return nil, errors.DatabaseError("list members", err)
	}

	responses := make([]models.MemberResponse, 0, len(members))
	for i := range members {
		responses = append(responses, toMemberResponse(&members[i]))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &models.MemberListResponse{
		Members:    responses,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// UpdateMember edits a member. Every save of an active member goes through
// the same role-uniqueness guard as creation, before anything is persisted.
func (s *MemberService) UpdateMember(memberID string, req *models.UpdateMemberRequest) (*models.MemberResponse, error) {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "update member")
	}

	if req.Role != nil {
		role, err := models.ParseMemberRole(*req.Role)
		if err != nil {
			return nil, errors.FieldValidationError(map[string]string{"role": err.Error()})
		}
		member.Role = role
	}
	if req.Initials != nil {
		member.Initials = strings.TrimSpace(*req.Initials)
	}
	if req.FirstName != nil {
		member.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		member.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Address != nil {
		member.Address = strings.TrimSpace(*req.Address)
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			member.DateOfBirth = nil
		} else {
			dob, err := utils.ParseDate(*req.DateOfBirth)
			if err != nil {
				return nil, errors.FieldValidationError(map[string]string{"dateOfBirth": err.Error()})
			}
			member.DateOfBirth = &dob
		}
	}
	if req.Phone != nil {
		member.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.AccountNo != nil {
		member.AccountNo = strings.TrimSpace(*req.AccountNo)
	}
	if req.GuardianName != nil {
		member.GuardianName = strings.TrimSpace(*req.GuardianName)
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}

	// The uniqueness guard runs on every save of an active member, not just
	// on role changes: reactivating a former holder competes for the seat
	// the same way a fresh assignment does.
	if member.IsActive {
		if err := s.ValidateRoleAssignment(member.MemberID, member.Role); err != nil {
			return nil, err
		}
	}

	if err := s.db.Save(&member).Error; err != nil {
		return nil, errors.HandleDatabaseError(err, "member", "update member")
	}

	slog.Info("Member updated", "memberId", member.MemberID)
	resp := toMemberResponse(&member)
	return &resp, nil
}

// DeleteMember removes a member and their dependent records.
func (s *MemberService) DeleteMember(memberID string) error {
	var member models.Member
	if err := s.db.First(&member, "member_id = ?", memberID).Error; err != nil {
		return errors.HandleDatabaseError(err, "member", "delete member")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", memberID).Delete(&models.AttendanceRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", memberID).Delete(&models.Badge{}).Error; err != nil {
			return err
		}
		if err := tx.Where("member_id = ?", memberID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&member).Error
	})
	if err != nil {
		return errors.DatabaseError("delete member", err)
	}

	slog.Info("Member deleted", "memberId", memberID)
	return nil
}

// ValidateRoleAssignment enforces single-holder roles. An exclusive role can
// be held by at most one active member at a time; committee membership is
// unrestricted. The member being assigned is excluded from the check so
// re-saving a holder is not a conflict.
func (s *MemberService) ValidateRoleAssignment(memberID string, role models.MemberRole) error {
	if !role.IsExclusive() {
		return nil
	}

	var holder models.Member
	err := s.db.
		Where("role = ? AND is_active = ? AND member_id <> ?", role, true, memberID).
		First(&holder).Error
	if err == nil {
		return errors.RoleConflictError(string(role), holder.MemberID)
	}
	if err != gorm.ErrRecordNotFound {
		return errors.DatabaseError("validate role assignment", err)
	}
	return nil
}

// validateMemberFields checks the create payload and parses the role.
// All problems are collected so the client sees every invalid field at once.
func validateMemberFields(req *models.CreateMemberRequest) (models.MemberRole, map[string]string) {
	fieldErrs := make(map[string]string)

	memberID := strings.TrimSpace(req.MemberID)
	if memberID == "" {
		fieldErrs["memberId"] = "member ID is required"
	} else if len(memberID) > models.MaxMemberIDLength {
		fieldErrs["memberId"] = fmt.Sprintf("member ID must be at most %d characters", models.MaxMemberIDLength)
	}
	if strings.TrimSpace(req.FirstName) == "" {
		fieldErrs["firstName"] = "first name is required"
	} else if len(req.FirstName) > models.MaxNameLength {
		fieldErrs["firstName"] = fmt.Sprintf("first name must be at most %d characters", models.MaxNameLength)
	}
	if strings.TrimSpace(req.LastName) == "" {
		fieldErrs["lastName"] = "last name is required"
	} else if len(req.LastName) > models.MaxNameLength {
		fieldErrs["lastName"] = fmt.Sprintf("last name must be at most %d characters", models.MaxNameLength)
	}
	if len(req.Address) > models.MaxAddressLength {
		fieldErrs["address"] = fmt.Sprintf("address must be at most %d characters", models.MaxAddressLength)
	}
	if len(req.Phone) > models.MaxPhoneLength {
		fieldErrs["phone"] = fmt.Sprintf("phone must be at most %d characters", models.MaxPhoneLength)
	}

	role, err := models.ParseMemberRole(req.Role)
	if err != nil {
		fieldErrs["role"] = err.Error()
	}

	return role, fieldErrs
}

// toMemberResponse converts a member model to its API representation
func toMemberResponse(m *models.Member) models.MemberResponse {
	resp := models.MemberResponse{
		MemberID:     m.MemberID,
		Initials:     m.Initials,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Address:      m.Address,
		Phone:        m.Phone,
		AccountNo:    m.AccountNo,
		GuardianName: m.GuardianName,
		Role:         string(m.Role),
		RoleDisplay:  m.Role.Display(),
		IsActive:     m.IsActive,
		JoinedAt:     utils.FormatDate(m.JoinedAt),
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    m.UpdatedAt.Format(time.RFC3339),
	}
	if m.DateOfBirth != nil {
		dob := utils.FormatDate(*m.DateOfBirth)
		resp.DateOfBirth = &dob
	}
	return resp
}
