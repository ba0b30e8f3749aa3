package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/clubworks/mms-backend/v1/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupSQLiteTestDB creates an in-memory SQLite database for testing
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Member{},
		&models.Meeting{},
		&models.AttendanceRecord{},
		&models.Badge{},
		&models.Payment{},
		&models.StaffUser{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// SetupMockDB creates a GORM database backed by sqlmock, for exercising
// driver-failure paths the sqlite fixture cannot produce.
func SetupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open GORM over sqlmock: %v", err)
	}
	return db, mock
}

// timeMustParse parses a YYYY-MM-DD date or fails the test.
func timeMustParse(t *testing.T, value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("Failed to parse date %q: %v", value, err)
	}
	return parsed
}

// seedMember inserts an active member with sensible defaults.
func seedMember(t *testing.T, db *gorm.DB, memberID string, role models.MemberRole) *models.Member {
	member := &models.Member{
		MemberID:  memberID,
		FirstName: "Test",
		LastName:  memberID,
		Role:      role,
		IsActive:  true,
		JoinedAt:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to seed member %s: %v", memberID, err)
	}
	return member
}

// seedMeeting inserts a meeting on the given date.
func seedMeeting(t *testing.T, db *gorm.DB, date time.Time, fee float64) *models.Meeting {
	meeting := &models.Meeting{
		MeetingDate: date,
		Fee:         fee,
	}
	if err := db.Create(meeting).Error; err != nil {
		t.Fatalf("Failed to seed meeting on %s: %v", date.Format("2006-01-02"), err)
	}
	return meeting
}

// seedMeetings inserts n weekly meetings ending at the newest date and
// returns them oldest first.
func seedMeetings(t *testing.T, db *gorm.DB, n int, newest time.Time) []*models.Meeting {
	meetings := make([]*models.Meeting, n)
	for i := 0; i < n; i++ {
		date := newest.AddDate(0, 0, -7*(n-1-i))
		meetings[i] = seedMeeting(t, db, date, 100)
	}
	return meetings
}

// seedAttendance inserts one attendance record.
func seedAttendance(t *testing.T, db *gorm.DB, memberID string, meetingID uint, present, feePaid bool) {
	record := &models.AttendanceRecord{
		MemberID:  memberID,
		MeetingID: meetingID,
		Present:   present,
		FeePaid:   feePaid,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("Failed to seed attendance for %s at meeting %d: %v", memberID, meetingID, err)
	}
}

// seedPayment inserts a payment for the member.
func seedPayment(t *testing.T, db *gorm.DB, memberID string, amount float64, paidAt time.Time) *models.Payment {
	payment := &models.Payment{
		PaymentID:  fmt.Sprintf("pay_test_%s_%d", memberID, paidAt.UnixNano()),
		MemberID:   memberID,
		Amount:     amount,
		Method:     models.PaymentMethodCash,
		RecordedBy: "tester",
		PaidAt:     paidAt,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("Failed to seed payment for %s: %v", memberID, err)
	}
	return payment
}
