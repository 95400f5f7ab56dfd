package models

import (
	"strings"
	"time"

	"github.com/yigit/scholarhub/internal/domain"
)

// Role defines a role row. Permissions are capability tokens such as
// "applications:review"; "*" grants everything.
type Role struct {
	ID          int64      `json:"id" db:"id"`
	Name        RoleName   `json:"name" db:"name"`
	DisplayName string     `json:"displayName" db:"display_name"`
	Description string     `json:"description" db:"description"`
	Permissions []string   `json:"permissions" db:"permissions"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// User defines the user model based on the 'users' table
type User struct {
	ID            int64      `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	Password      string     `json:"-" db:"password"`
	FirstName     string     `json:"firstName" db:"first_name"`
	LastName      string     `json:"lastName" db:"last_name"`
	Phone         *string    `json:"phone,omitempty" db:"phone"`
	RoleID        int64      `json:"roleId" db:"role_id"`
	Role          RoleName   `json:"role" db:"role_name"` // joined from roles
	IsActive      bool       `json:"isActive" db:"is_active"`
	EmailVerified bool       `json:"emailVerified" db:"email_verified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
	Student       *Student   `json:"student,omitempty"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Student defines the student profile based on the 'students' table
type Student struct {
	ID             int64              `json:"id" db:"id"`
	UserID         int64              `json:"userId" db:"user_id"`
	StudentID      string             `json:"studentId" db:"student_id"`
	Department     string             `json:"department" db:"department"`
	Major          string             `json:"major" db:"major"`
	YearOfStudy    domain.YearOfStudy `json:"yearOfStudy" db:"year_of_study"`
	GPA            float64            `json:"gpa" db:"gpa"`
	EnrollmentDate *time.Time         `json:"enrollmentDate,omitempty" db:"enrollment_date"`
}

// Profile returns the fields eligibility is evaluated against.
func (s *Student) Profile() domain.StudentProfile {
	return domain.StudentProfile{
		Department:  s.Department,
		YearOfStudy: s.YearOfStudy,
		GPA:         s.GPA,
	}
}

// RefreshToken is a stored, revocable refresh token.
type RefreshToken struct {
	ID         int64     `db:"id"`
	Token      string    `db:"token"`
	UserID     int64     `db:"user_id"`
	ExpiryDate time.Time `db:"expiry_date"`
	IsRevoked  bool      `db:"is_revoked"`
	CreatedAt  time.Time `db:"created_at"`
}

// OneTimeToken backs email verification and password reset links.
type OneTimeToken struct {
	ID        int64      `db:"id"`
	UserID    int64      `db:"user_id"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role     *RoleName
	Search   string
	IsActive *bool
	Page     int
	Size     int
}
