package dto

import (
	"time"

	"github.com/yigit/scholarhub/internal/app/models"
)

// StudentProfileResponse is the academic profile of a student user.
type StudentProfileResponse struct {
	StudentID      string     `json:"studentId"`
	Department     string     `json:"department"`
	Major          string     `json:"major"`
	YearOfStudy    string     `json:"yearOfStudy"`
	GPA            float64    `json:"gpa"`
	EnrollmentDate *time.Time `json:"enrollmentDate,omitempty"`
}

// UserResponse represents user information returned by the API
type UserResponse struct {
	ID            int64                   `json:"id"`
	Email         string                  `json:"email"`
	FirstName     string                  `json:"firstName"`
	LastName      string                  `json:"lastName"`
	Phone         *string                 `json:"phone,omitempty"`
	Role          string                  `json:"role" example:"student" enums:"student,coordinator,committee,finance,admin"`
	IsActive      bool                    `json:"isActive"`
	EmailVerified bool                    `json:"emailVerified"`
	LastLoginAt   *time.Time              `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
	Student       *StudentProfileResponse `json:"student,omitempty"`
}

// FromUser maps a user row to its wire form.
func FromUser(u *models.User) UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
	if u.Student != nil {
		resp.Student = &StudentProfileResponse{
			StudentID:      u.Student.StudentID,
			Department:     u.Student.Department,
			Major:          u.Student.Major,
			YearOfStudy:    string(u.Student.YearOfStudy),
			GPA:            u.Student.GPA,
			EnrollmentDate: u.Student.EnrollmentDate,
		}
	}
	return resp
}

// StudentProfileRequest is required when an admin creates a student account.
type StudentProfileRequest struct {
	StudentID      string     `json:"studentId" binding:"required,studentid"`
	Department     string     `json:"department" binding:"required"`
	Major          string     `json:"major"`
	YearOfStudy    string     `json:"yearOfStudy" binding:"required,yearofstudy"`
	GPA            float64    `json:"gpa" binding:"gte=0,lte=4"`
	EnrollmentDate *time.Time `json:"enrollmentDate,omitempty"`
}

// CreateUserRequest is the admin payload for creating any kind of account.
type CreateUserRequest struct {
	Email     string                 `json:"email" binding:"required,email"`
	Password  string                 `json:"password" binding:"required,min=8"`
	FirstName string                 `json:"firstName" binding:"required"`
	LastName  string                 `json:"lastName" binding:"required"`
	Phone     *string                `json:"phone,omitempty" binding:"omitempty,max=32"`
	Role      string                 `json:"role" binding:"required,oneof=student coordinator committee finance admin"`
	Student   *StudentProfileRequest `json:"student,omitempty"`
}

// UpdateUserRoleRequest changes a user's role.
type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student coordinator committee finance admin"`
}

// UpdateUserStatusRequest activates or deactivates an account.
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// UserFilterRequest represents user filtering parameters
type UserFilterRequest struct {
	Role     string `form:"role" binding:"omitempty,oneof=student coordinator committee finance admin"`
	Search   string `form:"search"`
	IsActive *bool  `form:"isActive"`
	Page     int    `form:"page"`
	Size     int    `form:"size"`
}

// RoleResponse describes a seeded role.
type RoleResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"isActive"`
}

// FromRole maps a role row to its wire form.
func FromRole(r *models.Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        string(r.Name),
		DisplayName: r.DisplayName,
		Description: r.Description,
		Permissions: r.Permissions,
		IsActive:    r.IsActive,
	}
}
