package dto

import "time"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"student@uni.edu"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn" example:"3600"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RegisterStudentRequest is the self-registration payload; only students
// may register themselves.
type RegisterStudentRequest struct {
	Email          string     `json:"email" binding:"required,email" example:"ada@uni.edu"`
	Password       string     `json:"password" binding:"required,min=8" example:"secret123"`
	FirstName      string     `json:"firstName" binding:"required" example:"Ada"`
	LastName       string     `json:"lastName" binding:"required" example:"Lovelace"`
	Phone          *string    `json:"phone,omitempty" binding:"omitempty,max=32"`
	StudentID      string     `json:"studentId" binding:"required,studentid" example:"20231234"`
	Department     string     `json:"department" binding:"required" example:"Computer Science"`
	Major          string     `json:"major" example:"Software Engineering"`
	YearOfStudy    string     `json:"yearOfStudy" binding:"required,yearofstudy" example:"3"`
	GPA            float64    `json:"gpa" binding:"gte=0,lte=4" example:"3.6"`
	EnrollmentDate *time.Time `json:"enrollmentDate,omitempty"`
}

// EmailRequest carries just an email address (resend verification, forgot password).
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// UpdateProfileRequest lets a user edit their own contact details.
type UpdateProfileRequest struct {
	FirstName string  `json:"firstName" binding:"required"`
	LastName  string  `json:"lastName" binding:"required"`
	Phone     *string `json:"phone,omitempty" binding:"omitempty,max=32"`
}
