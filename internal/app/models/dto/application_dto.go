package dto

import (
	"time"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/domain"
)

// CreateApplicationRequest starts a draft application.
type CreateApplicationRequest struct {
	ScholarshipID int64                  `json:"scholarshipId" binding:"required,gt=0" example:"1"`
	PersonalInfo  map[string]interface{} `json:"personalInfo,omitempty"`
	AcademicInfo  map[string]interface{} `json:"academicInfo,omitempty"`
	Essays        map[string]interface{} `json:"essays,omitempty"`
	FinancialInfo map[string]interface{} `json:"financialInfo,omitempty"`
}

// UpdateApplicationRequest replaces the supplied sections. Omitted sections
// are left untouched. When Version is set it must match the stored version.
type UpdateApplicationRequest struct {
	PersonalInfo  map[string]interface{} `json:"personalInfo,omitempty"`
	AcademicInfo  map[string]interface{} `json:"academicInfo,omitempty"`
	Essays        map[string]interface{} `json:"essays,omitempty"`
	FinancialInfo map[string]interface{} `json:"financialInfo,omitempty"`
	Version       *int                   `json:"version,omitempty" example:"3"`
}

// Review actions
const (
	ReviewActionBegin            = "begin_review"
	ReviewActionRequestDocuments = "request_documents"
	ReviewActionDecide           = "decide"
)

// ReviewApplicationRequest drives every reviewer transition.
type ReviewApplicationRequest struct {
	Action          string             `json:"action" binding:"required,oneof=begin_review request_documents decide" example:"decide"`
	Decision        string             `json:"decision,omitempty" binding:"omitempty,oneof=approved rejected returned" example:"approved"`
	Score           *float64           `json:"score,omitempty" example:"88"`
	CriteriaScores  map[string]float64 `json:"criteriaScores,omitempty"`
	Comments        string             `json:"comments,omitempty" example:"Strong academic record"`
	RejectionReason string             `json:"rejectionReason,omitempty"`
	Version         *int               `json:"version,omitempty"`
}

// ApplicationFilterRequest represents application listing parameters
type ApplicationFilterRequest struct {
	Status        string `form:"status" binding:"omitempty,oneof=draft submitted under_review pending_documents approved rejected withdrawn"`
	ScholarshipID int64  `form:"scholarshipId"`
	Search        string `form:"search"`
	SortBy        string `form:"sortBy"`
	SortOrder     string `form:"sortOrder" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page          int    `form:"page"`
	Size          int    `form:"size"`
}

// DocumentResponse is one entry of the ordered document list.
type DocumentResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	FileName   string    `json:"fileName"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ApplicationResponse is the wire form of an application.
type ApplicationResponse struct {
	ID                  int64                  `json:"id"`
	StudentID           int64                  `json:"studentId"`
	StudentName         string                 `json:"studentName,omitempty"`
	StudentEmail        string                 `json:"studentEmail,omitempty"`
	ScholarshipID       int64                  `json:"scholarshipId"`
	ScholarshipName     string                 `json:"scholarshipName,omitempty"`
	ScholarshipDeadline *time.Time             `json:"scholarshipDeadline,omitempty"`
	Status              string                 `json:"status"`
	Priority            string                 `json:"priority"`
	AvailableActions    []string               `json:"availableActions"`
	PersonalInfo        map[string]interface{} `json:"personalInfo"`
	AcademicInfo        map[string]interface{} `json:"academicInfo"`
	Essays              map[string]interface{} `json:"essays"`
	FinancialInfo       map[string]interface{} `json:"financialInfo"`
	Documents           []DocumentResponse     `json:"documents"`
	Score               *float64               `json:"score,omitempty"`
	CriteriaScores      map[string]float64     `json:"criteriaScores,omitempty"`
	Comments            *string                `json:"comments,omitempty"`
	RejectionReason     *string                `json:"rejectionReason,omitempty"`
	ReviewedBy          *int64                 `json:"reviewedBy,omitempty"`
	ReviewedAt          *time.Time             `json:"reviewedAt,omitempty"`
	SubmittedAt         *time.Time             `json:"submittedAt,omitempty"`
	Version             int                    `json:"version"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

// FromDocument maps a stored document to its wire form; the storage path stays internal.
func FromDocument(d *models.Document) DocumentResponse {
	return DocumentResponse{
		ID:         d.ID,
		Type:       string(d.Type),
		FileName:   d.FileName,
		URL:        d.URL,
		Size:       d.Size,
		MimeType:   d.MimeType,
		UploadedAt: d.UploadedAt,
	}
}

func orEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

// FromApplication maps an application row to its wire form.
func FromApplication(a *models.Application, now time.Time) ApplicationResponse {
	docs := make([]DocumentResponse, 0, len(a.Documents))
	for i := range a.Documents {
		docs = append(docs, FromDocument(&a.Documents[i]))
	}
	events := domain.AvailableEvents(a.Status)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, string(e))
	}
	return ApplicationResponse{
		ID:                  a.ID,
		StudentID:           a.StudentID,
		StudentName:         a.StudentName,
		StudentEmail:        a.StudentEmail,
		ScholarshipID:       a.ScholarshipID,
		ScholarshipName:     a.ScholarshipName,
		ScholarshipDeadline: a.ScholarshipDeadline,
		Status:              string(a.Status),
		Priority:            string(a.Priority(now)),
		AvailableActions:    actions,
		PersonalInfo:        orEmpty(a.PersonalInfo),
		AcademicInfo:        orEmpty(a.AcademicInfo),
		Essays:              orEmpty(a.Essays),
		FinancialInfo:       orEmpty(a.FinancialInfo),
		Documents:           docs,
		Score:               a.Score,
		CriteriaScores:      a.CriteriaScores,
		Comments:            a.Comments,
		RejectionReason:     a.RejectionReason,
		ReviewedBy:          a.ReviewedBy,
		ReviewedAt:          a.ReviewedAt,
		SubmittedAt:         a.SubmittedAt,
		Version:             a.Version,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}
