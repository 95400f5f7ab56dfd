package domain

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

// DocumentType classifies an uploaded supporting document.
type DocumentType string

const (
	DocTranscript         DocumentType = "transcript"
	DocRecommendation     DocumentType = "recommendation_letter"
	DocFinancialStatement DocumentType = "financial_statement"
	DocIdentification     DocumentType = "identification"
	DocEssay              DocumentType = "essay"
	DocOther              DocumentType = "other"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocTranscript, DocRecommendation, DocFinancialStatement, DocIdentification, DocEssay, DocOther:
		return true
	}
	return false
}

// UploadPolicy bounds what may be stored as a document.
type UploadPolicy struct {
	MaxBytes          int64
	AllowedExtensions []string
}

// DefaultUploadPolicy allows documents up to 5 MB of common office and image types.
var DefaultUploadPolicy = UploadPolicy{
	MaxBytes:          5 << 20,
	AllowedExtensions: []string{".pdf", ".doc", ".docx", ".jpg", ".jpeg", ".png"},
}

// Check validates a file before anything is written to storage.
func (p UploadPolicy) Check(fileName string, size int64, docType DocumentType) error {
	problems := make(map[string]interface{})
	if !docType.Valid() {
		problems["type"] = fmt.Sprintf("unknown document type %q", docType)
	}
	if size <= 0 {
		problems["file"] = "file is empty"
	} else if p.MaxBytes > 0 && size > p.MaxBytes {
		problems["file"] = fmt.Sprintf("file exceeds the %d MB limit", p.MaxBytes>>20)
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	allowed := false
	for _, a := range p.AllowedExtensions {
		if strings.EqualFold(a, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		problems["extension"] = fmt.Sprintf("%q is not an allowed file type", ext)
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError("invalid document upload").WithDetails(problems)
	}
	return nil
}

// SubmissionContent summarises what a student has filled in.
type SubmissionContent struct {
	PersonalInfo  map[string]interface{}
	AcademicInfo  map[string]interface{}
	Essays        map[string]interface{}
	DocumentCount int
}

// ValidateSubmission checks the required-field guard of submit.
func ValidateSubmission(c SubmissionContent) error {
	problems := make(map[string]interface{})
	if len(c.PersonalInfo) == 0 {
		problems["personalInfo"] = "required"
	}
	if len(c.AcademicInfo) == 0 {
		problems["academicInfo"] = "required"
	}
	if len(c.Essays) == 0 {
		problems["essays"] = "at least one essay is required"
	}
	if c.DocumentCount == 0 {
		problems["documents"] = "at least one document is required"
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError("application is incomplete").
			WithCode("INCOMPLETE_APPLICATION").
			WithDetails(problems)
	}
	return nil
}
