package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/domain"
)

// Page is the data of every list endpoint.
type Page[T any] struct {
	Items      []T                `json:"items"`
	Pagination dto.PaginationInfo `json:"pagination"`
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	return q
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setIDIf(q url.Values, key string, id int64) {
	if id > 0 {
		q.Set(key, strconv.FormatInt(id, 10))
	}
}

// --- auth ---

// Register creates a student account and signs sess in.
func (c *Client) Register(ctx context.Context, sess *Session, req *dto.RegisterStudentRequest) (*dto.UserResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, nil, request{method: http.MethodPost, path: "/auth/register", body: req}, &out); err != nil {
		return nil, err
	}
	sess.Set(out.Token, &out.User)
	return &out.User, nil
}

// Login signs sess in.
func (c *Client) Login(ctx context.Context, sess *Session, email, password string) (*dto.UserResponse, error) {
	var out dto.AuthResponse
	body := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, nil, request{method: http.MethodPost, path: "/auth/login", body: body}, &out); err != nil {
		return nil, err
	}
	sess.Set(out.Token, &out.User)
	return &out.User, nil
}

// Refresh rotates the session's refresh token. A rejected token clears sess.
func (c *Client) Refresh(ctx context.Context, sess *Session) error {
	rt := sess.RefreshToken()
	if rt == "" {
		return ErrUnauthenticated
	}
	var out dto.AuthResponse
	err := c.do(ctx, nil, request{method: http.MethodPost, path: "/auth/refresh", body: dto.RefreshTokenRequest{RefreshToken: rt}}, &out)
	if err != nil {
		if isUnauthenticated(err) {
			sess.Clear()
		}
		return err
	}
	sess.Set(out.Token, &out.User)
	return nil
}

// Logout revokes the refresh token and clears sess whatever the outcome.
func (c *Client) Logout(ctx context.Context, sess *Session) error {
	rt := sess.RefreshToken()
	defer sess.Clear()
	if rt == "" {
		return nil
	}
	return c.do(ctx, nil, request{method: http.MethodPost, path: "/auth/logout", body: dto.RefreshTokenRequest{RefreshToken: rt}}, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context, sess *Session) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.do(ctx, sess, request{method: http.MethodGet, path: "/auth/me", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- scholarships ---

// ListScholarships returns one page of scholarships visible to the caller.
func (c *Client) ListScholarships(ctx context.Context, sess *Session, f dto.ScholarshipFilterRequest) (*Page[dto.ScholarshipResponse], error) {
	q := pageQuery(f.Page, f.Size)
	setIf(q, "status", f.Status)
	setIf(q, "department", f.Department)
	setIf(q, "academicYear", f.AcademicYear)
	setIf(q, "search", f.Search)
	setIf(q, "sortBy", f.SortBy)
	setIf(q, "sortOrder", f.SortOrder)

	var out Page[dto.ScholarshipResponse]
	if err := c.do(ctx, sess, request{method: http.MethodGet, path: "/scholarships", query: q, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetScholarship fetches one scholarship.
func (c *Client) GetScholarship(ctx context.Context, sess *Session, id int64) (*dto.ScholarshipResponse, error) {
	var out dto.ScholarshipResponse
	if err := c.do(ctx, sess, request{method: http.MethodGet, path: fmt.Sprintf("/scholarships/%d", id), auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateScholarship creates a draft scholarship.
func (c *Client) CreateScholarship(ctx context.Context, sess *Session, req *dto.CreateScholarshipRequest) (*dto.ScholarshipResponse, error) {
	var out dto.ScholarshipResponse
	if err := c.do(ctx, sess, request{method: http.MethodPost, path: "/scholarships", body: req, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangeScholarshipStatus publishes, closes or cancels a scholarship.
func (c *Client) ChangeScholarshipStatus(ctx context.Context, sess *Session, id int64, status domain.ScholarshipStatus) (*dto.ScholarshipResponse, error) {
	var out dto.ScholarshipResponse
	body := dto.ScholarshipStatusRequest{Status: string(status)}
	if err := c.do(ctx, sess, request{method: http.MethodPatch, path: fmt.Sprintf("/scholarships/%d/status", id), body: body, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckEligibility evaluates the caller against a scholarship. The answer is
// advisory; submission re-checks.
func (c *Client) CheckEligibility(ctx context.Context, sess *Session, id int64) (*dto.EligibilityResponse, error) {
	var out dto.EligibilityResponse
	if err := c.do(ctx, sess, request{method: http.MethodGet, path: fmt.Sprintf("/scholarships/%d/eligibility", id), auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- applications ---

func (c *Client) applicationCall(ctx context.Context, sess *Session, method, path string, body interface{}) (*dto.ApplicationResponse, error) {
	var out dto.ApplicationResponse
	if err := c.do(ctx, sess, request{method: method, path: path, body: body, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateApplication starts a draft.
func (c *Client) CreateApplication(ctx context.Context, sess *Session, req *dto.CreateApplicationRequest) (*dto.ApplicationResponse, error) {
	return c.applicationCall(ctx, sess, http.MethodPost, "/applications", req)
}

// GetApplication fetches one application.
func (c *Client) GetApplication(ctx context.Context, sess *Session, id int64) (*dto.ApplicationResponse, error) {
	return c.applicationCall(ctx, sess, http.MethodGet, fmt.Sprintf("/applications/%d", id), nil)
}

// UpdateApplication edits a draft or pending-documents application.
func (c *Client) UpdateApplication(ctx context.Context, sess *Session, id int64, req *dto.UpdateApplicationRequest) (*dto.ApplicationResponse, error) {
	return c.applicationCall(ctx, sess, http.MethodPut, fmt.Sprintf("/applications/%d", id), req)
}

// SubmitApplication submits a draft.
func (c *Client) SubmitApplication(ctx context.Context, sess *Session, id int64) (*dto.ApplicationResponse, error) {
	return c.applicationCall(ctx, sess, http.MethodPost, fmt.Sprintf("/applications/%d/submit", id), nil)
}

// ReviewApplication applies a reviewer action.
func (c *Client) ReviewApplication(ctx context.Context, sess *Session, id int64, req *dto.ReviewApplicationRequest) (*dto.ApplicationResponse, error) {
	return c.applicationCall(ctx, sess, http.MethodPost, fmt.Sprintf("/applications/%d/review", id), req)
}

// ResubmitApplication returns a pending-documents application to review.
func (c *Client) ResubmitApplication(ctx context.Context, sess *Session, id int64) (*dto.ApplicationResponse, error) {
	return c.applicationCall(ctx, sess, http.MethodPost, fmt.Sprintf("/applications/%d/resubmit", id), nil)
}

// WithdrawApplication withdraws a non-terminal application.
func (c *Client) WithdrawApplication(ctx context.Context, sess *Session, id int64) (*dto.ApplicationResponse, error) {
	return c.applicationCall(ctx, sess, http.MethodPost, fmt.Sprintf("/applications/%d/withdraw", id), nil)
}

// ListMyApplications returns the caller's applications.
func (c *Client) ListMyApplications(ctx context.Context, sess *Session, page, size int) (*Page[dto.ApplicationResponse], error) {
	var out Page[dto.ApplicationResponse]
	if err := c.do(ctx, sess, request{method: http.MethodGet, path: "/applications/my", query: pageQuery(page, size), auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListApplications returns the reviewer queue.
func (c *Client) ListApplications(ctx context.Context, sess *Session, f dto.ApplicationFilterRequest) (*Page[dto.ApplicationResponse], error) {
	q := pageQuery(f.Page, f.Size)
	setIf(q, "status", f.Status)
	setIDIf(q, "scholarshipId", f.ScholarshipID)
	setIf(q, "search", f.Search)
	setIf(q, "sortBy", f.SortBy)
	setIf(q, "sortOrder", f.SortOrder)

	var out Page[dto.ApplicationResponse]
	if err := c.do(ctx, sess, request{method: http.MethodGet, path: "/applications", query: q, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument attaches a file to an application.
func (c *Client) UploadDocument(ctx context.Context, sess *Session, applicationID int64, docType domain.DocumentType, fileName string, content io.Reader) (*dto.DocumentResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", string(docType)); err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}

	var out dto.DocumentResponse
	err = c.do(ctx, sess, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/applications/%d/documents", applicationID),
		rawBody:     &buf,
		contentType: mw.FormDataContentType(),
		auth:        true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// --- payments ---

// ListPayments returns payments visible to the caller.
func (c *Client) ListPayments(ctx context.Context, sess *Session, f dto.PaymentFilterRequest) (*Page[dto.PaymentResponse], error) {
	q := pageQuery(f.Page, f.Size)
	setIf(q, "status", f.Status)
	setIDIf(q, "scholarshipId", f.ScholarshipID)

	var out Page[dto.PaymentResponse]
	if err := c.do(ctx, sess, request{method: http.MethodGet, path: "/payments", query: q, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePaymentStatus moves a payment through its lifecycle.
func (c *Client) UpdatePaymentStatus(ctx context.Context, sess *Session, id int64, req *dto.UpdatePaymentStatusRequest) (*dto.PaymentResponse, error) {
	var out dto.PaymentResponse
	if err := c.do(ctx, sess, request{method: http.MethodPatch, path: fmt.Sprintf("/payments/%d/status", id), body: req, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- notifications ---

// ListMyNotifications returns the caller's notifications and unread count.
func (c *Client) ListMyNotifications(ctx context.Context, sess *Session, page, size int) (*dto.NotificationListResponse, error) {
	var out dto.NotificationListResponse
	if err := c.do(ctx, sess, request{method: http.MethodGet, path: "/notifications/my", query: pageQuery(page, size), auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, sess *Session, id int64) error {
	return c.do(ctx, sess, request{method: http.MethodPatch, path: fmt.Sprintf("/notifications/%d/read", id), auth: true}, nil)
}

// --- meta ---

// Statuses returns the status presentation table.
func (c *Client) Statuses(ctx context.Context) (*domain.PresentationTable, error) {
	var out domain.PresentationTable
	if err := c.do(ctx, nil, request{method: http.MethodGet, path: "/meta/statuses"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
