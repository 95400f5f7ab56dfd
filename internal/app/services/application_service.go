package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/repositories"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/filestorage"
	"github.com/yigit/scholarhub/internal/pkg/metrics"
)

// ApplicationService runs the application lifecycle. Every status change
// goes through domain.Transition on a locked row.
type ApplicationService struct {
	apps          repositories.IApplicationRepository
	scholarships  repositories.IScholarshipRepository
	users         repositories.IUserRepository
	payments      *PaymentService
	notifications *NotificationService
	storage       filestorage.FileStorage
	policy        domain.UploadPolicy
	tx            db.Transactor
	authz         *appauth.AuthorizationService
	logger        zerolog.Logger
	now           func() time.Time
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(
	apps repositories.IApplicationRepository,
	scholarships repositories.IScholarshipRepository,
	users repositories.IUserRepository,
	payments *PaymentService,
	notifications *NotificationService,
	storage filestorage.FileStorage,
	policy domain.UploadPolicy,
	tx db.Transactor,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:          apps,
		scholarships:  scholarships,
		users:         users,
		payments:      payments,
		notifications: notifications,
		storage:       storage,
		policy:        policy,
		tx:            tx,
		authz:         authz,
		logger:        logger,
		now:           time.Now,
	}
}

// Upload is a document received from the client.
type Upload struct {
	Type     string
	FileName string
	Size     int64
	MimeType string
	Body     io.Reader
}

func closedScholarship(sch *models.Scholarship) error {
	return apperrors.NewConflictError(fmt.Sprintf("scholarship %q is not accepting applications", sch.Name)).
		WithCode("SCHOLARSHIP_CLOSED").
		WithDetails(map[string]interface{}{
			"status":   sch.Status,
			"deadline": sch.ApplicationDeadline,
		})
}

func checkVersion(app *models.Application, version *int) error {
	if version != nil && *version != app.Version {
		return apperrors.ErrStaleVersion
	}
	return nil
}

// lockOwned locks the application and requires the actor to own it.
func (s *ApplicationService) lockOwned(ctx context.Context, actor appauth.Actor, id int64) (*models.Application, error) {
	app, err := s.apps.LockByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := appauth.RequireOwner(actor, app.StudentID); err != nil {
		return nil, err
	}
	return app, nil
}

// Create starts a draft. The scholarship must be open; eligibility is only
// enforced at submit time.
func (s *ApplicationService) Create(ctx context.Context, actor appauth.Actor, req *dto.CreateApplicationRequest) (*models.Application, error) {
	if err := s.authz.Authorize(actor, appauth.PermApplicationsCreate); err != nil {
		return nil, err
	}

	var app *models.Application
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sch, err := s.scholarships.GetByID(ctx, req.ScholarshipID)
		if err != nil {
			return err
		}
		if !sch.AcceptsSubmissions(s.now()) {
			return closedScholarship(sch)
		}
		exists, err := s.apps.ExistsActive(ctx, actor.UserID, sch.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrDuplicateApplication
		}

		app = &models.Application{
			StudentID:     actor.UserID,
			ScholarshipID: sch.ID,
			Status:        domain.StatusDraft,
			PersonalInfo:  req.PersonalInfo,
			AcademicInfo:  req.AcademicInfo,
			Essays:        req.Essays,
			FinancialInfo: req.FinancialInfo,
			Documents:     []models.Document{},
		}
		id, err := s.apps.Create(ctx, app)
		if err != nil {
			return err
		}
		app.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("applicationID", app.ID).
		Int64("scholarshipID", app.ScholarshipID).
		Int64("studentID", actor.UserID).
		Msg("Application draft created")
	return s.apps.GetByID(ctx, app.ID)
}

// Get returns an application to its owner or to a reader. Anyone else is
// told it does not exist.
func (s *ApplicationService) Get(ctx context.Context, actor appauth.Actor, id int64) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, hideAs(err, apperrors.ErrApplicationNotFound)
	}
	if err := s.authz.AuthorizeRead(actor, app.StudentID, appauth.PermApplicationsRead, apperrors.ErrApplicationNotFound); err != nil {
		return nil, err
	}
	return app, nil
}

// ListMine returns the caller's own applications.
func (s *ApplicationService) ListMine(ctx context.Context, actor appauth.Actor, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	if err := s.authz.Authorize(actor, appauth.PermApplicationsOwn); err != nil {
		return nil, 0, err
	}
	filter.StudentID = &actor.UserID
	return s.apps.List(ctx, filter)
}

// List is the reviewer queue.
func (s *ApplicationService) List(ctx context.Context, actor appauth.Actor, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	if err := s.authz.Authorize(actor, appauth.PermApplicationsRead); err != nil {
		return nil, 0, err
	}
	return s.apps.List(ctx, filter)
}

// Update replaces the supplied sections of an editable application.
func (s *ApplicationService) Update(ctx context.Context, actor appauth.Actor, id int64, req *dto.UpdateApplicationRequest) (*models.Application, error) {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		app, err := s.lockOwned(ctx, actor, id)
		if err != nil {
			return err
		}
		if !app.Status.Editable() {
			return apperrors.NewConflictError(fmt.Sprintf("an application that is %s cannot be edited", app.Status)).
				WithCode("INVALID_TRANSITION")
		}
		if err := checkVersion(app, req.Version); err != nil {
			return err
		}
		if req.PersonalInfo != nil {
			app.PersonalInfo = req.PersonalInfo
		}
		if req.AcademicInfo != nil {
			app.AcademicInfo = req.AcademicInfo
		}
		if req.Essays != nil {
			app.Essays = req.Essays
		}
		if req.FinancialInfo != nil {
			app.FinancialInfo = req.FinancialInfo
		}
		return s.apps.Update(ctx, app)
	})
	if err != nil {
		return nil, err
	}
	return s.apps.GetByID(ctx, id)
}

// Delete removes a draft and its stored documents.
func (s *ApplicationService) Delete(ctx context.Context, actor appauth.Actor, id int64) error {
	var docs []models.Document
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		app, err := s.lockOwned(ctx, actor, id)
		if err != nil {
			return err
		}
		if app.Status != domain.StatusDraft {
			return apperrors.NewConflictError(fmt.Sprintf("only drafts can be deleted, this application is %s", app.Status)).
				WithCode("INVALID_TRANSITION")
		}
		docs = app.Documents
		return s.apps.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	for _, d := range docs {
		s.removeFile(d.Path)
	}
	s.logger.Info().Int64("applicationID", id).Int64("studentID", actor.UserID).Msg("Application draft deleted")
	return nil
}

// Submit moves a complete draft of an eligible student to submitted.
func (s *ApplicationService) Submit(ctx context.Context, actor appauth.Actor, id int64) (*models.Application, error) {
	var dispatch *Dispatch
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		app, err := s.lockOwned(ctx, actor, id)
		if err != nil {
			return err
		}
		next, err := domain.Transition(app.Status, domain.EventSubmit)
		if err != nil {
			return err
		}
		sch, err := s.scholarships.GetByID(ctx, app.ScholarshipID)
		if err != nil {
			return err
		}
		now := s.now()
		if !sch.AcceptsSubmissions(now) {
			return closedScholarship(sch)
		}
		if err := domain.ValidateSubmission(app.Content()); err != nil {
			return err
		}
		if err := s.checkEligible(ctx, actor.UserID, sch); err != nil {
			return err
		}

		app.Status = next
		app.SubmittedAt = &now
		if err := s.apps.Update(ctx, app); err != nil {
			return err
		}
		dispatch, err = s.notifications.Queue(ctx, NotificationDraft{
			Type:      models.NotificationApplicationSubmitted,
			Title:     "Application received",
			Message:   fmt.Sprintf("Your application for %s has been received and is waiting for review.", sch.Name),
			Priority:  domain.PriorityMedium,
			UserIDs:   []int64{app.StudentID},
			ActionURL: applicationURL(app.ID),
			Email:     true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.afterTransition(ctx, id, domain.EventSubmit, dispatch)
}

func (s *ApplicationService) checkEligible(ctx context.Context, userID int64, sch *models.Scholarship) error {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Student == nil {
		return apperrors.ErrStudentProfileMissing
	}
	reasons := domain.CheckEligibility(u.Student.Profile(), sch.EligibilityTerms())
	if len(reasons) == 0 {
		return nil
	}
	list := make([]string, 0, len(reasons))
	for _, r := range reasons {
		list = append(list, string(r))
	}
	return apperrors.NewValidationError("you are not eligible for this scholarship").
		WithCode("INELIGIBLE").
		WithDetails(map[string]interface{}{"reasons": list})
}

// Review runs a reviewer action: begin_review, request_documents or decide.
func (s *ApplicationService) Review(ctx context.Context, actor appauth.Actor, id int64, req *dto.ReviewApplicationRequest) (*models.Application, error) {
	if err := s.authz.Authorize(actor, appauth.PermApplicationsReview); err != nil {
		return nil, err
	}

	var (
		event  domain.Event
		decide domain.Decision
	)
	switch req.Action {
	case dto.ReviewActionBegin:
		event = domain.EventBeginReview
	case dto.ReviewActionRequestDocuments:
		event = domain.EventRequestDocuments
		if strings.TrimSpace(req.Comments) == "" {
			return nil, apperrors.NewValidationError("comments must name the missing documents").
				WithDetails(map[string]interface{}{"comments": "required"})
		}
	case dto.ReviewActionDecide:
		d, err := domain.ParseDecision(req.Decision)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateDecision(d, req.Score, req.CriteriaScores, req.Comments); err != nil {
			return nil, err
		}
		decide, event = d, d.Event()
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown review action %q", req.Action))
	}

	var dispatches []*Dispatch
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		app, err := s.apps.LockByID(ctx, id)
		if err != nil {
			return hideAs(err, apperrors.ErrApplicationNotFound)
		}
		if err := checkVersion(app, req.Version); err != nil {
			return err
		}
		next, err := domain.Transition(app.Status, event)
		if err != nil {
			return err
		}
		sch, err := s.scholarships.GetByID(ctx, app.ScholarshipID)
		if err != nil {
			return err
		}

		now := s.now()
		app.Status = next
		if comments := trimmedOrNil(req.Comments); comments != nil {
			app.Comments = comments
		}
		if decide != "" {
			app.Score = req.Score
			app.CriteriaScores = req.CriteriaScores
			app.ReviewedBy = &actor.UserID
			app.ReviewedAt = &now
		}
		if decide == domain.DecisionRejected {
			app.RejectionReason = trimmedOrNil(req.RejectionReason)
			if app.RejectionReason == nil {
				app.RejectionReason = app.Comments
			}
		}
		if err := s.apps.Update(ctx, app); err != nil {
			return err
		}

		if decide == domain.DecisionApproved {
			if err := s.scholarships.IncrementRecipients(ctx, sch.ID); err != nil {
				return err
			}
			payment, err := s.payments.createForApproval(ctx, app, sch)
			if err != nil {
				return err
			}
			d, err := s.notifications.Queue(ctx, NotificationDraft{
				Type:      models.NotificationPaymentUpdate,
				Title:     "New payment to process",
				Message:   fmt.Sprintf("Payment %s of %.2f for %s is pending.", payment.ReferenceNumber, payment.Amount, sch.Name),
				Priority:  domain.PriorityMedium,
				Roles:     []models.RoleName{models.RoleFinance},
				ActionURL: paymentURL(payment.ID),
			})
			if err != nil {
				return err
			}
			dispatches = append(dispatches, d)
		}

		if draft, ok := reviewNotice(app, sch, event); ok {
			d, err := s.notifications.Queue(ctx, draft)
			if err != nil {
				return err
			}
			dispatches = append(dispatches, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("applicationID", id).
		Str("event", string(event)).
		Int64("reviewer", actor.UserID).
		Msg("Application reviewed")
	return s.afterTransition(ctx, id, event, dispatches...)
}

// reviewNotice tells the student about a reviewer action. begin_review is silent.
func reviewNotice(app *models.Application, sch *models.Scholarship, ev domain.Event) (NotificationDraft, bool) {
	d := NotificationDraft{
		Type:      models.NotificationApplicationStatus,
		UserIDs:   []int64{app.StudentID},
		ActionURL: applicationURL(app.ID),
		Email:     true,
	}
	comments := ""
	if app.Comments != nil {
		comments = " " + *app.Comments
	}
	switch ev {
	case domain.EventRequestDocuments, domain.EventReturn:
		d.Type = models.NotificationDocumentsRequested
		d.Title = "More information needed"
		d.Message = fmt.Sprintf("Your application for %s needs more information.%s", sch.Name, comments)
		d.Priority = domain.PriorityHigh
	case domain.EventApprove:
		d.Title = "Application approved"
		d.Message = fmt.Sprintf("Congratulations! Your application for %s has been approved.", sch.Name)
		d.Priority = domain.PriorityHigh
	case domain.EventReject:
		reason := ""
		if app.RejectionReason != nil {
			reason = " Reason: " + *app.RejectionReason
		}
		d.Title = "Application decision"
		d.Message = fmt.Sprintf("Your application for %s was not approved.%s", sch.Name, reason)
		d.Priority = domain.PriorityMedium
	default:
		return NotificationDraft{}, false
	}
	return d, true
}

// Resubmit returns a pending_documents application to review.
func (s *ApplicationService) Resubmit(ctx context.Context, actor appauth.Actor, id int64) (*models.Application, error) {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		app, err := s.lockOwned(ctx, actor, id)
		if err != nil {
			return err
		}
		next, err := domain.Transition(app.Status, domain.EventResubmit)
		if err != nil {
			return err
		}
		if len(app.Documents) == 0 {
			return apperrors.NewValidationError("at least one document is required").
				WithCode("INCOMPLETE_APPLICATION").
				WithDetails(map[string]interface{}{"documents": "at least one document is required"})
		}
		app.Status = next
		return s.apps.Update(ctx, app)
	})
	if err != nil {
		return nil, err
	}
	return s.afterTransition(ctx, id, domain.EventResubmit)
}

// Withdraw lets the owner pull a non-terminal application.
func (s *ApplicationService) Withdraw(ctx context.Context, actor appauth.Actor, id int64) (*models.Application, error) {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		app, err := s.lockOwned(ctx, actor, id)
		if err != nil {
			return err
		}
		next, err := domain.Transition(app.Status, domain.EventWithdraw)
		if err != nil {
			return err
		}
		app.Status = next
		return s.apps.Update(ctx, app)
	})
	if err != nil {
		return nil, err
	}
	return s.afterTransition(ctx, id, domain.EventWithdraw)
}

func (s *ApplicationService) afterTransition(ctx context.Context, id int64, ev domain.Event, dispatches ...*Dispatch) (*models.Application, error) {
	s.notifications.Publish(ctx, dispatches...)
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.RecordApplicationTransition(string(ev), string(app.Status))
	return app, nil
}

// UploadDocument validates and stores a file, then appends it to the
// application's document list.
func (s *ApplicationService) UploadDocument(ctx context.Context, actor appauth.Actor, id int64, up Upload) (*models.Document, error) {
	docType := domain.DocumentType(up.Type)
	if err := s.policy.Check(up.FileName, up.Size, docType); err != nil {
		return nil, err
	}

	var (
		doc    *models.Document
		stored string
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		app, err := s.lockOwned(ctx, actor, id)
		if err != nil {
			return err
		}
		if !app.Status.Editable() {
			return apperrors.NewConflictError(fmt.Sprintf("documents cannot be changed while the application is %s", app.Status)).
				WithCode("INVALID_TRANSITION")
		}
		stored, err = s.storage.Save(io.LimitReader(up.Body, s.policy.MaxBytes+1), fmt.Sprintf("applications/%d", app.ID), up.FileName)
		if err != nil {
			return apperrors.NewUpstreamError("could not store the document", err)
		}
		doc = &models.Document{
			ID:         uuid.NewString(),
			Type:       docType,
			FileName:   path.Base(strings.ReplaceAll(up.FileName, "\\", "/")),
			URL:        s.storage.URL(stored),
			Path:       stored,
			Size:       up.Size,
			MimeType:   up.MimeType,
			UploadedAt: s.now(),
		}
		app.Documents = append(app.Documents, *doc)
		return s.apps.Update(ctx, app)
	})
	if err != nil {
		if stored != "" {
			s.removeFile(stored)
		}
		return nil, err
	}

	s.logger.Info().
		Int64("applicationID", id).
		Str("documentID", doc.ID).
		Str("type", up.Type).
		Int64("size", up.Size).
		Msg("Document uploaded")
	return doc, nil
}

// DeleteDocument removes a document from an editable application.
func (s *ApplicationService) DeleteDocument(ctx context.Context, actor appauth.Actor, id int64, docID string) error {
	var removed models.Document
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		app, err := s.lockOwned(ctx, actor, id)
		if err != nil {
			return err
		}
		if !app.Status.Editable() {
			return apperrors.NewConflictError(fmt.Sprintf("documents cannot be changed while the application is %s", app.Status)).
				WithCode("INVALID_TRANSITION")
		}
		i := app.FindDocument(docID)
		if i < 0 {
			return apperrors.ErrDocumentNotFound
		}
		removed = app.Documents[i]
		app.Documents = append(app.Documents[:i], app.Documents[i+1:]...)
		return s.apps.Update(ctx, app)
	})
	if err != nil {
		return err
	}
	s.removeFile(removed.Path)
	return nil
}

func (s *ApplicationService) removeFile(p string) {
	if p == "" {
		return
	}
	if err := s.storage.Delete(p); err != nil {
		s.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove stored document")
	}
}

func applicationURL(id int64) *string {
	u := fmt.Sprintf("/applications/%d", id)
	return &u
}

func paymentURL(id int64) *string {
	u := fmt.Sprintf("/payments/%d", id)
	return &u
}
