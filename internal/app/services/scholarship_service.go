package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/repositories"
	"github.com/yigit/scholarhub/internal/db"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

// reminderLead is how far ahead of a deadline students are reminded. The
// window is one day wide so a daily job reminds once per scholarship.
const reminderLead = 72 * time.Hour

// ScholarshipService manages scholarships and their publication state.
type ScholarshipService struct {
	scholarships  repositories.IScholarshipRepository
	users         repositories.IUserRepository
	notifications *NotificationService
	tx            db.Transactor
	authz         *appauth.AuthorizationService
	logger        zerolog.Logger
	now           func() time.Time
}

// NewScholarshipService creates a new ScholarshipService
func NewScholarshipService(
	scholarships repositories.IScholarshipRepository,
	users repositories.IUserRepository,
	notifications *NotificationService,
	tx db.Transactor,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) *ScholarshipService {
	return &ScholarshipService{
		scholarships:  scholarships,
		users:         users,
		notifications: notifications,
		tx:            tx,
		authz:         authz,
		logger:        logger,
		now:           time.Now,
	}
}

func yearsOf(raw []string) []domain.YearOfStudy {
	out := make([]domain.YearOfStudy, 0, len(raw))
	for _, y := range raw {
		out = append(out, domain.YearOfStudy(y))
	}
	return out
}

// canSeeAll reports whether the actor may see scholarships in any status.
func (s *ScholarshipService) canSeeAll(actor appauth.Actor) bool {
	return s.authz.Can(actor, appauth.PermScholarshipsRead) || s.authz.Can(actor, appauth.PermScholarshipsManage)
}

// Create stores a new scholarship in draft status.
func (s *ScholarshipService) Create(ctx context.Context, actor appauth.Actor, req *dto.CreateScholarshipRequest) (*models.Scholarship, error) {
	if err := s.authz.Authorize(actor, appauth.PermScholarshipsManage); err != nil {
		return nil, err
	}
	sch := &models.Scholarship{
		Name:                strings.TrimSpace(req.Name),
		Description:         req.Description,
		Amount:              req.Amount,
		TotalFunding:        req.TotalFunding,
		MaxRecipients:       req.MaxRecipients,
		ApplicationDeadline: req.ApplicationDeadline,
		AwardDate:           req.AwardDate,
		AcademicYear:        req.AcademicYear,
		Department:          strings.TrimSpace(req.Department),
		MinGPA:              req.MinGPA,
		YearOfStudy:         yearsOf(req.YearOfStudy),
		Requirements:        req.Requirements,
		IsRenewable:         req.IsRenewable,
		Status:              domain.ScholarshipDraft,
		CreatedBy:           &actor.UserID,
	}
	if err := domain.ValidateScholarshipTerms(sch.Terms(), s.now(), true); err != nil {
		return nil, err
	}
	id, err := s.scholarships.Create(ctx, sch)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("scholarshipID", id).Int64("createdBy", actor.UserID).Msg("Scholarship created")
	return s.scholarships.GetByID(ctx, id)
}

// Update applies a partial change. Cancelled scholarships are frozen.
func (s *ScholarshipService) Update(ctx context.Context, actor appauth.Actor, id int64, req *dto.UpdateScholarshipRequest) (*models.Scholarship, error) {
	if err := s.authz.Authorize(actor, appauth.PermScholarshipsManage); err != nil {
		return nil, err
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sch, err := s.scholarships.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if sch.Status == domain.ScholarshipCancelled {
			return apperrors.NewConflictError("a cancelled scholarship cannot be edited").WithCode("INVALID_TRANSITION")
		}

		deadlineChanged := req.ApplicationDeadline != nil && !req.ApplicationDeadline.Equal(sch.ApplicationDeadline)
		if req.Name != nil {
			sch.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			sch.Description = *req.Description
		}
		if req.Amount != nil {
			sch.Amount = *req.Amount
		}
		if req.TotalFunding != nil {
			sch.TotalFunding = *req.TotalFunding
		}
		if req.MaxRecipients != nil {
			sch.MaxRecipients = *req.MaxRecipients
		}
		if req.ApplicationDeadline != nil {
			sch.ApplicationDeadline = *req.ApplicationDeadline
		}
		if req.AwardDate != nil {
			sch.AwardDate = req.AwardDate
		}
		if req.AcademicYear != nil {
			sch.AcademicYear = *req.AcademicYear
		}
		if req.Department != nil {
			sch.Department = strings.TrimSpace(*req.Department)
		}
		switch {
		case req.ClearMinGPA:
			sch.MinGPA = nil
		case req.MinGPA != nil:
			sch.MinGPA = req.MinGPA
		}
		if req.YearOfStudy != nil {
			sch.YearOfStudy = yearsOf(req.YearOfStudy)
		}
		if req.Requirements != nil {
			sch.Requirements = req.Requirements
		}
		if req.IsRenewable != nil {
			sch.IsRenewable = *req.IsRenewable
		}

		if err := domain.ValidateScholarshipTerms(sch.Terms(), s.now(), deadlineChanged); err != nil {
			return err
		}
		if sch.MaxRecipients < sch.CurrentRecipients {
			return apperrors.NewValidationError(fmt.Sprintf("maxRecipients cannot be lower than the %d already approved", sch.CurrentRecipients)).
				WithDetails(map[string]interface{}{"maxRecipients": sch.MaxRecipients})
		}
		return s.scholarships.Update(ctx, sch)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("scholarshipID", id).Int64("updatedBy", actor.UserID).Msg("Scholarship updated")
	return s.scholarships.GetByID(ctx, id)
}

// ChangeStatus publishes, closes, reopens or cancels a scholarship.
func (s *ScholarshipService) ChangeStatus(ctx context.Context, actor appauth.Actor, id int64, status string) (*models.Scholarship, error) {
	if err := s.authz.Authorize(actor, appauth.PermScholarshipsManage); err != nil {
		return nil, err
	}
	to := domain.ScholarshipStatus(status)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sch, err := s.scholarships.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.TransitionScholarship(sch.Status, to, sch.ApplicationDeadline, s.now()); err != nil {
			return err
		}
		return s.scholarships.UpdateStatus(ctx, id, to)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("scholarshipID", id).
		Str("status", status).
		Int64("by", actor.UserID).
		Msg("Scholarship status changed")
	return s.scholarships.GetByID(ctx, id)
}

// Delete removes a draft that never received an application.
func (s *ScholarshipService) Delete(ctx context.Context, actor appauth.Actor, id int64) error {
	if err := s.authz.Authorize(actor, appauth.PermScholarshipsManage); err != nil {
		return err
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sch, err := s.scholarships.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if sch.Status != domain.ScholarshipDraft {
			return apperrors.NewConflictError("only draft scholarships can be deleted; cancel it instead").
				WithCode("INVALID_TRANSITION")
		}
		n, err := s.scholarships.CountApplications(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.NewConflictError(fmt.Sprintf("scholarship has %d applications", n)).WithCode("HAS_APPLICATIONS")
		}
		return s.scholarships.Delete(ctx, id)
	})
}

// Get returns a scholarship. Students only see active ones.
func (s *ScholarshipService) Get(ctx context.Context, actor appauth.Actor, id int64) (*models.Scholarship, error) {
	sch, err := s.scholarships.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.canSeeAll(actor) {
		return sch, nil
	}
	if s.authz.Can(actor, appauth.PermScholarshipsActive) && sch.Status == domain.ScholarshipActive {
		return sch, nil
	}
	return nil, apperrors.ErrScholarshipNotFound
}

// List filters scholarships. Students are pinned to active ones.
func (s *ScholarshipService) List(ctx context.Context, actor appauth.Actor, filter models.ScholarshipFilter) ([]*models.Scholarship, int64, error) {
	switch {
	case s.canSeeAll(actor):
	case s.authz.Can(actor, appauth.PermScholarshipsActive):
		active := domain.ScholarshipActive
		filter.Status = &active
	default:
		return nil, 0, apperrors.NewForbiddenError("you don't have permission to view scholarships")
	}
	return s.scholarships.List(ctx, filter)
}

// Eligibility is the advisory check for the calling student. It runs the
// same predicate as submit.
func (s *ScholarshipService) Eligibility(ctx context.Context, actor appauth.Actor, id int64) (*dto.EligibilityResponse, error) {
	sch, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u.Student == nil {
		return nil, apperrors.ErrStudentProfileMissing
	}
	reasons := domain.CheckEligibility(u.Student.Profile(), sch.EligibilityTerms())
	resp := &dto.EligibilityResponse{
		ScholarshipID:         sch.ID,
		Eligible:              len(reasons) == 0,
		Reasons:               make([]string, 0, len(reasons)),
		AcceptingApplications: sch.AcceptsSubmissions(s.now()),
	}
	for _, r := range reasons {
		resp.Reasons = append(resp.Reasons, string(r))
	}
	return resp, nil
}

// CloseExpired closes every active scholarship whose deadline has passed and
// tells the reviewers.
func (s *ScholarshipService) CloseExpired(ctx context.Context) (int, error) {
	var (
		closed     []*models.Scholarship
		dispatches []*Dispatch
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		closed, err = s.scholarships.CloseExpired(ctx, s.now())
		if err != nil {
			return err
		}
		for _, sch := range closed {
			d, err := s.notifications.Queue(ctx, NotificationDraft{
				Type:     models.NotificationDeadline,
				Title:    "Scholarship closed",
				Message:  fmt.Sprintf("%s passed its application deadline and is now closed for review.", sch.Name),
				Priority: domain.PriorityMedium,
				Roles:    []models.RoleName{models.RoleCoordinator, models.RoleCommittee},
			})
			if err != nil {
				return err
			}
			dispatches = append(dispatches, d)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.notifications.Publish(ctx, dispatches...)
	for _, sch := range closed {
		s.logger.Info().Int64("scholarshipID", sch.ID).Str("name", sch.Name).Msg("Scholarship closed at deadline")
	}
	return len(closed), nil
}

// RemindClosingSoon notifies students about active scholarships whose
// deadline falls in the one-day window starting reminderLead from now.
func (s *ScholarshipService) RemindClosingSoon(ctx context.Context) (int, error) {
	from := s.now().Add(reminderLead)
	closing, err := s.scholarships.ListClosingBetween(ctx, from, from.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}
	if len(closing) == 0 {
		return 0, nil
	}

	var dispatches []*Dispatch
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, sch := range closing {
			deadline := sch.ApplicationDeadline
			d, err := s.notifications.Queue(ctx, NotificationDraft{
				Type:      models.NotificationDeadline,
				Title:     "Application deadline approaching",
				Message:   fmt.Sprintf("Applications for %s close on %s.", sch.Name, deadline.UTC().Format("2 Jan 2006 15:04 MST")),
				Priority:  domain.PriorityHigh,
				Roles:     []models.RoleName{models.RoleStudent},
				ExpiresAt: &deadline,
				ActionURL: scholarshipURL(sch.ID),
			})
			if err != nil {
				return err
			}
			dispatches = append(dispatches, d)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.notifications.Publish(ctx, dispatches...)
	return len(closing), nil
}

func scholarshipURL(id int64) *string {
	u := fmt.Sprintf("/scholarships/%d", id)
	return &u
}
