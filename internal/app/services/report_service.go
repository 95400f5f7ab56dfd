package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/app/repositories"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
)

// ReportService builds dashboards. A failing aggregate degrades to an empty
// section instead of failing the whole report.
type ReportService struct {
	reports repositories.IReportRepository
	authz   *appauth.AuthorizationService
	logger  zerolog.Logger
}

// NewReportService creates a new ReportService
func NewReportService(reports repositories.IReportRepository, authz *appauth.AuthorizationService, logger zerolog.Logger) *ReportService {
	return &ReportService{reports: reports, authz: authz, logger: logger}
}

func (s *ReportService) counts(ctx context.Context, name string, query func(context.Context) ([]models.StatusAggregate, error)) map[string]int64 {
	out := make(map[string]int64)
	rows, err := query(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("section", name).Msg("Report section failed")
		return out
	}
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out
}

func (s *ReportService) paymentTotals(ctx context.Context) dto.PaymentTotals {
	totals := dto.PaymentTotals{
		CountByStatus:  make(map[string]int64),
		AmountByStatus: make(map[string]float64),
	}
	rows, err := s.reports.PaymentsByStatus(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("section", "payments").Msg("Report section failed")
		return totals
	}
	for _, r := range rows {
		totals.CountByStatus[r.Status] = r.Count
		totals.AmountByStatus[r.Status] = r.Amount
	}
	return totals
}

// Analytics is the admin overview.
func (s *ReportService) Analytics(ctx context.Context, actor appauth.Actor) (*dto.AnalyticsResponse, error) {
	if err := s.authz.Authorize(actor, appauth.PermAnalyticsRead); err != nil {
		return nil, err
	}
	return &dto.AnalyticsResponse{
		ApplicationsByStatus: s.counts(ctx, "applications", s.reports.ApplicationsByStatus),
		ScholarshipsByStatus: s.counts(ctx, "scholarships", s.reports.ScholarshipsByStatus),
		UsersByRole:          s.counts(ctx, "users", s.reports.UsersByRole),
		Payments:             s.paymentTotals(ctx),
	}, nil
}

// Financial is the finance dashboard.
func (s *ReportService) Financial(ctx context.Context, actor appauth.Actor) (*dto.FinancialReportResponse, error) {
	if err := s.authz.Authorize(actor, appauth.PermReportsFinancial); err != nil {
		return nil, err
	}
	resp := &dto.FinancialReportResponse{
		Totals:        s.paymentTotals(ctx),
		ByScholarship: []dto.ScholarshipDisbursement{},
	}
	resp.TotalDisbursed = resp.Totals.AmountByStatus[string(domain.PaymentCompleted)]
	for _, st := range []domain.PaymentStatus{domain.PaymentPending, domain.PaymentProcessing, domain.PaymentFailed} {
		resp.TotalPending += resp.Totals.AmountByStatus[string(st)]
	}

	payouts, err := s.reports.PayoutsByScholarship(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("section", "payouts").Msg("Report section failed")
		return resp, nil
	}
	for _, p := range payouts {
		resp.ByScholarship = append(resp.ByScholarship, dto.ScholarshipDisbursement{
			ScholarshipID: p.ScholarshipID,
			Name:          p.Name,
			Disbursed:     p.Disbursed,
			Outstanding:   p.Outstanding,
			Recipients:    p.Recipients,
		})
	}
	return resp, nil
}

// Statuses is the presentation table shared by every client.
func (s *ReportService) Statuses() domain.PresentationTable {
	return domain.Presentations()
}

// SettingService reads and writes admin settings.
type SettingService struct {
	settings repositories.ISettingRepository
	authz    *appauth.AuthorizationService
	logger   zerolog.Logger
}

// NewSettingService creates a new SettingService
func NewSettingService(settings repositories.ISettingRepository, authz *appauth.AuthorizationService, logger zerolog.Logger) *SettingService {
	return &SettingService{settings: settings, authz: authz, logger: logger}
}

// List returns every setting.
func (s *SettingService) List(ctx context.Context, actor appauth.Actor) ([]*models.SystemSetting, error) {
	if err := s.authz.Authorize(actor, appauth.PermSettingsManage); err != nil {
		return nil, err
	}
	return s.settings.List(ctx)
}

// Put stores a setting under key.
func (s *SettingService) Put(ctx context.Context, actor appauth.Actor, key string, req *dto.UpdateSettingRequest) (*models.SystemSetting, error) {
	if err := s.authz.Authorize(actor, appauth.PermSettingsManage); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 100 {
		return nil, apperrors.NewValidationError("setting key must be 1 to 100 characters")
	}
	if !json.Valid(req.Value) {
		return nil, apperrors.NewValidationError("setting value must be valid JSON").
			WithDetails(map[string]interface{}{"value": "invalid JSON"})
	}
	setting := &models.SystemSetting{
		Key:         key,
		Value:       req.Value,
		Description: req.Description,
		UpdatedBy:   &actor.UserID,
	}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	s.logger.Info().Str("key", key).Int64("by", actor.UserID).Msg("Setting updated")
	return setting, nil
}
