package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	appauth "github.com/yigit/scholarhub/internal/app/auth"
	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/app/models/dto"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/auth"
	"github.com/yigit/scholarhub/internal/pkg/email"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	studentUser     int64 = 10
	weakStudentUser int64 = 11
	coordinatorUser int64 = 20
	committeeUser   int64 = 21
	financeUser     int64 = 22
	adminUser       int64 = 23

	meritAward int64 = 1
)

var (
	student     = appauth.Actor{UserID: studentUser, Email: "user10@uni.edu", Role: models.RoleStudent}
	weakStudent = appauth.Actor{UserID: weakStudentUser, Email: "user11@uni.edu", Role: models.RoleStudent}
	coordinator = appauth.Actor{UserID: coordinatorUser, Email: "user20@uni.edu", Role: models.RoleCoordinator}
	committee   = appauth.Actor{UserID: committeeUser, Email: "user21@uni.edu", Role: models.RoleCommittee}
	finance     = appauth.Actor{UserID: financeUser, Email: "user22@uni.edu", Role: models.RoleFinance}
	admin       = appauth.Actor{UserID: adminUser, Email: "user23@uni.edu", Role: models.RoleAdmin}
)

// env wires every service over one in-memory store with a fixed clock.
type env struct {
	store   *store
	sender  *recordingSender
	pusher  *recordingPusher
	storage *memStorage
	verify  fakeOneTimeTokens
	resets  fakeOneTimeTokens

	mailer        *EmailDispatcher
	notifications *NotificationService
	payments      *PaymentService
	apps          *ApplicationService
	scholarships  *ScholarshipService
	users         UserService
	auth          *AuthService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s := newStore()
	logger := zerolog.Nop()
	clock := func() time.Time { return testNow }
	authz := appauth.NewAuthorizationService(fakeRoles{s})

	e := &env{
		store:   s,
		sender:  &recordingSender{},
		pusher:  &recordingPusher{},
		storage: &memStorage{},
		verify:  fakeOneTimeTokens{store: s, kind: "verify"},
		resets:  fakeOneTimeTokens{store: s, kind: "reset"},
	}
	e.mailer = NewEmailDispatcher(fakeOutbox{s}, e.sender, 3, logger)
	e.mailer.now = clock
	e.notifications = NewNotificationService(fakeNotifications{s}, fakeUsers{s}, e.mailer, e.pusher, noTx{}, authz, logger)
	e.notifications.now = clock
	e.payments = NewPaymentService(fakePayments{s}, e.notifications, noTx{}, authz, logger)
	e.payments.now = clock
	e.apps = NewApplicationService(fakeApps{s}, fakeScholarships{s}, fakeUsers{s}, e.payments, e.notifications,
		e.storage, domain.DefaultUploadPolicy, noTx{}, authz, logger)
	e.apps.now = clock
	e.scholarships = NewScholarshipService(fakeScholarships{s}, fakeUsers{s}, e.notifications, noTx{}, authz, logger)
	e.scholarships.now = clock
	e.users = NewUserService(fakeUsers{s}, fakeRoles{s}, fakeRefreshTokens{s}, noTx{}, authz, logger)

	jwt := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "scholarhub-test",
	})
	e.auth = NewAuthService(fakeUsers{s}, fakeRoles{s}, fakeRefreshTokens{s}, e.verify, e.resets, e.mailer, jwt, noTx{}, "http://localhost:3000", logger)

	e.seed()
	return e
}

func (e *env) seed() {
	s := e.store
	add := func(id int64, role models.RoleName, first string, st *models.Student) {
		u := &models.User{
			ID:            id,
			Email:         fmt.Sprintf("user%d@uni.edu", id),
			FirstName:     first,
			LastName:      "Test",
			RoleID:        s.roles[role].ID,
			Role:          role,
			IsActive:      true,
			EmailVerified: true,
		}
		if st != nil {
			st.UserID = id
			u.Student = st
		}
		s.users[id] = u
	}
	add(studentUser, models.RoleStudent, "Ada", &models.Student{StudentID: "20231234", Department: "Computer Science", YearOfStudy: domain.Year3, GPA: 3.6})
	add(weakStudentUser, models.RoleStudent, "Alan", &models.Student{StudentID: "20231235", Department: "Mathematics", YearOfStudy: domain.Year2, GPA: 3.2})
	add(coordinatorUser, models.RoleCoordinator, "Grace", nil)
	add(committeeUser, models.RoleCommittee, "Edsger", nil)
	add(financeUser, models.RoleFinance, "Barbara", nil)
	add(adminUser, models.RoleAdmin, "Ken", nil)

	minGPA := 3.5
	s.scholarships[meritAward] = &models.Scholarship{
		ID:                  meritAward,
		Name:                "Merit Award",
		Amount:              2500,
		TotalFunding:        5000,
		MaxRecipients:       2,
		ApplicationDeadline: testNow.Add(10 * 24 * time.Hour),
		AcademicYear:        "2025-2026",
		Department:          domain.DepartmentAll,
		MinGPA:              &minGPA,
		Status:              domain.ScholarshipActive,
	}
}

func (e *env) scholarship(t *testing.T, id int64) *models.Scholarship {
	t.Helper()
	sch, err := fakeScholarships{e.store}.GetByID(context.Background(), id)
	require.NoError(t, err)
	return sch
}

func (e *env) setScholarship(id int64, fn func(s *models.Scholarship)) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	fn(e.store.scholarships[id])
}

func pdf(name, body string) Upload {
	return Upload{
		Type:     string(domain.DocTranscript),
		FileName: name,
		Size:     int64(len(body)),
		MimeType: "application/pdf",
		Body:     strings.NewReader(body),
	}
}

// draft creates a complete draft with one uploaded document.
func (e *env) draft(t *testing.T, actor appauth.Actor) *models.Application {
	t.Helper()
	ctx := context.Background()
	app, err := e.apps.Create(ctx, actor, &dto.CreateApplicationRequest{
		ScholarshipID: meritAward,
		PersonalInfo:  map[string]interface{}{"address": "1 Campus Road"},
		AcademicInfo:  map[string]interface{}{"gpa": 3.6},
		Essays:        map[string]interface{}{"motivation": "I love compilers."},
	})
	require.NoError(t, err)
	_, err = e.apps.UploadDocument(ctx, actor, app.ID, pdf("transcript.pdf", "%PDF-1.7 transcript"))
	require.NoError(t, err)
	return app
}

func (e *env) submitted(t *testing.T) *models.Application {
	t.Helper()
	app := e.draft(t, student)
	app, err := e.apps.Submit(context.Background(), student, app.ID)
	require.NoError(t, err)
	return app
}

func (e *env) underReview(t *testing.T) *models.Application {
	t.Helper()
	app := e.submitted(t)
	app, err := e.apps.Review(context.Background(), committee, app.ID, &dto.ReviewApplicationRequest{Action: dto.ReviewActionBegin})
	require.NoError(t, err)
	return app
}

func (e *env) approved(t *testing.T) *models.Application {
	t.Helper()
	app := e.underReview(t)
	app, err := e.apps.Review(context.Background(), committee, app.ID, approve(88))
	require.NoError(t, err)
	return app
}

func approve(score float64) *dto.ReviewApplicationRequest {
	return &dto.ReviewApplicationRequest{
		Action:   dto.ReviewActionDecide,
		Decision: string(domain.DecisionApproved),
		Score:    &score,
		Comments: "Strong academic record",
	}
}

func errCode(err error) string {
	if ce, ok := apperrors.As(err); ok {
		return ce.Code
	}
	return ""
}

func subjects(msgs []email.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Subject)
	}
	return out
}
