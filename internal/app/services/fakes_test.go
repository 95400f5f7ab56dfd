package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yigit/scholarhub/internal/app/models"
	"github.com/yigit/scholarhub/internal/domain"
	"github.com/yigit/scholarhub/internal/pkg/apperrors"
	"github.com/yigit/scholarhub/internal/pkg/email"
	"github.com/yigit/scholarhub/internal/pkg/websocket"
)

// store is the in-memory database behind every fake repository.
type store struct {
	mu sync.Mutex

	nextID        int64
	roles         map[models.RoleName]*models.Role
	users         map[int64]*models.User
	scholarships  map[int64]*models.Scholarship
	apps          map[int64]*models.Application
	payments      map[int64]*models.Payment
	notifications map[int64]*models.Notification
	recipients    map[int64]map[int64]*time.Time
	outbox        map[int64]*models.EmailDelivery
	refresh       map[string]*models.RefreshToken
	oneTime       map[string]map[string]*models.OneTimeToken
}

func newStore() *store {
	s := &store{
		nextID:        100,
		roles:         make(map[models.RoleName]*models.Role),
		users:         make(map[int64]*models.User),
		scholarships:  make(map[int64]*models.Scholarship),
		apps:          make(map[int64]*models.Application),
		payments:      make(map[int64]*models.Payment),
		notifications: make(map[int64]*models.Notification),
		recipients:    make(map[int64]map[int64]*time.Time),
		outbox:        make(map[int64]*models.EmailDelivery),
		refresh:       make(map[string]*models.RefreshToken),
		oneTime:       make(map[string]map[string]*models.OneTimeToken),
	}
	for i, name := range []models.RoleName{models.RoleStudent, models.RoleCoordinator, models.RoleCommittee, models.RoleFinance, models.RoleAdmin} {
		s.roles[name] = &models.Role{ID: int64(i + 1), Name: name, IsActive: true}
	}
	return s
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

// noTx runs fn without a real transaction.
type noTx struct{}

func (noTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---- roles

type fakeRoles struct{ *store }

func (f fakeRoles) List(context.Context) ([]*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Role, 0, len(f.roles))
	for _, r := range f.roles {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeRoles) GetByName(_ context.Context, name models.RoleName) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[name]
	if !ok {
		return nil, apperrors.ErrRoleNotFound
	}
	c := *r
	return &c, nil
}

// ---- users

type fakeUsers struct{ *store }

func copyUser(u *models.User) *models.User {
	c := *u
	if u.Student != nil {
		st := *u.Student
		c.Student = &st
	}
	return &c
}

func (f fakeUsers) CreateUser(_ context.Context, u *models.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == strings.ToLower(u.Email) {
			return 0, apperrors.ErrEmailAlreadyExists
		}
	}
	c := copyUser(u)
	c.ID = f.id()
	c.Email = strings.ToLower(u.Email)
	for _, r := range f.roles {
		if r.ID == u.RoleID {
			c.Role = r.Name
		}
	}
	f.users[c.ID] = c
	return c.ID, nil
}

func (f fakeUsers) CreateStudent(_ context.Context, st *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[st.UserID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	c := *st
	c.ID = f.id()
	u.Student = &c
	return nil
}

func (f fakeUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (f fakeUsers) GetUserByEmail(_ context.Context, address string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(address) {
			return copyUser(u), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f fakeUsers) EmailExists(ctx context.Context, address string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, address)
	return err == nil, nil
}

func (f fakeUsers) StudentIDExists(_ context.Context, studentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Student != nil && u.Student.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) ListUsers(_ context.Context, filter models.UserFilter) ([]*models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f fakeUsers) ListActiveByRoles(_ context.Context, roles []models.RoleName) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		if !u.IsActive {
			continue
		}
		for _, r := range roles {
			if u.Role == r {
				out = append(out, copyUser(u))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeUsers) ListActiveByIDs(_ context.Context, ids []int64) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok && u.IsActive {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (f fakeUsers) update(id int64, fn func(u *models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (f fakeUsers) UpdateRole(_ context.Context, userID, roleID int64) error {
	var name models.RoleName
	for _, r := range f.roles {
		if r.ID == roleID {
			name = r.Name
		}
	}
	return f.update(userID, func(u *models.User) { u.RoleID, u.Role = roleID, name })
}

func (f fakeUsers) SetActive(_ context.Context, userID int64, active bool) error {
	return f.update(userID, func(u *models.User) { u.IsActive = active })
}

func (f fakeUsers) UpdateProfile(_ context.Context, userID int64, first, last string, phone *string) error {
	return f.update(userID, func(u *models.User) { u.FirstName, u.LastName, u.Phone = first, last, phone })
}

func (f fakeUsers) UpdatePassword(_ context.Context, userID int64, hashed string) error {
	return f.update(userID, func(u *models.User) { u.Password = hashed })
}

func (f fakeUsers) MarkEmailVerified(_ context.Context, userID int64) error {
	return f.update(userID, func(u *models.User) { u.EmailVerified = true })
}

func (f fakeUsers) UpdateLastLogin(_ context.Context, userID int64, at time.Time) error {
	return f.update(userID, func(u *models.User) { u.LastLoginAt = &at })
}

func (f fakeUsers) UpdateStudentProfile(_ context.Context, st *models.Student) error {
	return f.update(st.UserID, func(u *models.User) {
		c := *st
		u.Student = &c
	})
}

// ---- scholarships

type fakeScholarships struct{ *store }

func copyScholarship(s *models.Scholarship) *models.Scholarship {
	c := *s
	c.YearOfStudy = append([]domain.YearOfStudy(nil), s.YearOfStudy...)
	c.Requirements = append([]string(nil), s.Requirements...)
	return &c
}

func (f fakeScholarships) Create(_ context.Context, s *models.Scholarship) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := copyScholarship(s)
	c.ID = f.id()
	f.scholarships[c.ID] = c
	return c.ID, nil
}

func (f fakeScholarships) GetByID(_ context.Context, id int64) (*models.Scholarship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scholarships[id]
	if !ok {
		return nil, apperrors.ErrScholarshipNotFound
	}
	return copyScholarship(s), nil
}

func (f fakeScholarships) LockByID(ctx context.Context, id int64) (*models.Scholarship, error) {
	return f.GetByID(ctx, id)
}

func (f fakeScholarships) Update(_ context.Context, s *models.Scholarship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scholarships[s.ID]; !ok {
		return apperrors.ErrScholarshipNotFound
	}
	f.scholarships[s.ID] = copyScholarship(s)
	return nil
}

func (f fakeScholarships) UpdateStatus(_ context.Context, id int64, status domain.ScholarshipStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scholarships[id]
	if !ok {
		return apperrors.ErrScholarshipNotFound
	}
	s.Status = status
	return nil
}

func (f fakeScholarships) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scholarships, id)
	return nil
}

func (f fakeScholarships) List(_ context.Context, filter models.ScholarshipFilter) ([]*models.Scholarship, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Scholarship
	for _, s := range f.scholarships {
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		out = append(out, copyScholarship(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f fakeScholarships) IncrementRecipients(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scholarships[id]
	if !ok {
		return apperrors.ErrScholarshipNotFound
	}
	if s.CurrentRecipients >= s.MaxRecipients {
		return apperrors.ErrRecipientCapReached
	}
	s.CurrentRecipients++
	return nil
}

func (f fakeScholarships) CountApplications(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.apps {
		if a.ScholarshipID == id {
			n++
		}
	}
	return n, nil
}

func (f fakeScholarships) CloseExpired(_ context.Context, now time.Time) ([]*models.Scholarship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Scholarship
	for _, s := range f.scholarships {
		if s.Status == domain.ScholarshipActive && !now.Before(s.ApplicationDeadline) {
			s.Status = domain.ScholarshipClosed
			out = append(out, copyScholarship(s))
		}
	}
	return out, nil
}

func (f fakeScholarships) ListClosingBetween(_ context.Context, from, to time.Time) ([]*models.Scholarship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Scholarship
	for _, s := range f.scholarships {
		if s.Status == domain.ScholarshipActive && !s.ApplicationDeadline.Before(from) && s.ApplicationDeadline.Before(to) {
			out = append(out, copyScholarship(s))
		}
	}
	return out, nil
}

// ---- applications

type fakeApps struct{ *store }

func copyApp(a *models.Application) *models.Application {
	c := *a
	c.Documents = append([]models.Document(nil), a.Documents...)
	return &c
}

func (f fakeApps) Create(_ context.Context, a *models.Application) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.apps {
		if existing.StudentID == a.StudentID && existing.ScholarshipID == a.ScholarshipID && existing.Status != domain.StatusWithdrawn {
			return 0, apperrors.ErrDuplicateApplication
		}
	}
	c := copyApp(a)
	c.ID = f.id()
	c.Version = 1
	f.apps[c.ID] = c
	return c.ID, nil
}

func (f fakeApps) GetByID(_ context.Context, id int64) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return nil, apperrors.ErrApplicationNotFound
	}
	c := copyApp(a)
	if s, ok := f.scholarships[a.ScholarshipID]; ok {
		c.ScholarshipName = s.Name
		deadline := s.ApplicationDeadline
		c.ScholarshipDeadline = &deadline
	}
	return c, nil
}

func (f fakeApps) LockByID(ctx context.Context, id int64) (*models.Application, error) {
	return f.GetByID(ctx, id)
}

func (f fakeApps) Update(_ context.Context, a *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.apps[a.ID]
	if !ok {
		return apperrors.ErrApplicationNotFound
	}
	if stored.Version != a.Version {
		return apperrors.ErrStaleVersion
	}
	c := copyApp(a)
	c.Version++
	a.Version = c.Version
	f.apps[a.ID] = c
	return nil
}

func (f fakeApps) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.apps[id]; !ok {
		return apperrors.ErrApplicationNotFound
	}
	delete(f.apps, id)
	return nil
}

func (f fakeApps) List(_ context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Application
	for _, a := range f.apps {
		if filter.StudentID != nil && a.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		out = append(out, copyApp(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f fakeApps) ExistsActive(_ context.Context, studentID, scholarshipID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.StudentID == studentID && a.ScholarshipID == scholarshipID && a.Status != domain.StatusWithdrawn {
			return true, nil
		}
	}
	return false, nil
}

// ---- payments

type fakePayments struct{ *store }

func (f fakePayments) Create(_ context.Context, p *models.Payment) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.payments {
		if existing.ApplicationID == p.ApplicationID {
			return 0, apperrors.NewConflictError("application already has a payment")
		}
	}
	p.ID = f.id()
	c := *p
	f.payments[p.ID] = &c
	return p.ID, nil
}

func (f fakePayments) GetByID(_ context.Context, id int64) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, apperrors.ErrPaymentNotFound
	}
	c := *p
	return &c, nil
}

func (f fakePayments) LockByID(ctx context.Context, id int64) (*models.Payment, error) {
	return f.GetByID(ctx, id)
}

func (f fakePayments) GetByApplicationID(_ context.Context, applicationID int64) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.ApplicationID == applicationID {
			c := *p
			return &c, nil
		}
	}
	return nil, apperrors.ErrPaymentNotFound
}

func (f fakePayments) Update(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[p.ID]; !ok {
		return apperrors.ErrPaymentNotFound
	}
	c := *p
	f.payments[p.ID] = &c
	return nil
}

func (f fakePayments) List(_ context.Context, filter models.PaymentFilter) ([]*models.Payment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Payment
	for _, p := range f.payments {
		if filter.StudentID != nil && p.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// ---- notifications

type fakeNotifications struct{ *store }

func (f fakeNotifications) Create(_ context.Context, n *models.Notification) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *n
	c.ID = f.id()
	f.notifications[c.ID] = &c
	return c.ID, nil
}

func (f fakeNotifications) AddRecipients(_ context.Context, id int64, userIDs []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recipients[id] == nil {
		f.recipients[id] = make(map[int64]*time.Time)
	}
	for _, u := range userIDs {
		f.recipients[id][u] = nil
	}
	return int64(len(userIDs)), nil
}

func (f fakeNotifications) SetSentCount(_ context.Context, id int64, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[id].SentCount = count
	return nil
}

func (f fakeNotifications) GetByID(_ context.Context, id int64) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok {
		return nil, apperrors.ErrNotificationNotFound
	}
	c := *n
	return &c, nil
}

func (f fakeNotifications) forUser(userID int64, now time.Time) []*models.Notification {
	var out []*models.Notification
	for id, recips := range f.recipients {
		readAt, ok := recips[userID]
		if !ok {
			continue
		}
		n := f.notifications[id]
		if n.ExpiresAt != nil && !n.ExpiresAt.After(now) {
			continue
		}
		c := *n
		c.ReadAt = readAt
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f fakeNotifications) ListForUser(_ context.Context, userID int64, now time.Time, _, _ int) ([]*models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.forUser(userID, now)
	return out, int64(len(out)), nil
}

func (f fakeNotifications) CountUnread(_ context.Context, userID int64, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, item := range f.forUser(userID, now) {
		if item.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (f fakeNotifications) MarkRead(_ context.Context, notificationID, userID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	recips, ok := f.recipients[notificationID]
	if !ok {
		return apperrors.ErrNotificationNotFound
	}
	if _, ok := recips[userID]; !ok {
		return apperrors.ErrNotificationNotFound
	}
	if recips[userID] == nil {
		recips[userID] = &at
	}
	return nil
}

func (f fakeNotifications) MarkAllRead(_ context.Context, userID int64, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, recips := range f.recipients {
		if readAt, ok := recips[userID]; ok && readAt == nil {
			recips[userID] = &at
			n++
		}
	}
	return n, nil
}

func (f fakeNotifications) List(_ context.Context, _, _ int) ([]*models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.notifications {
		c := *n
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (f fakeNotifications) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notifications[id]; !ok {
		return apperrors.ErrNotificationNotFound
	}
	delete(f.notifications, id)
	delete(f.recipients, id)
	return nil
}

// byType returns the notifications of one type in creation order.
func (s *store) byType(t models.NotificationType) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.Type == t {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- email outbox

type fakeOutbox struct{ *store }

func (f fakeOutbox) Enqueue(_ context.Context, d *models.EmailDelivery) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *d
	c.ID = f.id()
	f.outbox[c.ID] = &c
	return c.ID, nil
}

func (f fakeOutbox) ListByIDs(_ context.Context, ids []int64) ([]*models.EmailDelivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EmailDelivery
	for _, id := range ids {
		if d, ok := f.outbox[id]; ok {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f fakeOutbox) ListDue(_ context.Context, now time.Time, maxAttempts, limit int) ([]*models.EmailDelivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EmailDelivery
	for _, d := range f.outbox {
		if d.Status == models.EmailSent || d.Attempts >= maxAttempts || d.NextAttemptAt.After(now) {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeOutbox) MarkSent(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.outbox[id]
	d.Status = models.EmailSent
	d.Attempts++
	d.SentAt = &at
	return nil
}

func (f fakeOutbox) MarkFailed(_ context.Context, id int64, reason string, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.outbox[id]
	d.Status = models.EmailFailed
	d.Attempts++
	d.LastError = &reason
	d.NextAttemptAt = next
	return nil
}

// ---- tokens

type fakeRefreshTokens struct{ *store }

func (f fakeRefreshTokens) CreateToken(_ context.Context, token string, userID int64, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[token] = &models.RefreshToken{Token: token, UserID: userID, ExpiryDate: expiry}
	return nil
}

func (f fakeRefreshTokens) GetTokenByValue(_ context.Context, token string) (int64, time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[token]
	if !ok {
		return 0, time.Time{}, false, apperrors.ErrTokenNotFound
	}
	return t.UserID, t.ExpiryDate, t.IsRevoked, nil
}

func (f fakeRefreshTokens) RevokeToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.IsRevoked = true
	return nil
}

func (f fakeRefreshTokens) RevokeAllUserTokens(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.refresh {
		if t.UserID == userID {
			t.IsRevoked = true
		}
	}
	return nil
}

func (f fakeRefreshTokens) CleanupExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, t := range f.refresh {
		if t.ExpiryDate.Before(now) {
			delete(f.refresh, k)
			n++
		}
	}
	return n, nil
}

type fakeOneTimeTokens struct {
	*store
	kind string
}

func (f fakeOneTimeTokens) table() map[string]*models.OneTimeToken {
	if f.oneTime[f.kind] == nil {
		f.oneTime[f.kind] = make(map[string]*models.OneTimeToken)
	}
	return f.oneTime[f.kind]
}

func (f fakeOneTimeTokens) CreateToken(_ context.Context, userID int64, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table()[token] = &models.OneTimeToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (f fakeOneTimeTokens) ConsumeToken(_ context.Context, token string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.table()[token]
	if !ok || t.UsedAt != nil || !t.ExpiresAt.After(now) {
		return 0, apperrors.ErrTokenInvalid
	}
	t.UsedAt = &now
	return t.UserID, nil
}

func (f fakeOneTimeTokens) InvalidateUserTokens(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, t := range f.table() {
		if t.UserID == userID && t.UsedAt == nil {
			t.UsedAt = &now
		}
	}
	return nil
}

// latest returns the newest unused token of userID.
func (f fakeOneTimeTokens) latest(userID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, t := range f.table() {
		if t.UserID == userID && t.UsedAt == nil {
			return token
		}
	}
	return ""
}

// ---- side effects

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
	fail error
}

func (r *recordingSender) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) to(address string) []email.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []email.Message
	for _, m := range r.sent {
		if m.To == address {
			out = append(out, m)
		}
	}
	return out
}

type recordingPusher struct {
	mu     sync.Mutex
	frames map[int64][]*websocket.Message
}

func (p *recordingPusher) SendToUsers(userIDs []int64, msg *websocket.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frames == nil {
		p.frames = make(map[int64][]*websocket.Message)
	}
	for _, id := range userIDs {
		p.frames[id] = append(p.frames[id], msg)
	}
}

func (p *recordingPusher) count(userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames[userID])
}

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  error
}

func (m *memStorage) Save(r io.Reader, subPath, originalName string) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	p := fmt.Sprintf("%s/%d-%s", subPath, len(m.files)+1, originalName)
	m.files[p] = buf.Bytes()
	return p, nil
}

func (m *memStorage) Delete(relPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, relPath)
	return nil
}

func (m *memStorage) URL(relPath string) string {
	return "/uploads/" + relPath
}

func (m *memStorage) has(relPath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[relPath]
	return ok
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type failingReports struct{}

var errReportDown = errors.New("report query failed")

func (failingReports) ApplicationsByStatus(context.Context) ([]models.StatusAggregate, error) {
	return nil, errReportDown
}

func (failingReports) ScholarshipsByStatus(context.Context) ([]models.StatusAggregate, error) {
	return []models.StatusAggregate{{Status: "active", Count: 2}}, nil
}

func (failingReports) UsersByRole(context.Context) ([]models.StatusAggregate, error) {
	return nil, errReportDown
}

func (failingReports) PaymentsByStatus(context.Context) ([]models.StatusAggregate, error) {
	return []models.StatusAggregate{
		{Status: "completed", Count: 1, Amount: 2500},
		{Status: "pending", Count: 2, Amount: 5000},
	}, nil
}

func (failingReports) PayoutsByScholarship(context.Context) ([]models.ScholarshipPayout, error) {
	return nil, errReportDown
}
