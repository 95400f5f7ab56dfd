package services

import (
	"context"
	"errors"
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
	"github.com/yigit/scholarhub/internal/pkg/auth"
	"github.com/yigit/scholarhub/internal/pkg/email"
	"github.com/yigit/scholarhub/internal/pkg/validation"
)

const (
	verificationTokenTTL  = 24 * time.Hour
	passwordResetTokenTTL = time.Hour
)

// AuthService handles authentication operations
type AuthService struct {
	users      repositories.IUserRepository
	roles      repositories.IRoleRepository
	refresh    repositories.ITokenRepository
	verify     repositories.IOneTimeTokenRepository
	resets     repositories.IOneTimeTokenRepository
	mailer     *EmailDispatcher
	jwtService *auth.JWTService
	tx         db.Transactor
	baseURL    string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repositories.IUserRepository,
	roles repositories.IRoleRepository,
	refresh repositories.ITokenRepository,
	verify repositories.IOneTimeTokenRepository,
	resets repositories.IOneTimeTokenRepository,
	mailer *EmailDispatcher,
	jwtService *auth.JWTService,
	tx db.Transactor,
	baseURL string,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		roles:      roles,
		refresh:    refresh,
		verify:     verify,
		resets:     resets,
		mailer:     mailer,
		jwtService: jwtService,
		tx:         tx,
		baseURL:    baseURL,
		logger:     logger,
		now:        time.Now,
	}
}

func checkPassword(field, password string) error {
	if problem := validation.PasswordProblem(password); problem != "" {
		return apperrors.NewValidationError(problem).WithDetails(map[string]interface{}{field: problem})
	}
	return nil
}

// Register creates a student account with its academic profile and sends
// the verification email.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterStudentRequest) (*dto.AuthResponse, error) {
	if err := checkPassword("password", req.Password); err != nil {
		return nil, err
	}
	student := &models.Student{
		StudentID:      strings.TrimSpace(req.StudentID),
		Department:     strings.TrimSpace(req.Department),
		Major:          strings.TrimSpace(req.Major),
		YearOfStudy:    domain.YearOfStudy(req.YearOfStudy),
		GPA:            req.GPA,
		EnrollmentDate: req.EnrollmentDate,
	}
	if err := domain.ValidateStudentProfile(student.Profile()); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	u := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     req.Phone,
		Role:      models.RoleStudent,
		IsActive:  true,
	}

	var (
		resp      *dto.AuthResponse
		mailQueue []int64
	)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := createAccount(ctx, s.users, s.roles, u, student); err != nil {
			return err
		}
		id, err := s.queueVerification(ctx, u)
		if err != nil {
			return err
		}
		mailQueue = append(mailQueue, id)
		resp, err = s.issueTokens(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.mailer.Send(background(ctx), mailQueue)
	s.logger.Info().Int64("userID", u.ID).Str("email", u.Email).Msg("Student registered")
	return resp, nil
}

func (s *AuthService) queueVerification(ctx context.Context, u *models.User) (int64, error) {
	token, err := auth.GenerateOpaqueToken()
	if err != nil {
		return 0, fmt.Errorf("error generating verification token: %w", err)
	}
	if err := s.verify.CreateToken(ctx, u.ID, token, s.now().Add(verificationTokenTTL)); err != nil {
		return 0, err
	}
	userID := u.ID
	return s.mailer.Queue(ctx, &userID, nil, email.VerificationMessage(s.baseURL, u.Email, u.FullName(), token))
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.Password, req.Password) {
		s.logger.Warn().Int64("userID", u.ID).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userID", u.ID).Msg("Could not record last login")
	}
	u.LastLoginAt = &now
	return s.issueTokens(ctx, u)
}

// RefreshToken rotates a refresh token: the old one is revoked and a new
// pair is issued.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	var resp *dto.AuthResponse
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		userID, expiry, revoked, err := s.refresh.GetTokenByValue(ctx, refreshToken)
		if err != nil {
			return err
		}
		if revoked {
			return apperrors.ErrTokenRevoked
		}
		if !expiry.After(s.now()) {
			return apperrors.ErrTokenExpired
		}
		u, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if !u.IsActive {
			return apperrors.ErrAccountDisabled
		}
		if err := s.refresh.RevokeToken(ctx, refreshToken); err != nil {
			return fmt.Errorf("failed to revoke old token: %w", err)
		}
		resp, err = s.issueTokens(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout revokes one refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.refresh.RevokeToken(ctx, strings.TrimSpace(refreshToken))
	if errors.Is(err, apperrors.ErrTokenNotFound) {
		return nil
	}
	return err
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		userID, err := s.verify.ConsumeToken(ctx, strings.TrimSpace(token), s.now())
		if err != nil {
			if errors.Is(err, apperrors.ErrTokenInvalid) {
				return apperrors.NewBadRequestError(apperrors.ErrInvalidEmailToken.Error()).WithCode("INVALID_TOKEN")
			}
			return err
		}
		return s.users.MarkEmailVerified(ctx, userID)
	})
}

// ResendVerification sends a fresh link. It succeeds silently for unknown or
// already verified addresses.
func (s *AuthService) ResendVerification(ctx context.Context, address string) error {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(address))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if u.EmailVerified || !u.IsActive {
		return nil
	}

	var id int64
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.verify.InvalidateUserTokens(ctx, u.ID); err != nil {
			return err
		}
		var err error
		id, err = s.queueVerification(ctx, u)
		return err
	})
	if err != nil {
		return err
	}
	s.mailer.Send(background(ctx), []int64{id})
	return nil
}

// ForgotPassword mails a reset link. Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, address string) error {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(address))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !u.IsActive {
		return nil
	}

	var id int64
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.resets.InvalidateUserTokens(ctx, u.ID); err != nil {
			return err
		}
		token, err := auth.GenerateOpaqueToken()
		if err != nil {
			return fmt.Errorf("error generating reset token: %w", err)
		}
		if err := s.resets.CreateToken(ctx, u.ID, token, s.now().Add(passwordResetTokenTTL)); err != nil {
			return err
		}
		userID := u.ID
		id, err = s.mailer.Queue(ctx, &userID, nil, email.PasswordResetMessage(s.baseURL, u.Email, u.FullName(), token))
		return err
	})
	if err != nil {
		return err
	}
	s.mailer.Send(background(ctx), []int64{id})
	s.logger.Info().Int64("userID", u.ID).Msg("Password reset requested")
	return nil
}

// ResetPassword sets a new password from a reset token and signs the user
// out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if err := checkPassword("newPassword", req.NewPassword); err != nil {
		return err
	}
	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		userID, err := s.resets.ConsumeToken(ctx, strings.TrimSpace(req.Token), s.now())
		if err != nil {
			if errors.Is(err, apperrors.ErrTokenInvalid) {
				return apperrors.NewBadRequestError(apperrors.ErrInvalidPasswordResetToken.Error()).WithCode("INVALID_TOKEN")
			}
			return err
		}
		if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
			return err
		}
		return s.refresh.RevokeAllUserTokens(ctx, userID)
	})
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, actor appauth.Actor) (*models.User, error) {
	return s.users.GetUserByID(ctx, actor.UserID)
}

// UpdateProfile edits the caller's own name and phone.
func (s *AuthService) UpdateProfile(ctx context.Context, actor appauth.Actor, req *dto.UpdateProfileRequest) (*models.User, error) {
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return nil, apperrors.NewValidationError("first and last name are required")
	}
	if err := s.users.UpdateProfile(ctx, actor.UserID, first, last, req.Phone); err != nil {
		return nil, err
	}
	return s.users.GetUserByID(ctx, actor.UserID)
}

// ChangePassword replaces the caller's password after checking the current
// one, and revokes every refresh token.
func (s *AuthService) ChangePassword(ctx context.Context, actor appauth.Actor, req *dto.ChangePasswordRequest) error {
	u, err := s.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.Password, req.CurrentPassword) {
		return apperrors.NewValidationError("current password is incorrect").
			WithDetails(map[string]interface{}{"currentPassword": "incorrect"})
	}
	if err := checkPassword("newPassword", req.NewPassword); err != nil {
		return err
	}
	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, u.ID, hashed); err != nil {
			return err
		}
		return s.refresh.RevokeAllUserTokens(ctx, u.ID)
	})
}

// issueTokens creates and stores a token pair for u.
func (s *AuthService) issueTokens(ctx context.Context, u *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}
	if err := s.refresh.CreateToken(ctx, pair.RefreshToken, u.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             int64(pair.ExpiresIn),
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
		},
		User: dto.FromUser(u),
	}, nil
}
