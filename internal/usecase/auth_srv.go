package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"cinebook/internal/data/entity"
	"cinebook/internal/data/repository"
	"cinebook/internal/dto/request"
	"cinebook/internal/dto/response"
	"cinebook/internal/notification"
	"cinebook/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientInfo describes where a login came from.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest, client ClientInfo) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest, client ClientInfo) (*response.AuthResponse, error)
	Logout(ctx context.Context, sessionToken uuid.UUID) error
	SendOTP(ctx context.Context, req *request.SendOTPRequest) error
	VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error

	// EnsureAdmin creates the bootstrap admin once; later calls are no-ops.
	EnsureAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	repo     *repository.Repository
	config   *utils.Config
	notifier notification.Notifier
	now      func() time.Time
	log      *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	notifier notification.Notifier,
	now func() time.Time,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:     repo,
		config:   config,
		notifier: notifier,
		now:      now,
		log:      log.With(zap.String("service", "auth")),
	}
}

var errInvalidCredentials = utils.NewError(utils.ErrUnauthorized, "Invalid credentials")

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest, client ClientInfo) (*response.AuthResponse, error) {
	// 1. Validate
	if err := validate(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 2. Email and username must be free
	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.NewError(utils.ErrDuplicate, "Email already exists")
	}
	existing, err = s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.NewError(utils.ErrDuplicate, "Username already taken")
	}

	// 3. Hash and store
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Base:         entity.NewBase(now),
		Username:     req.Username,
		Email:        email,
		PasswordHash: hashed,
		Phone:        req.Phone,
		Role:         entity.RoleCustomer,
		IsActive:     true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.NewError(utils.ErrDuplicate, "Email already exists")
		}
		return nil, err
	}

	// 4. Verification code; a failure here does not undo the account
	if err := s.issueOTP(ctx, user, entity.OTPTypeEmailVerification); err != nil {
		s.log.Warn("Failed to issue verification code", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)

	// 5. Auto login
	return s.startSession(ctx, user, client)
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest, client ClientInfo) (*response.AuthResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	identifier := strings.TrimSpace(req.Username)
	var (
		user *entity.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.repo.User.FindByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.repo.User.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}

	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Login rejected", zap.String("identifier", identifier))
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, utils.NewError(utils.ErrForbidden, "Account is deactivated")
	}

	resp, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *authService) startSession(ctx context.Context, user *entity.User, client ClientInfo) (*response.AuthResponse, error) {
	hours := s.config.JWT.ExpiryHours
	if hours <= 0 {
		hours = 24
	}
	now := s.now()

	session := &entity.Session{
		BaseSimple: entity.NewBaseSimple(now),
		UserID:     user.ID,
		Token:      utils.GenerateSessionToken(),
		ExpiresAt:  now.Add(time.Duration(hours) * time.Hour),
	}
	if client.UserAgent != "" {
		session.UserAgent = &client.UserAgent
	}
	if client.IPAddress != "" {
		session.IPAddress = &client.IPAddress
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := utils.NewAccessToken(s.config.JWT.Secret, user.ID, string(user.Role), session.Token, session.ExpiresAt)
	if err != nil {
		s.log.Error("Failed to sign access token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, err
	}

	resp := response.AuthToResponse(user, token, session.ExpiresAt)
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, sessionToken uuid.UUID) error {
	if err := s.repo.Session.Revoke(ctx, sessionToken); err != nil {
		return err
	}
	s.log.Info("Session revoked", zap.String("session", sessionToken.String()))
	return nil
}

func (s *authService) issueOTP(ctx context.Context, user *entity.User, kind entity.OTPType) error {
	length := s.config.OTP.Length
	if length <= 0 {
		length = 6
	}
	minutes := s.config.OTP.ExpiryMinutes
	if minutes <= 0 {
		minutes = 10
	}

	now := s.now()
	otp := &entity.OTP{
		BaseSimple: entity.NewBaseSimple(now),
		UserID:     user.ID,
		Email:      user.Email,
		OTPCode:    utils.GenerateOTP(length),
		OTPType:    kind,
		ExpiresAt:  now.Add(time.Duration(minutes) * time.Minute),
	}
	if err := s.repo.OTP.Create(ctx, otp); err != nil {
		return err
	}

	notify(ctx, s.log, notification.TypeOTPIssued, func(ctx context.Context) error {
		return s.notifier.OTPIssued(ctx, notification.OTPIssuedEvent{
			Email:     otp.Email,
			Code:      otp.OTPCode,
			Purpose:   string(kind),
			ExpiresAt: otp.ExpiresAt,
		})
	})
	return nil
}

func (s *authService) SendOTP(ctx context.Context, req *request.SendOTPRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	user, err := s.repo.User.FindByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return utils.NewError(utils.ErrNotFound, "User not found")
	}

	kind := entity.OTPType(req.Type)
	if kind == entity.OTPTypeEmailVerification && user.EmailVerified {
		return utils.Invalid("email", "Email already verified")
	}

	return s.issueOTP(ctx, user, kind)
}

var errInvalidOTP = utils.Invalid("otp", "Invalid or expired OTP")

func (s *authService) VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	email := strings.ToLower(req.Email)

	otp, err := s.repo.OTP.Consume(ctx, email, req.OTP, entity.OTPTypeEmailVerification, s.now())
	if err != nil {
		return err
	}
	if otp == nil {
		return errInvalidOTP
	}

	user, err := s.repo.User.FindByID(ctx, otp.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return utils.NewError(utils.ErrNotFound, "User not found")
	}

	user.EmailVerified = true
	user.UpdatedAt = s.now()
	if err := s.repo.User.Update(ctx, user); err != nil {
		return err
	}

	s.log.Info("Email verified", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	email := strings.ToLower(req.Email)

	otp, err := s.repo.OTP.Consume(ctx, email, req.OTP, entity.OTPTypePasswordReset, s.now())
	if err != nil {
		return err
	}
	if otp == nil {
		return errInvalidOTP
	}

	user, err := s.repo.User.FindByID(ctx, otp.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return utils.NewError(utils.ErrNotFound, "User not found")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.UpdatedAt = s.now()
	if err := s.repo.User.Update(ctx, user); err != nil {
		return err
	}

	// Existing logins end with the old password.
	if err := s.repo.Session.RevokeAllUserSessions(ctx, user.ID); err != nil {
		return err
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	now := s.now()
	username := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		username = email[:at]
	}
	admin := &entity.User{
		Base:          entity.NewBase(now),
		Username:      username,
		Email:         email,
		PasswordHash:  hashed,
		Role:          entity.RoleAdmin,
		EmailVerified: true,
		IsActive:      true,
	}
	if err := s.repo.User.Create(ctx, admin); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil
		}
		return err
	}

	s.log.Info("Admin user created", zap.String("email", email))
	return nil
}
