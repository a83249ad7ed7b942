package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/activity"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/users"
	pkgAuth "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/auth"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/auth/session"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/security"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"gorm.io/gorm"
)

const authFailedMessage = "authentication failed"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest, ip string) (*LoginResponse, error)
	Verify(ctx context.Context, token string) (*VerifyResponse, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	SetFailedAttempts(ctx context.Context, id int64, attempts int) error
	Lock(ctx context.Context, id int64, attempts int) error
	UpdatePassword(ctx context.Context, id int64, hash string, resetAttempts bool) (int64, error)
}

type sessionManager interface {
	Generate(ctx context.Context, userID int64, accessID string) (string, error)
	Rotate(ctx context.Context, userID int64, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, userID int64, accessID string) error
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	Activity       activity.Recorder
	JWTConfig      config.JWTConfig
	AuthConfig     config.AuthConfig
	Passwords      config.PasswordConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	users     userRepository
	session   sessionManager
	activity  activity.Recorder
	jwtCfg    config.JWTConfig
	authCfg   config.AuthConfig
	passwords config.PasswordConfig
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	authCfg := params.AuthConfig
	if authCfg.MaxFailedAttempts <= 0 {
		authCfg.MaxFailedAttempts = 5
	}
	return &service{
		users:     params.UserRepo,
		session:   params.SessionManager,
		activity:  params.Activity,
		jwtCfg:    params.JWTConfig,
		authCfg:   authCfg,
		passwords: params.Passwords,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest, ip string) (*LoginResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.activity.Record(ctx, types.Actor{Email: email, IP: ip}, activity.ActionLoginFailure, activity.StatusWarning)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, authFailedMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	actor := types.Actor{UserID: user.ID, Email: user.Email, Role: user.Role, IP: ip}
	max := s.authCfg.MaxFailedAttempts

	// An account re-activated by hand keeps its stale counter; clear it.
	if user.Status == enums.UserStatusActive && user.FailedAttempts >= max {
		if err := s.users.SetFailedAttempts(ctx, user.ID, 0); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset failed attempts")
		}
		user.FailedAttempts = 0
	}

	if user.Status == enums.UserStatusBlocked {
		s.activity.Record(ctx, actor, activity.ActionLoginBlocked, activity.StatusWarning)
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account blocked, contact an administrator")
	}

	valid, err := security.VerifyPassword(req.Password, user.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, s.recordFailure(ctx, actor, user)
	}

	if err := s.users.SetFailedAttempts(ctx, user.ID, 0); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset failed attempts")
	}
	s.upgradeHash(ctx, user, req.Password)

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, user.ID, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	s.activity.Record(ctx, actor, activity.ActionLoginSuccess, activity.StatusSuccess)
	user.FailedAttempts = 0
	return &LoginResponse{
		Success:      true,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         user.Role,
		Avatar:       user.Avatar,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) recordFailure(ctx context.Context, actor types.Actor, user *models.User) error {
	attempts := user.FailedAttempts + 1
	max := s.authCfg.MaxFailedAttempts
	if attempts >= max {
		if err := s.users.Lock(ctx, user.ID, attempts); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock account")
		}
		s.activity.Record(ctx, actor, activity.ActionAccountLocked, activity.StatusCritical)
		return pkgerrors.New(pkgerrors.CodeForbidden, "account blocked: too many attempts")
	}
	if err := s.users.SetFailedAttempts(ctx, user.ID, attempts); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record failed attempt")
	}
	s.activity.Record(ctx, actor, activity.ActionLoginFailure, activity.StatusWarning)
	return pkgerrors.New(pkgerrors.CodeUnauthorized, fmt.Sprintf("invalid password. %d attempts left.", max-attempts))
}

// upgradeHash swaps a carried-over bcrypt hash for argon2id. Failure only
// delays the upgrade to the next login.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.Password) {
		return
	}
	hash, err := security.HashPassword(password, s.passwords)
	if err == nil {
		_, err = s.users.UpdatePassword(ctx, user.ID, hash, false)
	}
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID), "auth.rehash_failed: "+err.Error())
	}
}

func (s *service) Verify(ctx context.Context, token string) (*VerifyResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return &VerifyResponse{Authenticated: false}, nil
	}
	claims, err := pkgAuth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return &VerifyResponse{Authenticated: false}, nil
	}
	live, err := s.session.HasSession(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check session")
	}
	if !live {
		return &VerifyResponse{Authenticated: false}, nil
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &VerifyResponse{Authenticated: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user.Status == enums.UserStatusBlocked {
		return &VerifyResponse{Authenticated: false, Message: "account blocked"}, nil
	}
	return &VerifyResponse{
		Authenticated: true,
		Role:          user.Role,
		ID:            user.ID,
		Name:          user.Name,
		Avatar:        user.Avatar,
	}, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, token)
	if err != nil {
		return nil
	}
	if err := s.session.Revoke(ctx, claims.UserID, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.UserID, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || user.Status != enums.UserStatusActive {
		_ = s.session.Revoke(ctx, claims.UserID, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, authFailedMessage)
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &RefreshResponse{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}
