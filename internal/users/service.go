package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/activity"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/security"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"gorm.io/gorm"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, roles []enums.UserRole) ([]models.User, error)
	UpdateStatus(ctx context.Context, id int64, status enums.UserStatus) (int64, error)
	UpdatePassword(ctx context.Context, id int64, hash string, resetAttempts bool) (int64, error)
	UpdateAvatar(ctx context.Context, id int64, avatar string) (int64, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) (int64, error)
}

// sessionRevoker drops live sessions of a user whose access changed.
type sessionRevoker interface {
	RevokeUser(ctx context.Context, userID int64) error
}

// Service manages registry users.
type Service interface {
	List(ctx context.Context, actor types.Actor, role string) ([]UserDTO, error)
	Register(ctx context.Context, actor types.Actor, req RegisterRequest) (int64, error)
	ToggleStatus(ctx context.Context, actor types.Actor, req ToggleStatusRequest) (enums.UserStatus, error)
	ResetPassword(ctx context.Context, actor types.Actor, req ResetPasswordRequest) error
	Delete(ctx context.Context, actor types.Actor, userID int64) error
	UpdateAvatar(ctx context.Context, actor types.Actor, avatar string) error
	UpdatePassword(ctx context.Context, actor types.Actor, newPassword string) error
	ResetAdmin(ctx context.Context, email, password string) (*UserDTO, error)
}

// ServiceParams bundles the dependencies of the users service.
type ServiceParams struct {
	Repo      userRepository
	Activity  activity.Recorder
	Sessions  sessionRevoker
	Auth      config.AuthConfig
	Passwords config.PasswordConfig
}

type service struct {
	repo      userRepository
	activity  activity.Recorder
	sessions  sessionRevoker
	auth      config.AuthConfig
	passwords config.PasswordConfig
}

// NewService validates params and builds the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	return &service{
		repo:      params.Repo,
		activity:  params.Activity,
		sessions:  params.Sessions,
		auth:      params.Auth,
		passwords: params.Passwords,
	}, nil
}

var staffRoles = []enums.UserRole{enums.UserRoleTeam, enums.UserRoleClient}

func (s *service) List(ctx context.Context, actor types.Actor, role string) ([]UserDTO, error) {
	var filter []enums.UserRole
	if role != "" {
		parsed, err := enums.ParseUserRole(strings.ToLower(strings.TrimSpace(role)))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
		}
		filter = []enums.UserRole{parsed}
	}
	if actor.Role == enums.UserRoleAdmin {
		if len(filter) == 0 {
			filter = staffRoles
		} else if !filter[0].IsStaff() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admins can only view team and client users")
		}
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Register(ctx context.Context, actor types.Actor, req RegisterRequest) (int64, error) {
	role, err := enums.ParseUserRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	if actor.Role == enums.UserRoleAdmin && !role.IsStaff() {
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "admins can only register team or client users")
	}
	if err := s.checkLength(req.Password, s.auth.MinPasswordLen); err != nil {
		return 0, err
	}

	email := NormalizeEmail(req.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return 0, pkgerrors.New(pkgerrors.CodeConflict, "email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup email")
	}

	hash, err := security.HashPassword(req.Password, s.passwords)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user := &models.User{
		Name:     DisplayName(req.Name, email),
		Email:    email,
		Password: hash,
		Role:     role,
		Status:   enums.UserStatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return 0, pkgerrors.New(pkgerrors.CodeConflict, "email already exists")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	s.activity.Record(ctx, actor, activity.UserCreated(user.ID), activity.StatusInfo)
	return user.ID, nil
}

func (s *service) ToggleStatus(ctx context.Context, actor types.Actor, req ToggleStatusRequest) (enums.UserStatus, error) {
	if req.UserID == actor.UserID {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "cannot change your own status")
	}
	target, err := s.manageable(ctx, actor, req.UserID)
	if err != nil {
		return "", err
	}

	next := target.Status.Toggle()
	if req.Status != "" {
		parsed, err := enums.ParseUserStatus(req.Status)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status value")
		}
		next = parsed
	}

	if _, err := s.repo.UpdateStatus(ctx, target.ID, next); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update status")
	}
	if next == enums.UserStatusBlocked {
		s.revoke(ctx, target.ID)
	}
	s.activity.Record(ctx, actor, activity.UserStatusChanged(string(next), target.ID), activity.StatusWarning)
	return next, nil
}

func (s *service) ResetPassword(ctx context.Context, actor types.Actor, req ResetPasswordRequest) error {
	if err := s.checkLength(req.NewPassword, s.auth.MinPasswordLen); err != nil {
		return err
	}
	target, err := s.manageable(ctx, actor, req.UserID)
	if err != nil {
		return err
	}
	hash, err := security.HashPassword(req.NewPassword, s.passwords)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	affected, err := s.repo.UpdatePassword(ctx, target.ID, hash, true)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.revoke(ctx, target.ID)
	s.activity.Record(ctx, actor, activity.PasswordReset(target.ID), activity.StatusWarning)
	return nil
}

func (s *service) Delete(ctx context.Context, actor types.Actor, userID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if userID == actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete your own account")
	}
	if _, err := s.manageable(ctx, actor, userID); err != nil {
		return err
	}
	affected, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.revoke(ctx, userID)
	s.activity.Record(ctx, actor, activity.UserDeleted(userID), activity.StatusWarning)
	return nil
}

func (s *service) UpdateAvatar(ctx context.Context, actor types.Actor, avatar string) error {
	if strings.TrimSpace(avatar) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "avatar data required")
	}
	affected, err := s.repo.UpdateAvatar(ctx, actor.UserID, avatar)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update avatar")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.activity.Record(ctx, actor, activity.ActionAvatarUpdated, activity.StatusInfo)
	return nil
}

func (s *service) UpdatePassword(ctx context.Context, actor types.Actor, newPassword string) error {
	if err := s.checkLength(newPassword, s.auth.MinSelfPassLen); err != nil {
		return err
	}
	hash, err := security.HashPassword(newPassword, s.passwords)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	affected, err := s.repo.UpdatePassword(ctx, actor.UserID, hash, false)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.activity.Record(ctx, actor, activity.ActionPasswordUpdatedSelf, activity.StatusWarning)
	return nil
}

// ResetAdmin creates or restores an active owner account with the given
// credentials. Used by the operator CLI when nobody can log in.
func (s *service) ResetAdmin(ctx context.Context, email, password string) (*UserDTO, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if err := s.checkLength(password, s.auth.MinPasswordLen); err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(password, s.passwords)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &models.User{Name: DisplayName("", email), Email: email}
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}
	user.Password = hash
	user.Role = enums.UserRoleOwner
	user.Status = enums.UserStatusActive
	user.FailedAttempts = 0

	if user.ID == 0 {
		err = s.repo.Create(ctx, user)
	} else {
		err = s.repo.Save(ctx, user)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist admin")
	}
	s.revoke(ctx, user.ID)
	s.activity.Record(ctx, types.Actor{IP: "CLI"}, activity.PasswordReset(user.ID), activity.StatusWarning)
	return FromModel(user), nil
}

// manageable loads userID and checks that actor may modify it. Admins are
// limited to team and client accounts.
func (s *service) manageable(ctx context.Context, actor types.Actor, userID int64) (*models.User, error) {
	if !actor.Role.IsPrivileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions")
	}
	target, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if actor.Role == enums.UserRoleAdmin && !target.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admins can only manage team or client users")
	}
	return target, nil
}

func (s *service) checkLength(password string, min int) error {
	if len(password) < min {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", min))
	}
	return nil
}

// revoke is best effort: the user row is already updated and the access
// token expires on its own.
func (s *service) revoke(ctx context.Context, userID int64) {
	if s.sessions == nil {
		return
	}
	_ = s.sessions.RevokeUser(ctx, userID)
}
