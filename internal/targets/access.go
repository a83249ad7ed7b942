package targets

import (
	"context"
	"errors"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/activity"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"gorm.io/gorm"
)

// canAccess lets owner, ceo and admin through; team and client need to be
// listed in target_users.
func canAccess(actor types.Actor, target *models.Target) bool {
	if actor.Role.IsPrivileged() {
		return true
	}
	return target.TargetUsers.Contains(actor.UserID)
}

// Members lists the target's workspace members, marking those assigned to
// the target and attaching their avatars.
func (s *service) Members(ctx context.Context, actor types.Actor, ref Ref) ([]Member, error) {
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return nil, err
	}
	ws, err := s.workspaces.FindByID(ctx, target.WorkspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workspace not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load workspace")
	}
	wsMembers, err := s.members.Members(ctx, ws.Name)
	if err != nil {
		return nil, pkgerrors.Ensure(err, pkgerrors.CodeInternal, "read workspace members")
	}
	if len(wsMembers) == 0 {
		return []Member{}, nil
	}

	ids := make([]int64, len(wsMembers))
	for i, m := range wsMembers {
		ids[i] = m.UserID
	}
	avatars := map[int64]*string{}
	if users, err := s.users.FindByIDs(ctx, ids); err != nil {
		// Avatars are decoration; the list is still useful without them.
		s.logError(ctx, target.ID, "targets.avatar_lookup_failed", err)
	} else {
		for _, u := range users {
			avatars[u.ID] = u.Avatar
		}
	}

	out := make([]Member, len(wsMembers))
	for i, m := range wsMembers {
		out[i] = Member{
			ID:         m.UserID,
			Name:       m.Name,
			Role:       m.Role,
			Email:      m.Email,
			IsAssigned: target.TargetUsers.Contains(m.UserID),
			Avatar:     avatars[m.UserID],
		}
	}
	return out, nil
}

// SetMembers replaces target_users wholesale. Entries may be integers or
// integer strings.
func (s *service) SetMembers(ctx context.Context, actor types.Actor, ref Ref, req SetMembersRequest) error {
	ids, err := dbtypes.ParseIDList(req.UserIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "userIds must be an array of user ids")
	}
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return err
	}
	if ids == nil {
		ids = dbtypes.IDList{}
	}
	affected, err := s.repo.UpdateTargetUsers(ctx, target.ID, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update target access")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "target not found")
	}
	s.activity.Record(ctx, actor, activity.TargetAccessUpdated(target.ID), activity.StatusInfo)
	return nil
}
