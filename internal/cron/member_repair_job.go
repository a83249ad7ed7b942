package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/workspaces"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
)

const memberRepairJobName = "repair_members"

type memberRepairer interface {
	RepairMembers(ctx context.Context, actor types.Actor) ([]workspaces.RepairResult, error)
}

// MemberRepairJob resyncs every workspace store's members table so drift left
// by a failed cascade heals without operator action.
type MemberRepairJob struct {
	workspaces memberRepairer
}

func NewMemberRepairJob(svc memberRepairer) (*MemberRepairJob, error) {
	if svc == nil {
		return nil, errors.New("workspaces service required")
	}
	return &MemberRepairJob{workspaces: svc}, nil
}

func (j *MemberRepairJob) Name() string { return memberRepairJobName }

func (j *MemberRepairJob) Run(ctx context.Context) error {
	results, err := j.workspaces.RepairMembers(ctx, types.Actor{Role: enums.UserRoleOwner, IP: "maintenance-worker"})
	if err != nil {
		return err
	}
	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d workspaces failed to sync", failed, len(results))
	}
	return nil
}
