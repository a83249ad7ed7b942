package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/targets"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/users"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/workspaces"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/security"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
)

const tempPasswordLen = 16

type memberRepairer interface {
	RepairMembers(ctx context.Context, actor types.Actor) ([]workspaces.RepairResult, error)
}

type targetInspector interface {
	Inspect(ctx context.Context, targetID int64) (*targets.Inspection, error)
}

type adminResetter interface {
	ResetAdmin(ctx context.Context, email, password string) (*users.UserDTO, error)
}

type backend struct {
	Users      adminResetter
	Workspaces memberRepairer
	Targets    targetInspector
}

type backendLoader func(ctx context.Context) (*backend, func(), error)

// operator is recorded in the activity log for CLI driven changes.
var operator = types.Actor{Role: enums.UserRoleOwner, IP: "portalctl"}

func newRootCommand(load backendLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Operator tooling for the portal registry and stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRepairMembersCommand(load),
		newCheckTargetCommand(load),
		newResetAdminCommand(load),
	)
	return root
}

func withBackend(cmd *cobra.Command, load backendLoader, fn func(*backend) error) error {
	b, cleanup, err := load(cmd.Context())
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	return fn(b)
}

func newRepairMembersCommand(load backendLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "repair-members",
		Short: "Rebuild the members table of every workspace store from the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, load, func(b *backend) error {
				results, err := b.Workspaces.RepairMembers(cmd.Context(), operator)
				if err != nil {
					return err
				}
				failed := 0
				for _, res := range results {
					if res.Error != "" {
						failed++
					}
				}
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d workspaces failed to sync", failed, len(results))
				}
				return nil
			})
		},
	}
}

func newCheckTargetCommand(load backendLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "check-target <id>",
		Short: "Report a target's registry row and the state of its store file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid target id %q", args[0])
			}
			return withBackend(cmd, load, func(b *backend) error {
				report, err := b.Targets.Inspect(cmd.Context(), id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

const (
	emailFlag    = "email"
	passwordFlag = "password"
)

func newResetAdminCommand(load backendLoader) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		emailFlag: &cobraflags.StringFlag{
			Name:  emailFlag,
			Value: "",
			Usage: "Email of the owner account to create or restore (required)",
		},
		passwordFlag: &cobraflags.StringFlag{
			Name:  passwordFlag,
			Value: "",
			Usage: "New password. A temporary one is generated and printed when empty",
		},
	}
	cmd := &cobra.Command{
		Use:   "reset-admin",
		Short: "Create or restore an active owner account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email := flags[emailFlag].GetString()
			if email == "" {
				return fmt.Errorf("--%s is required", emailFlag)
			}
			password := flags[passwordFlag].GetString()
			generated := password == ""
			if generated {
				var err error
				if password, err = security.GenerateTempPassword(tempPasswordLen); err != nil {
					return fmt.Errorf("generate password: %w", err)
				}
			}
			return withBackend(cmd, load, func(b *backend) error {
				user, err := b.Users.ResetAdmin(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "owner account ready: %s (id %d)\n", user.Email, user.ID)
				if generated {
					fmt.Fprintf(out, "temporary password: %s\n", password)
				}
				return nil
			})
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
