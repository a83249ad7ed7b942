package activity

import "fmt"

// Severity values stored in the status column.
const (
	StatusSuccess  = "Success"
	StatusInfo     = "Info"
	StatusWarning  = "Warning"
	StatusCritical = "Critical"
)

const (
	ActionLoginSuccess        = "LOGIN_SUCCESS"
	ActionLoginFailure        = "LOGIN_FAILURE"
	ActionLoginBlocked        = "LOGIN_BLOCKED"
	ActionAccountLocked       = "ACCOUNT_LOCKED"
	ActionAvatarUpdated       = "AVATAR_UPDATED"
	ActionPasswordUpdatedSelf = "PASSWORD_UPDATED_SELF"
	ActionMembersRepaired     = "WORKSPACE_MEMBERS_REPAIRED"
)

func UserCreated(id int64) string   { return fmt.Sprintf("USER_CREATED_%d", id) }
func UserDeleted(id int64) string   { return fmt.Sprintf("USER_DELETED_%d", id) }
func PasswordReset(id int64) string { return fmt.Sprintf("PASSWORD_RESET_%d", id) }

// UserStatusChanged yields e.g. USER_Blocked_12.
func UserStatusChanged(status string, id int64) string {
	return fmt.Sprintf("USER_%s_%d", status, id)
}

func WorkspaceCreated(name string) string { return "WORKSPACE_CREATED_" + name }
func WorkspaceUpdated(id int64) string    { return fmt.Sprintf("WORKSPACE_UPDATED_%d", id) }
func WorkspaceDeleted(name string) string { return "WORKSPACE_DELETED_" + name }

// Target actions carry _ID_<targetID> so they can be found per target.

func TargetCreated(targetID, workspaceID int64) string {
	return fmt.Sprintf("TARGET_CREATED_ID_%d_WS_%d", targetID, workspaceID)
}

func TargetAccessUpdated(targetID int64) string {
	return fmt.Sprintf("TARGET_ACCESS_UPDATED_ID_%d", targetID)
}

func TargetGoalsUpdated(targetID int64) string {
	return fmt.Sprintf("TARGET_GOALS_UPDATED_ID_%d", targetID)
}

func TargetMetricsUpdated(targetID int64) string {
	return fmt.Sprintf("TARGET_METRICS_UPDATED_ID_%d", targetID)
}

func TargetColumnAdded(targetID int64) string {
	return fmt.Sprintf("TARGET_COLUMN_ADDED_ID_%d", targetID)
}

func TargetColumnRenamed(targetID int64) string {
	return fmt.Sprintf("TARGET_COLUMN_RENAMED_ID_%d", targetID)
}

func TargetColumnDeleted(targetID int64) string {
	return fmt.Sprintf("TARGET_COLUMN_DELETED_ID_%d", targetID)
}
