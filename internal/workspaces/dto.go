package workspaces

import (
	"encoding/json"

	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
)

// CreateRequest is the body of POST /api/workspaces/create.
type CreateRequest struct {
	DisplayName string         `json:"displayName" validate:"required"`
	Columns     []string       `json:"columns" validate:"required,min=1"`
	AdminID     *int64         `json:"adminId"`
	Users       dbtypes.IDList `json:"users"`
	Status      string         `json:"status"`
}

type CreateResult struct {
	WorkspaceID int64  `json:"workspaceId"`
	TableName   string `json:"tableName"`
}

// UpdateRequest is the body of POST /api/workspaces/update.
type UpdateRequest struct {
	WorkspaceID int64          `json:"workspaceId" validate:"required,gt=0"`
	DisplayName string         `json:"displayName" validate:"required"`
	Users       dbtypes.IDList `json:"users"`
	AdminID     *int64         `json:"adminId"`
}

type UpdateResult struct {
	WorkspaceID int64  `json:"workspaceId"`
	Synced      int    `json:"synced"`
	Message     string `json:"message"`
}

// DeleteRequest names the workspace folder to remove.
type DeleteRequest struct {
	TableName string `json:"tableName" validate:"required"`
}

// SummaryDTO is one entry of GET /api/workspaces.
type SummaryDTO struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	ManagedBy   *string        `json:"managed_by"`
	Users       dbtypes.IDList `json:"users"`
	TargetCount int64          `json:"target_count"`
}

func jsonStrings(values []string) (string, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
