package targets

import (
	"encoding/json"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/schema"
	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
	"github.com/shopspring/decimal"
)

// Ref addresses a target. WorkspaceID is the request-scoped workspace and is
// zero when the caller did not supply one.
type Ref struct {
	WorkspaceID int64
	TargetID    int64
}

// CreateRequest is the body of POST /api/workspaces/{id}/targets/create.
type CreateRequest struct {
	TargetName string `json:"targetName" validate:"required"`
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate" validate:"required"`
}

type CreateResult struct {
	TargetID int64  `json:"targetId"`
	Storage  string `json:"storage"`
}

// Summary is one entry of GET /api/workspaces/{id}/targets.
type Summary struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Storage     string         `json:"storage"`
	Status      string         `json:"status"`
	TargetUsers dbtypes.IDList `json:"target_users"`
}

// DataColumn is the public part of a column definition.
type DataColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Data is the full sheet of a target.
type Data struct {
	TargetName    string           `json:"targetName"`
	WorkspaceName string           `json:"workspaceName"`
	Goals         *string          `json:"goals"`
	PeriodType    *string          `json:"periodType"`
	StartDate     *string          `json:"startDate"`
	EndDate       *string          `json:"endDate"`
	Columns       []DataColumn     `json:"columns"`
	Rows          []map[string]any `json:"rows"`
}

type AddRowResult struct {
	RowID int64 `json:"rowId"`
}

// UpdateCellRequest is the body of PATCH /api/targets/{id}/rows/{rowId}.
type UpdateCellRequest struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

// AddColumnRequest is the body of POST /api/targets/{id}/columns.
type AddColumnRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type"`
}

type AddColumnResult struct {
	Name string `json:"name"`
}

// RenameColumnRequest is the body of PATCH /api/targets/{id}/columns/{name}.
type RenameColumnRequest struct {
	NewName string `json:"newName" validate:"required"`
}

type RenameColumnResult struct {
	NewName string `json:"newName"`
}

// SetMembersRequest keeps userIds raw so a non-array is reported as invalid
// input rather than a decode failure.
type SetMembersRequest struct {
	UserIDs json.RawMessage `json:"userIds"`
}

// Member is a workspace member as seen from one target.
type Member struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Email      string  `json:"email"`
	IsAssigned bool    `json:"isAssigned"`
	Avatar     *string `json:"avatar"`
}

// UpdateGoalsRequest accepts the goals blob as an object or as an encoded
// JSON string.
type UpdateGoalsRequest struct {
	Goals json.RawMessage `json:"goals"`
}

// AddMetricRequest is the body of POST /api/targets/{id}/metrics.
type AddMetricRequest struct {
	Label    string `json:"label" validate:"required"`
	Type     string `json:"type"`
	Position *int   `json:"position"`
}

// RenameMetricRequest is the body of PATCH /api/targets/{id}/metrics/{key}.
type RenameMetricRequest struct {
	Label string `json:"label" validate:"required"`
}

// Metric status values.
const (
	StatusGreen = "green"
	StatusAmber = "amber"
	StatusRed   = "red"
	StatusNone  = "none"
)

// MetricSummary is one line of the goals table.
type MetricSummary struct {
	MetricDef
	Target  *decimal.Decimal `json:"target"`
	Daily   *decimal.Decimal `json:"daily,omitempty"`
	Current decimal.Decimal  `json:"current"`
	Percent *int64           `json:"percent"`
	Status  string           `json:"status"`
}

// MetricsReport is the response of GET /api/targets/{id}/metrics.
type MetricsReport struct {
	PeriodDays int             `json:"periodDays"`
	Metrics    []MetricSummary `json:"metrics"`
}

// Inspection describes a target's registry row and its store on disk.
type Inspection struct {
	ID          int64           `json:"id"`
	WorkspaceID int64           `json:"workspaceId"`
	Name        string          `json:"name"`
	Status      string          `json:"status"`
	Path        string          `json:"path"`
	Exists      bool            `json:"exists"`
	RowCount    int64           `json:"rowCount"`
	Columns     []schema.Column `json:"columns,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func toDataColumns(cols []schema.Column) []DataColumn {
	out := make([]DataColumn, len(cols))
	for i, c := range cols {
		out[i] = DataColumn{Name: c.Name, Type: c.Type}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
