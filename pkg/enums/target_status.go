package enums

// TargetStatus tracks whether a target's physical store has been provisioned.
type TargetStatus string

const (
	// TargetStatusPending is written with the registry row, before the store exists.
	TargetStatusPending TargetStatus = "pending"
	TargetStatusActive  TargetStatus = "active"
)

func (s TargetStatus) String() string {
	return string(s)
}

func (s TargetStatus) IsValid() bool {
	return s == TargetStatusPending || s == TargetStatusActive
}
