package enums

// MetricType distinguishes the five built-in metrics from user-defined ones.
type MetricType string

const (
	MetricTypeDefault MetricType = "default"
	MetricTypeCustom  MetricType = "custom"
)

func (m MetricType) String() string {
	return string(m)
}

func (m MetricType) IsValid() bool {
	return m == MetricTypeDefault || m == MetricTypeCustom
}
