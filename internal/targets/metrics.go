package targets

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/activity"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/schema"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Summarize computes the goals table for metrics over rows.
func Summarize(goals Goals, list []MetricDef, rows []map[string]any, days int) []MetricSummary {
	out := make([]MetricSummary, 0, len(list))
	for _, m := range list {
		current := decimal.Zero
		for _, row := range rows {
			current = current.Add(ParseNumber(row[m.Key]))
		}
		line := MetricSummary{MetricDef: m, Current: current, Status: StatusNone}
		if target, ok := goals.Target(m.Label); ok {
			t := target
			line.Target = &t
			if days > 0 {
				daily := target.DivRound(decimal.NewFromInt(int64(days)), 2)
				line.Daily = &daily
			}
			pct := current.Mul(hundred).Div(target).Round(0).IntPart()
			line.Percent = &pct
			line.Status = statusFor(pct)
		}
		out = append(out, line)
	}
	return out
}

func statusFor(pct int64) string {
	switch {
	case pct >= 80:
		return StatusGreen
	case pct >= 50:
		return StatusAmber
	default:
		return StatusRed
	}
}

func (s *service) Metrics(ctx context.Context, actor types.Actor, ref Ref) (*MetricsReport, error) {
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return nil, err
	}
	goals := ParseGoals(target.Goals)
	list := goals.Metrics()

	table := storage.TargetTable(target.ID)
	var rows []map[string]any
	err = s.opener.Use(ctx, target.TargetDBPath, storage.ModeReadOnly, func(store *storage.Store) error {
		conn := store.DB().WithContext(ctx)
		cols, err := schema.Columns(ctx, conn, table)
		if err != nil {
			return err
		}
		// Metrics whose column is gone sum to zero.
		keys := make([]string, 0, len(list))
		for _, m := range list {
			if schema.HasColumn(cols, m.Key) {
				keys = append(keys, m.Key)
			}
		}
		if len(keys) == 0 {
			return nil
		}
		return conn.Table(table).Select(storage.QuoteIdents(keys)).Find(&rows).Error
	})
	if err != nil {
		return nil, pkgerrors.Ensure(err, pkgerrors.CodeInternal, "read target data")
	}

	days := PeriodDays(target.StartDate, target.EndDate)
	return &MetricsReport{PeriodDays: days, Metrics: Summarize(goals, list, rows, days)}, nil
}

// UpdateGoals stores the goals blob. It must be a JSON object, sent as is or
// as an encoded string. The metric lists inside it are server state: a body
// that leaves them out keeps the stored ones, and a body that carries them
// may only bind existing columns under distinct labels.
func (s *service) UpdateGoals(ctx context.Context, actor types.Actor, ref Ref, req UpdateGoalsRequest) error {
	posted, err := normalizeGoals(req.Goals)
	if err != nil {
		return err
	}
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return err
	}
	err = s.schemaChange(ctx, target, func(tx *gorm.DB, table string, goals *Goals) (bool, error) {
		return true, replaceGoals(ctx, tx, table, goals, posted)
	})
	if err != nil {
		return err
	}
	s.activity.Record(ctx, actor, activity.TargetGoalsUpdated(target.ID), activity.StatusInfo)
	return nil
}

func normalizeGoals(raw json.RawMessage) (Goals, error) {
	invalid := pkgerrors.New(pkgerrors.CodeValidation, "goals must be a JSON object")
	if len(raw) == 0 {
		return Goals{}, invalid
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return Goals{}, invalid
	}
	return Goals{raw: obj}, nil
}

// replaceGoals swaps the stored goal values for posted ones.
func replaceGoals(ctx context.Context, tx *gorm.DB, table string, goals *Goals, posted Goals) error {
	var cols []schema.Column
	for _, key := range []string{allMetricsKey, legacyMetricsKey} {
		raw, ok := posted.raw[key]
		if !ok {
			if stored, had := goals.raw[key]; had {
				posted.raw[key] = stored
			}
			continue
		}
		var list []MetricDef
		if err := json.Unmarshal(raw, &list); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "metric list must be an array").
				WithDetails(map[string]any{"field": key})
		}
		if cols == nil {
			var err error
			if cols, err = schema.Columns(ctx, tx, table); err != nil {
				return err
			}
		}
		if err := checkMetricList(list, cols); err != nil {
			return err
		}
	}
	goals.raw = posted.raw
	return nil
}

func checkMetricList(list []MetricDef, cols []schema.Column) error {
	for i, m := range list {
		if strings.TrimSpace(m.Label) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "metric label required").
				WithDetails(map[string]any{"key": m.Key})
		}
		if !schema.HasColumn(cols, m.Key) {
			return pkgerrors.New(pkgerrors.CodeValidation, "metric refers to a missing column").
				WithDetails(map[string]any{"key": m.Key})
		}
		if labelTaken(list[:i], m.Label, -1) {
			return labelConflict(m.Label)
		}
	}
	return nil
}

// AddMetric creates a custom metric column and inserts the metric at
// position in the metric list, appending when position is absent or past
// the end.
func (s *service) AddMetric(ctx context.Context, actor types.Actor, ref Ref, req AddMetricRequest) (*MetricDef, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "metric label required")
	}
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return nil, err
	}
	var added MetricDef
	err = s.schemaChange(ctx, target, func(tx *gorm.DB, table string, goals *Goals) (bool, error) {
		list := goals.editableMetrics()
		if labelTaken(list, label, -1) {
			return false, labelConflict(label)
		}
		key, err := s.mutator.AddColumn(ctx, tx, table, label, req.Type)
		if err != nil {
			return false, err
		}
		added = MetricDef{Type: enums.MetricTypeCustom, Label: label, Key: key}
		if indexOfMetric(list, key) >= 0 {
			return false, nil
		}
		pos := len(list)
		if req.Position != nil && *req.Position >= 0 && *req.Position < pos {
			pos = *req.Position
		}
		list = append(list[:pos], append([]MetricDef{added}, list[pos:]...)...)
		return true, goals.setMetrics(list)
	})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, activity.TargetMetricsUpdated(target.ID), activity.StatusInfo)
	return &added, nil
}

// RenameMetric relabels a metric in one unit of work. A custom metric's
// column is renamed and its key re-derived; a default metric keeps its
// column. The goal value follows the label.
func (s *service) RenameMetric(ctx context.Context, actor types.Actor, ref Ref, key string, req RenameMetricRequest) (*MetricDef, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "metric label required")
	}
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return nil, err
	}
	var renamed MetricDef
	err = s.schemaChange(ctx, target, func(tx *gorm.DB, table string, goals *Goals) (bool, error) {
		list := goals.editableMetrics()
		idx := indexOfMetric(list, key)
		if idx < 0 {
			return false, metricNotFound(key)
		}
		if labelTaken(list, label, idx) {
			return false, labelConflict(label)
		}
		renamed = list[idx]
		newKey := key
		if renamed.Type == enums.MetricTypeCustom {
			var err error
			if newKey, err = s.mutator.RenameColumn(ctx, tx, table, key, label); err != nil {
				return false, err
			}
		}
		renamed.Label = label
		renamed.Key = newKey
		return relabelMetric(goals, key, label, newKey)
	})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, activity.TargetMetricsUpdated(target.ID), activity.StatusInfo)
	return &renamed, nil
}

// RemoveMetric deletes a custom metric with its column and goal value. A
// default metric is only hidden: its column and goal value stay.
func (s *service) RemoveMetric(ctx context.Context, actor types.Actor, ref Ref, key string) error {
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return err
	}
	err = s.schemaChange(ctx, target, func(tx *gorm.DB, table string, goals *Goals) (bool, error) {
		list := goals.editableMetrics()
		idx := indexOfMetric(list, key)
		if idx < 0 {
			return false, metricNotFound(key)
		}
		if list[idx].Type != enums.MetricTypeCustom {
			return true, goals.setMetrics(append(list[:idx], list[idx+1:]...))
		}
		// A custom metric whose column is already gone is still cleaned up.
		if err := s.mutator.DeleteColumn(ctx, tx, table, key); err != nil && !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return false, err
		}
		return dropMetric(goals, key)
	})
	if err != nil {
		return err
	}
	s.activity.Record(ctx, actor, activity.TargetMetricsUpdated(target.ID), activity.StatusWarning)
	return nil
}
