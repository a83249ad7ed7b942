package targets

import (
	"context"
	"errors"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/activity"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/metrics"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"gorm.io/gorm"
)

// schemaChange runs fn inside one transaction on the target store. The goals
// handed to fn are read from the registry after the store's write lock is
// held, so changes to the same target see each other's metric lists. When fn
// reports that the goals blob changed, the registry is updated before the
// store commits, so a failed registry write rolls the column change back.
func (s *service) schemaChange(ctx context.Context, target *models.Target, fn func(tx *gorm.DB, table string, goals *Goals) (bool, error)) (err error) {
	done := s.metrics.Track(metrics.OpSchemaMutation)
	defer func() { done(err) }()

	table := storage.TargetTable(target.ID)
	err = s.opener.Use(ctx, target.TargetDBPath, storage.ModeReadWrite, func(store *storage.Store) error {
		return store.WithTx(ctx, func(tx *gorm.DB) error {
			fresh, err := s.repo.FindByID(ctx, target.ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "target not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload target")
			}
			goals := ParseGoals(fresh.Goals)
			changed, err := fn(tx, table, &goals)
			if err != nil || !changed {
				return err
			}
			blob, err := goals.Encode()
			if err != nil {
				return err
			}
			if _, err := s.repo.UpdateGoals(ctx, target.ID, blob); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update target goals")
			}
			target.Goals = &blob
			return nil
		})
	})
	if err != nil {
		s.logError(ctx, target.ID, "targets.schema_change_failed", err)
	}
	return pkgerrors.Ensure(err, pkgerrors.CodeInternal, "change target columns")
}

func (s *service) AddColumn(ctx context.Context, actor types.Actor, ref Ref, req AddColumnRequest) (*AddColumnResult, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "column name required")
	}
	target, err := s.load(ctx, actor, ref, true)
	if err != nil {
		return nil, err
	}
	var name string
	err = s.schemaChange(ctx, target, func(tx *gorm.DB, table string, _ *Goals) (bool, error) {
		var err error
		name, err = s.mutator.AddColumn(ctx, tx, table, req.Name, req.Type)
		return false, err
	})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, activity.TargetColumnAdded(target.ID), activity.StatusInfo)
	return &AddColumnResult{Name: name}, nil
}

// RenameColumn renames a data column. A metric bound to the column follows
// it: its key and label change and its goal value moves to the new label.
func (s *service) RenameColumn(ctx context.Context, actor types.Actor, ref Ref, name string, req RenameColumnRequest) (*RenameColumnResult, error) {
	newLabel := strings.TrimSpace(req.NewName)
	if newLabel == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new name required")
	}
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return nil, err
	}
	var newName string
	err = s.schemaChange(ctx, target, func(tx *gorm.DB, table string, goals *Goals) (bool, error) {
		var err error
		if newName, err = s.mutator.RenameColumn(ctx, tx, table, name, newLabel); err != nil {
			return false, err
		}
		return relabelMetric(goals, name, newLabel, newName)
	})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, activity.TargetColumnRenamed(target.ID), activity.StatusInfo)
	return &RenameColumnResult{NewName: newName}, nil
}

// DeleteColumn drops a data column together with any metric bound to it and
// that metric's goal value.
func (s *service) DeleteColumn(ctx context.Context, actor types.Actor, ref Ref, name string) error {
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return err
	}
	err = s.schemaChange(ctx, target, func(tx *gorm.DB, table string, goals *Goals) (bool, error) {
		if err := s.mutator.DeleteColumn(ctx, tx, table, name); err != nil {
			return false, err
		}
		return dropMetric(goals, name)
	})
	if err != nil {
		return err
	}
	s.activity.Record(ctx, actor, activity.TargetColumnDeleted(target.ID), activity.StatusWarning)
	return nil
}

// relabelMetric points the metric keyed by oldKey at newKey under newLabel.
// It reports false when no metric uses oldKey.
func relabelMetric(goals *Goals, oldKey, newLabel, newKey string) (bool, error) {
	list := goals.editableMetrics()
	idx := indexOfMetric(list, oldKey)
	if idx < 0 {
		return false, nil
	}
	if labelTaken(list, newLabel, idx) {
		return false, labelConflict(newLabel)
	}
	goals.moveValue(list[idx].Label, newLabel)
	list[idx].Label = newLabel
	list[idx].Key = newKey
	return true, goals.setMetrics(list)
}

// dropMetric removes the metric keyed by key and its goal value.
func dropMetric(goals *Goals, key string) (bool, error) {
	list := goals.editableMetrics()
	idx := indexOfMetric(list, key)
	if idx < 0 {
		return false, nil
	}
	goals.deleteValue(list[idx].Label)
	list = append(list[:idx], list[idx+1:]...)
	return true, goals.setMetrics(list)
}

// labelTaken reports whether a metric other than the one at skip already
// uses label. Goal values are keyed by label, so labels must stay distinct.
func labelTaken(list []MetricDef, label string, skip int) bool {
	for i, m := range list {
		if i != skip && strings.EqualFold(strings.TrimSpace(m.Label), strings.TrimSpace(label)) {
			return true
		}
	}
	return false
}

func labelConflict(label string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "metric label already in use").
		WithDetails(map[string]any{"label": label})
}

func metricNotFound(key string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "metric not found").
		WithDetails(map[string]any{"key": key})
}
