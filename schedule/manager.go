// Package schedule manages the single recurring offline sync trigger of a spreadsheet.
package schedule

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/apperrors"
	"github.com/uhppoted/dbm-sheets/props"
)

const (
	FrequencyKey = "DBM_Schedule_Frequency"
	PrimaryKey   = "DBM_Schedule_Time"
	SecondaryKey = "DBM_Schedule_Time2"
	CreatedByKey = "DBM_Trigger_Created_By"
	TriggerIDKey = "DBM_Trigger_ID"
)

var keys = []string{FrequencyKey, PrimaryKey, SecondaryKey, CreatedByKey, TriggerIDKey}

// Scheduler registers the durable time based triggers that run the offline sync.
type Scheduler interface {
	Create(ctx context.Context, document string, owner string, timing Timing) (string, error)
	Delete(ctx context.Context, id string) error

	// List returns the IDs of the live triggers the owner has registered for the document.
	List(ctx context.Context, document string, owner string) ([]string, error)
}

// Config is the stored schedule of a spreadsheet.
type Config struct {
	Frequency Frequency
	Primary   string
	Secondary string
	CreatedBy string
	TriggerID string
}

type Manager struct {
	document  string
	store     props.Store
	scheduler Scheduler
	logger    *zap.Logger
}

func NewManager(document string, store props.Store, scheduler Scheduler, logger *zap.Logger) *Manager {
	return &Manager{
		document:  document,
		store:     store,
		scheduler: scheduler,
		logger:    logger.Named("schedule").With(zap.String("spreadsheet", document)),
	}
}

// Set replaces the spreadsheet schedule on behalf of user and returns the human readable
// form of the new schedule ("" if disabled).
func (m *Manager) Set(ctx context.Context, user string, enabled bool, frequency Frequency, primary, secondary string) (string, error) {
	var timing Timing

	if enabled {
		if t, err := NewTiming(frequency, primary, secondary); err != nil {
			return "", err
		} else {
			timing = t
		}
	}

	if err := m.teardown(ctx); err != nil {
		return "", err
	}

	if !enabled {
		if err := m.purge(ctx); err != nil {
			return "", err
		}

		m.logger.Info("schedule disabled", zap.String("user", user))
		return "", nil
	}

	id, err := m.scheduler.Create(ctx, m.document, user, timing)
	if err != nil {
		m.logger.Error("error creating trigger", zap.Error(err))
		return "", fmt.Errorf("error creating sync trigger (%w)", err)
	}

	batch := props.Batch{
		Set: map[string]string{
			FrequencyKey: string(timing.Frequency),
			PrimaryKey:   timing.Primary(),
			CreatedByKey: user,
			TriggerIDKey: id,
		},
	}

	if s := timing.Secondary(); s != "" {
		batch.Set[SecondaryKey] = s
	} else {
		batch.Delete = []string{SecondaryKey}
	}

	if err := m.store.Update(ctx, batch); err != nil {
		m.logger.Error("error storing schedule", zap.String("trigger", id), zap.Error(err))

		if rollback := m.scheduler.Delete(ctx, id); rollback != nil {
			m.logger.Warn("error deleting unreferenced trigger", zap.String("trigger", id), zap.Error(rollback))
		}

		return "", err
	}

	m.logger.Info("schedule updated", zap.String("user", user), zap.Stringer("schedule", timing), zap.String("trigger", id))

	return m.Summary(ctx, user)
}

// Get returns the stored schedule, or nil if there is none.
func (m *Manager) Get(ctx context.Context) (*Config, error) {
	values := map[string]string{}
	for _, k := range keys {
		if v, ok, err := m.store.Get(ctx, k); err != nil {
			return nil, err
		} else if ok {
			values[k] = v
		}
	}

	if len(values) == 0 {
		return nil, nil
	}

	return &Config{
		Frequency: Frequency(values[FrequencyKey]),
		Primary:   values[PrimaryKey],
		Secondary: values[SecondaryKey],
		CreatedBy: values[CreatedByKey],
		TriggerID: values[TriggerIDKey],
	}, nil
}

// Summary returns the human readable current schedule. If the requester created the
// schedule and its trigger no longer exists the stored schedule is removed.
func (m *Manager) Summary(ctx context.Context, requester string) (string, error) {
	config, err := m.Get(ctx)
	if err != nil {
		return "", err
	}

	if config == nil {
		return "", nil
	}

	if requester != "" && config.CreatedBy == requester {
		live, err := m.scheduler.List(ctx, m.document, requester)
		if err != nil {
			return "", err
		}

		if !slices.Contains(live, config.TriggerID) {
			orphaned := &apperrors.ScheduleOrphanedError{TriggerID: config.TriggerID}
			m.logger.Warn("purging orphaned schedule", zap.Error(orphaned))

			if err := m.purge(ctx); err != nil {
				return "", err
			}

			return "", nil
		}
	}

	return Describe(*config), nil
}

// Describe renders a stored schedule e.g. "Current Sync Schedule: Daily between 2pm to 3pm.
// Created by: someone@example.com". Returns "" if the schedule is not valid.
func Describe(config Config) string {
	timing, err := NewTiming(config.Frequency, config.Primary, config.Secondary)
	if err != nil {
		return ""
	}

	s := "Current Sync Schedule: " + timing.String()
	if config.CreatedBy != "" {
		s += ". Created by: " + config.CreatedBy
	}

	return s
}

// Clear removes the trigger and the stored schedule.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.teardown(ctx); err != nil {
		return err
	}

	return m.purge(ctx)
}

func (m *Manager) teardown(ctx context.Context) error {
	id, ok, err := m.store.Get(ctx, TriggerIDKey)
	if err != nil {
		return err
	} else if !ok || id == "" {
		return nil
	}

	if err := m.scheduler.Delete(ctx, id); err != nil {
		m.logger.Error("error deleting trigger", zap.String("trigger", id), zap.Error(err))
		return fmt.Errorf("error deleting sync trigger %v (%w)", id, err)
	}

	m.logger.Debug("deleted trigger", zap.String("trigger", id))

	return nil
}

func (m *Manager) purge(ctx context.Context) error {
	return m.store.Update(ctx, props.Batch{Delete: keys})
}
