// Package triggers keeps the durable time based triggers that run the offline sync and
// executes them.
package triggers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/props"
	"github.com/uhppoted/dbm-sheets/schedule"
)

// OfflineSync is the handler name for triggers that run the unattended sync.
const OfflineSync = "offline-sync"

type Trigger struct {
	ID        string             `json:"id"`
	Handler   string             `json:"handler"`
	Document  string             `json:"document"`
	Owner     string             `json:"owner"`
	Frequency schedule.Frequency `json:"frequency"`
	Every     int                `json:"every,omitempty"`
	Weekday   time.Weekday       `json:"weekday,omitempty"`
	Hour      int                `json:"hour,omitempty"`
	Created   time.Time          `json:"created"`
}

func (t Trigger) Timing() schedule.Timing {
	return schedule.Timing{
		Frequency: t.Frequency,
		Every:     t.Every,
		Weekday:   t.Weekday,
		Hour:      t.Hour,
	}
}

// Spec returns the standard 5 field cron expression for the trigger.
func (t Trigger) Spec() (string, error) {
	switch t.Frequency {
	case schedule.Hourly:
		if t.Every < 1 || t.Every > 23 {
			return "", fmt.Errorf("invalid hourly interval %v", t.Every)
		}
		return fmt.Sprintf("0 */%d * * *", t.Every), nil

	case schedule.Daily:
		if t.Hour < 0 || t.Hour > 23 {
			return "", fmt.Errorf("invalid hour %v", t.Hour)
		}
		return fmt.Sprintf("0 %d * * *", t.Hour), nil

	case schedule.Weekly:
		if t.Hour < 0 || t.Hour > 23 {
			return "", fmt.Errorf("invalid hour %v", t.Hour)
		}
		return fmt.Sprintf("0 %d * * %d", t.Hour, int(t.Weekday)), nil

	default:
		return "", fmt.Errorf("invalid trigger frequency '%v'", t.Frequency)
	}
}

// Registry stores triggers as JSON records keyed by trigger ID.
type Registry struct {
	store  props.Store
	now    func() time.Time
	logger *zap.Logger
}

var _ schedule.Scheduler = (*Registry)(nil)

func NewRegistry(store props.Store, logger *zap.Logger) *Registry {
	return &Registry{
		store:  store,
		now:    time.Now,
		logger: logger.Named("triggers"),
	}
}

func (r *Registry) Create(ctx context.Context, document string, owner string, timing schedule.Timing) (string, error) {
	trigger := Trigger{
		ID:        uuid.NewString(),
		Handler:   OfflineSync,
		Document:  document,
		Owner:     owner,
		Frequency: timing.Frequency,
		Every:     timing.Every,
		Weekday:   timing.Weekday,
		Hour:      timing.Hour,
		Created:   r.now().UTC(),
	}

	if _, err := trigger.Spec(); err != nil {
		return "", err
	}

	bytes, err := json.Marshal(trigger)
	if err != nil {
		return "", err
	}

	if err := r.store.Set(ctx, trigger.ID, string(bytes)); err != nil {
		return "", err
	}

	r.logger.Info("created trigger", zap.String("trigger", trigger.ID), zap.String("document", document), zap.String("owner", owner))

	return trigger.ID, nil
}

// Delete removes the trigger. Deleting a trigger that does not exist is not an error.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}

	r.logger.Info("deleted trigger", zap.String("trigger", id))

	return nil
}

func (r *Registry) List(ctx context.Context, document string, owner string) ([]string, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	list := []string{}
	for _, t := range all {
		if t.Document == document && t.Owner == owner {
			list = append(list, t.ID)
		}
	}

	return list, nil
}

// All returns every registered trigger, oldest first. Unreadable records are logged and
// skipped.
func (r *Registry) All(ctx context.Context) ([]Trigger, error) {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return nil, err
	}

	list := []Trigger{}
	for _, k := range keys {
		v, ok, err := r.store.Get(ctx, k)
		if err != nil {
			return nil, err
		} else if !ok {
			continue
		}

		var t Trigger
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			r.logger.Warn("invalid trigger record", zap.String("trigger", k), zap.Error(err))
			continue
		}

		list = append(list, t)
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].Created.Before(list[j].Created) })

	return list, nil
}

// Purge deletes all the triggers the owner has registered for the document.
func (r *Registry) Purge(ctx context.Context, document string, owner string) (int, error) {
	ids, err := r.List(ctx, document, owner)
	if err != nil {
		return 0, err
	}

	if err := r.store.Update(ctx, props.Batch{Delete: ids}); err != nil {
		return 0, err
	}

	return len(ids), nil
}
