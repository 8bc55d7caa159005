package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/props"
)

type trigger struct {
	document string
	owner    string
	timing   Timing
}

type scheduler struct {
	next     int
	triggers map[string]trigger
	deleted  []string
}

func newScheduler() *scheduler {
	return &scheduler{
		triggers: map[string]trigger{},
	}
}

func (s *scheduler) Create(ctx context.Context, document string, owner string, timing Timing) (string, error) {
	s.next++
	id := fmt.Sprintf("trigger-%v", s.next)
	s.triggers[id] = trigger{document, owner, timing}

	return id, nil
}

func (s *scheduler) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.triggers, id)

	return nil
}

func (s *scheduler) List(ctx context.Context, document string, owner string) ([]string, error) {
	list := []string{}
	for id, t := range s.triggers {
		if t.document == document && t.owner == owner {
			list = append(list, id)
		}
	}

	return list, nil
}

const user = "someone@example.com"

func setup() (*Manager, props.Store, *scheduler) {
	store := props.NewMemory().Scope(props.DocumentScope("abc"))
	s := newScheduler()

	return NewManager("abc", store, s, zap.NewNop()), store, s
}

func TestWeeklyScheduleRoundTrip(t *testing.T) {
	ctx := context.Background()
	manager, store, s := setup()

	summary, err := manager.Set(ctx, user, true, Weekly, "MONDAY", "14")
	require.NoError(t, err)
	assert.Equal(t, "Current Sync Schedule: Weekly on Monday between 2pm to 3pm. Created by: someone@example.com", summary)

	summary, err = manager.Summary(ctx, user)
	require.NoError(t, err)
	assert.Contains(t, summary, "Monday")
	assert.Contains(t, summary, "2pm to 3pm")

	require.Len(t, s.triggers, 1)
	for _, tr := range s.triggers {
		assert.Equal(t, Timing{Frequency: Weekly, Weekday: time.Monday, Hour: 14}, tr.timing)
	}

	for k, v := range map[string]string{
		FrequencyKey: "weekly",
		PrimaryKey:   "MONDAY",
		SecondaryKey: "14",
		CreatedByKey: user,
		TriggerIDKey: "trigger-1",
	} {
		value, ok, err := store.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok, k)
		assert.Equal(t, v, value, k)
	}
}

func TestDisableSchedule(t *testing.T) {
	ctx := context.Background()
	manager, store, s := setup()

	_, err := manager.Set(ctx, user, true, Weekly, "MONDAY", "14")
	require.NoError(t, err)

	summary, err := manager.Set(ctx, user, false, None, "", "")
	require.NoError(t, err)
	assert.Equal(t, "", summary)
	assert.Empty(t, s.triggers)
	assert.Equal(t, []string{"trigger-1"}, s.deleted)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	summary, err = manager.Summary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "", summary)
}

func TestReplaceSchedule(t *testing.T) {
	ctx := context.Background()
	manager, store, s := setup()

	_, err := manager.Set(ctx, user, true, Weekly, "FRIDAY", "9")
	require.NoError(t, err)

	summary, err := manager.Set(ctx, "other@example.com", true, Hourly, "4", "")
	require.NoError(t, err)
	assert.Equal(t, "Current Sync Schedule: Every 4 Hours. Created by: other@example.com", summary)

	assert.Equal(t, []string{"trigger-1"}, s.deleted)
	assert.Len(t, s.triggers, 1)

	_, ok, err := store.Get(ctx, SecondaryKey)
	require.NoError(t, err)
	assert.False(t, ok)

	summary, err = manager.Set(ctx, user, true, Daily, "0", "")
	require.NoError(t, err)
	assert.Equal(t, "Current Sync Schedule: Daily between Midnight to 1am. Created by: someone@example.com", summary)
}

func TestInvalidScheduleKeepsCurrentTrigger(t *testing.T) {
	ctx := context.Background()
	manager, _, s := setup()

	_, err := manager.Set(ctx, user, true, Daily, "23", "")
	require.NoError(t, err)

	tests := []struct {
		frequency Frequency
		primary   string
		secondary string
	}{
		{Hourly, "3", ""},
		{Daily, "24", ""},
		{Weekly, "FUNDAY", "1"},
		{Weekly, "MONDAY", ""},
		{None, "1", ""},
	}

	for _, test := range tests {
		_, err := manager.Set(ctx, user, true, test.frequency, test.primary, test.secondary)
		assert.Error(t, err, "%v %v %v", test.frequency, test.primary, test.secondary)
	}

	assert.Empty(t, s.deleted)
	assert.Len(t, s.triggers, 1)
}

type unwritable struct {
	props.Store
}

func (s unwritable) Update(ctx context.Context, batch props.Batch) error {
	return errors.New("read-only property store")
}

func TestFailedScheduleUpdateDeletesTrigger(t *testing.T) {
	ctx := context.Background()
	store := unwritable{props.NewMemory().Scope(props.DocumentScope("abc"))}
	s := newScheduler()
	manager := NewManager("abc", store, s, zap.NewNop())

	_, err := manager.Set(ctx, user, true, Daily, "6", "")
	require.Error(t, err)

	assert.Empty(t, s.triggers)
	assert.Equal(t, []string{"trigger-1"}, s.deleted)
}

func TestClearSchedule(t *testing.T) {
	ctx := context.Background()
	manager, store, s := setup()

	_, err := manager.Set(ctx, user, true, Hourly, "4", "")
	require.NoError(t, err)

	require.NoError(t, manager.Clear(ctx))
	assert.Empty(t, s.triggers)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, manager.Clear(ctx))
}

func TestOrphanedSchedule(t *testing.T) {
	ctx := context.Background()
	manager, store, s := setup()

	_, err := manager.Set(ctx, user, true, Daily, "6", "")
	require.NoError(t, err)

	// ... trigger deleted out of band
	s.triggers = map[string]trigger{}

	summary, err := manager.Summary(ctx, "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Current Sync Schedule: Daily between 6am to 7am. Created by: someone@example.com", summary)

	summary, err = manager.Summary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "", summary)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestWindow(t *testing.T) {
	tests := map[int]string{
		0:  "Midnight to 1am",
		11: "11am to noon",
		12: "noon to 1pm",
		14: "2pm to 3pm",
		23: "11pm to midnight",
		24: "",
		-1: "",
	}

	for hour, expected := range tests {
		if w := Window(hour); w != expected {
			t.Errorf("Incorrect window for %v\n   expected: %v\n   got:      %v\n", hour, expected, w)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	for name, expected := range map[string]time.Weekday{"MONDAY": time.Monday, "sunday": time.Sunday, " Saturday ": time.Saturday} {
		if d, err := ParseWeekday(name); err != nil {
			t.Errorf("Unexpected error parsing '%v' (%v)", name, err)
		} else if d != expected {
			t.Errorf("Incorrect weekday\n   expected: %v\n   got:      %v\n", expected, d)
		}
	}
}
