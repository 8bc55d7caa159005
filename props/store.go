// Package props implements the flat key/value property stores that hold sheet linkage,
// schedules, OAuth tokens and registered triggers.
package props

import (
	"context"
	"fmt"
)

// Store is a flat string key/value map scoped to a single document, user or registry.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// Update applies all the sets and deletes in the batch as a single write.
	Update(ctx context.Context, batch Batch) error

	DeleteAll(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
}

// Batch is a set of property writes applied together. A key present in both Set and
// Delete is deleted.
type Batch struct {
	Set    map[string]string
	Delete []string
}

// Backend hands out scoped stores.
type Backend interface {
	Scope(name string) Store
	Close() error
}

func DocumentScope(spreadsheet string) string {
	return fmt.Sprintf("document:%v", spreadsheet)
}

func UserScope(email string) string {
	return fmt.Sprintf("user:%v", email)
}

const TriggerScope = "triggers"
