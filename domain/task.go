package domain

import (
	"fmt"
	"time"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 500
)

// Task is a single to-do item. ID and CreatedAt are assigned by the store on
// insert and never change afterwards.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t *Task) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d - %s", t.ID, t.Title)
}

// Now returns the timestamp stored as CreatedAt. Microsecond precision keeps
// the value identical across every storage engine; it is rounded up so the
// stamp never precedes the moment of the call.
func Now() time.Time {
	t := time.Now().UTC()
	if r := t.Truncate(time.Microsecond); !r.Equal(t) {
		return r.Add(time.Microsecond)
	}
	return t
}
