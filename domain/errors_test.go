package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		notFound   bool
	}{
		{name: "validation", err: NewValidationError("title required"), validation: true},
		{name: "not found", err: ErrTaskNotFound, notFound: true},
		{name: "wrapped not found", err: fmt.Errorf("update: %w", ErrTaskNotFound), notFound: true},
		{name: "plain error", err: errors.New("disk full")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(ErrCodeInternal, "insert task", cause)

	assert.Equal(t, "insert task: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "title required", NewValidationError("title required").Error())
}

func TestTaskString(t *testing.T) {
	task := &Task{ID: 3, Title: "Buy milk"}
	assert.Equal(t, "3 - Buy milk", task.String())

	var missing *Task
	assert.Equal(t, "<nil>", missing.String())
}
