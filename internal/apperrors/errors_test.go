package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	// Хелперы должны узнавать свои типы сквозь fmt.Errorf %w
	wrapped := fmt.Errorf("service: could not get incident: %w", NotFound(42))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNetwork(wrapped))

	wrapped = fmt.Errorf("refresh: %w", Network(errors.New("connection refused")))
	assert.True(t, IsNetwork(wrapped))

	wrapped = fmt.Errorf("create: %w", Validation("bad draft", nil))
	assert.True(t, IsValidation(wrapped))
}

func TestGateway_DefaultsMessageToStatus(t *testing.T) {
	err := Gateway(503, "")
	assert.Equal(t, "gateway: HTTP 503", err.Error())

	err = Gateway(500, "database on fire")
	assert.Equal(t, "gateway: database on fire", err.Error())
}
