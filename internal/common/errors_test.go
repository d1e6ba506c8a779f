package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidInput(t *testing.T) {
	err := fmt.Errorf("handler: %w", InvalidInput("mode must be full or fast"))

	assert.Equal(t, CodeInvalidInput, CodeOf(err))
	assert.True(t, HasCode(err, CodeInvalidInput))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "mode must be full or fast")
}

func TestCodeOf_UncodedIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.False(t, HasCode(errors.New("boom"), CodeValidation))
}
