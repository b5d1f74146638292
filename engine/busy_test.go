package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBusy(t *testing.T) {
	assert.False(t, IsBusy(nil))
	assert.False(t, IsBusy(errors.New("constraint failed")))
	assert.False(t, IsBusy(ErrCanceled))
	assert.True(t, IsBusy(ErrBusy))
	assert.True(t, IsBusy(fmt.Errorf("insert order: %w", ErrBusy)))
}
