package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithComponentAddsField(t *testing.T) {
	l := WithComponent("session")
	// The child must be usable even when no explicit Configure call happened.
	assert.NotPanics(t, func() { l.Info().Msg("hello") })
}

func TestNopIsDisabled(t *testing.T) {
	l := Nop()
	assert.Equal(t, "disabled", l.GetLevel().String())
}
