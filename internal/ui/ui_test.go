package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewUI(t *testing.T) {
	u := NewUI(true, false)
	assert.True(t, u.Verbose)
	assert.False(t, u.Quiet)
}

func TestColorFuncPassthrough(t *testing.T) {
	if supportsColor {
		t.Skip("stdout is a terminal, color helpers wrap text")
	}
	assert.Equal(t, "plain", ColorSuccess("plain"))
	assert.Equal(t, "plain", ColorError("plain"))
}

func TestSpinnerStopIdempotent(t *testing.T) {
	s := NewSpinner("working")
	s.Start()
	time.Sleep(10 * time.Millisecond)

	s.Stop(true, "done")
	assert.NotPanics(t, func() { s.Stop(true, "done again") })
}

func TestQuietSuppressesProgress(t *testing.T) {
	u := NewUI(false, true)
	u.StartProgress("should not start")
	assert.Nil(t, u.spinner)
	u.StopProgress(true, "noop")
}
