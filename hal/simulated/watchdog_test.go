package simulated

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchdogCountsFeedsAndResets(t *testing.T) {
	var w Watchdog

	w.Feed()
	w.Feed()
	w.Reset()

	assert.Equal(t, 2, w.FeedCount)
	assert.Equal(t, 1, w.ResetCount)
}
