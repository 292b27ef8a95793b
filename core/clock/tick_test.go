package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextAdvancesByOne(t *testing.T) {
	var t0 Tick
	assert.Equal(t, Tick(1), t0.Next())
	assert.Equal(t, Tick(6), Tick(5).Next())
}

func TestSinceReportsElapsedTicks(t *testing.T) {
	assert.Equal(t, uint64(5), Tick(10).Since(Tick(5)))
	assert.Equal(t, uint64(0), Tick(10).Since(Tick(10)))
}

func TestSinceSaturatesAtZeroWhenEarlierIsInFuture(t *testing.T) {
	assert.Equal(t, uint64(0), Tick(5).Since(Tick(10)))
}
