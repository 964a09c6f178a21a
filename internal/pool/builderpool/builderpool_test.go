package builderpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsEmptyBuilder(t *testing.T) {
	b := Get()
	b.Append([]byte("payload"))
	Put(b)

	again := Get()
	assert.Equal(t, 0, again.Len())
	assert.Empty(t, again.Bytes())
	Put(again)
}

func TestIndex(t *testing.T) {
	assert.Equal(t, 0, index(0))
	assert.Equal(t, 0, index(minSize))
	assert.Equal(t, 1, index(minSize+1))
	assert.Equal(t, 1, index(2*minSize))
	assert.Equal(t, steps-1, index(1<<30))
}

func TestCalibrate(t *testing.T) {
	var p Pool
	for i := 0; i < calibrateCallsThreshold+1; i++ {
		b := p.Get()
		p.Put(b)
	}
	assert.NotZero(t, p.defaultSize)
	assert.GreaterOrEqual(t, p.maxSize, p.defaultSize)
}
