package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCPUNum(t *testing.T) {
	assert.Greater(t, GetCPUNum(), 0)
}
