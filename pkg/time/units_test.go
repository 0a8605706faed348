package time

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("Day")
	if assert.NoError(t, err) {
		assert.Equal(t, Days, u)
	}
	u, err = ParseUnit("months")
	if assert.NoError(t, err) {
		assert.Equal(t, 30*Day, u.Duration(1))
	}
	_, err = ParseUnit("fortnights")
	assert.Error(t, err)
}

func TestUnit_Duration(t *testing.T) {
	assert.Equal(t, 90*time.Second, Seconds.Duration(90))
	assert.Equal(t, 2*Week, Weeks.Duration(2))
	assert.Equal(t, 365*Day, Years.Duration(1))
}
