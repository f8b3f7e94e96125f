package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCycleBounds(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)

	from, to := CycleBounds(2026, loc)

	assert.Equal(t, time.Date(2025, time.December, 31, 22, 0, 0, 0, time.UTC), from.UTC())
	assert.Equal(t, time.Date(2026, time.December, 31, 22, 0, 0, 0, time.UTC), to.UTC())
}
