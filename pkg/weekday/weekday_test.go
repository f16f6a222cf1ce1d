package weekday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromDate(t *testing.T) {
	// 2025-05-10 is a Saturday.
	sat := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		assert.Equal(t, i, FromDate(sat.AddDate(0, 0, i)), "day offset %d", i)
	}
}

func TestFromDateFriday(t *testing.T) {
	fri := time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 6, FromDate(fri))
}

func TestName(t *testing.T) {
	assert.Equal(t, "Saturday", Name(0))
	assert.Equal(t, "Friday", Name(6))
	assert.Equal(t, "", Name(7))
	assert.Equal(t, "", Name(-1))
}
