package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow_NonDecreasing(t *testing.T) {
	defer func() {
		NowFunc = time.Now
		Reset()
	}()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	readings := []time.Time{base, base.Add(time.Second), base.Add(-time.Minute), base.Add(2 * time.Second)}
	var got []time.Time
	for _, r := range readings {
		r := r
		NowFunc = func() time.Time { return r }
		got = append(got, Now())
	}
	assert.Equal(t, base, got[0])
	assert.Equal(t, base.Add(time.Second), got[1])
	assert.Equal(t, base.Add(time.Second), got[2])
	assert.Equal(t, base.Add(2*time.Second), got[3])
}
