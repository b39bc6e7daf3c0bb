package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	var observed []Counts
	p := New("exec-1", 3, func(c Counts) { observed = append(observed, c) })
	assert.Equal(t, Counts{Total: 3, Pending: 3}, p.Snapshot())

	p.Update(Delta{Running: 1, Pending: -1})
	p.Update(Delta{Running: -1, Completed: 1})
	p.Update(Delta{Pending: -1, Completed: 1, Failed: 1})

	assert.Equal(t, Counts{Total: 3, Completed: 2, Failed: 1, Pending: 1}, p.Snapshot())
	assert.Len(t, observed, 3)
	assert.InDelta(t, 66.66, p.Snapshot().Percent(), 0.01)
}

func TestProgress_Concurrent(t *testing.T) {
	p := New("exec-2", 100, nil)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Update(Delta{Pending: -1, Completed: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, p.Snapshot().Completed)
	assert.Equal(t, 0, p.Snapshot().Pending)
	assert.Equal(t, float64(100), p.Snapshot().Percent())
}

func TestProgress_Nil(t *testing.T) {
	var p *Progress
	p.Update(Delta{Completed: 1})
	assert.Equal(t, Counts{}, p.Snapshot())
}
