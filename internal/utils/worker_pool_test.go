package utils_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/benmeehan/device-locations/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsEveryJob(t *testing.T) {
	pool := utils.NewWorkerPool(3)
	var done atomic.Int64

	for i := 0; i < 100; i++ {
		pool.Submit(func() { done.Add(1) })
	}
	pool.Shutdown()

	assert.Equal(t, int64(100), done.Load())
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := utils.NewWorkerPool(2)
	var active, peak atomic.Int64

	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		})
	}
	pool.Shutdown()

	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.Equal(t, int64(0), active.Load())
}

func TestWorkerPool_ShutdownTwice(t *testing.T) {
	pool := utils.NewWorkerPool(0)
	pool.Submit(func() {})

	assert.NotPanics(t, func() {
		pool.Shutdown()
		pool.Shutdown()
	})
}
