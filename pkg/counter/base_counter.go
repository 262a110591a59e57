package counter

import (
	"fmt"
	"sync/atomic"
)

type baseCounter struct {
	count int64
}

// NewBaseCounter returns an atomic counter
func NewBaseCounter() *baseCounter {
	return &baseCounter{}
}

func (c *baseCounter) Incr() {
	atomic.AddInt64(&c.count, 1)
}

// Add adds delta, which may be negative, and returns the new value.
func (c *baseCounter) Add(delta int64) int64 {
	return atomic.AddInt64(&c.count, delta)
}

func (c *baseCounter) Get() int64 {
	return atomic.LoadInt64(&c.count)
}

func (c *baseCounter) Set(i int64) {
	atomic.StoreInt64(&c.count, i)
}

func (c *baseCounter) String() string {
	return fmt.Sprint(c.Get())
}
