package counter_test

import (
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/scality/backbeat/shared-loading/pkg/counter"
)

func hammer(c counter.Counter, n int, delta int64, startSignal chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	<-startSignal

	for i := 0; i < n; i++ {
		c.Add(delta)
	}
}

var _ = Describe("BaseCounter", func() {
	It("should increment atomically", func() {
		wg := &sync.WaitGroup{}
		c := counter.NewBaseCounter()
		startSignal := make(chan struct{})

		wg.Add(4)
		go hammer(c, 250000, 1, startSignal, wg)
		go hammer(c, 250000, 1, startSignal, wg)
		go hammer(c, 250000, 1, startSignal, wg)
		go hammer(c, 250000, 1, startSignal, wg)

		close(startSignal)
		wg.Wait()

		Expect(c.Get()).To(Equal(int64(1000000)))
	})

	It("should balance concurrent increments and decrements", func() {
		wg := &sync.WaitGroup{}
		c := counter.NewBaseCounter()
		startSignal := make(chan struct{})

		wg.Add(4)
		go hammer(c, 100000, 1, startSignal, wg)
		go hammer(c, 100000, -1, startSignal, wg)
		go hammer(c, 100000, 1, startSignal, wg)
		go hammer(c, 100000, -1, startSignal, wg)

		close(startSignal)
		wg.Wait()

		Expect(c.Get()).To(BeZero())
	})

	It("should go below zero", func() {
		c := counter.NewBaseCounter()

		c.Add(-2)
		c.Incr()

		Expect(c.Get()).To(Equal(int64(-1)))
	})

	It("should return the new value from Add", func() {
		c := counter.NewBaseCounter()

		Expect(c.Add(5)).To(Equal(int64(5)))
		Expect(c.Add(-2)).To(Equal(int64(3)))
	})

	It("should implement Get", func() {
		c := counter.NewBaseCounter()

		c.Set(30)

		Expect(c.Get()).To(Equal(int64(30)))
	})

	It("should implement String", func() {
		c := counter.NewBaseCounter()

		c.Set(30)

		Expect(c.String()).To(Equal("30"))
	})
})
