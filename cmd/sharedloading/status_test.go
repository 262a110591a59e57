package main

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/scality/backbeat/shared-loading/pkg/exporter"
	"github.com/scality/backbeat/shared-loading/pkg/loading"
)

var _ = Describe("status", func() {
	listenOn := "localhost:14446"
	addr := "http://" + listenOn

	var (
		ctx     context.Context
		cancel  context.CancelFunc
		wg      *sync.WaitGroup
		tracker *loading.Tracker
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		wg = &sync.WaitGroup{}
		tracker = loading.New(loading.WithName("page"))

		Expect(exporter.NewExporter().Start(ctx, listenOn, []*loading.Tracker{tracker}, time.Second, wg)).To(Succeed())

		Eventually(func() error {
			_, err := exporter.FetchStatus(nil, addr)
			return err
		}).Should(Succeed())
	})

	AfterEach(func() {
		cancel()
		wg.Wait()
	})

	It("should print every tracker", func() {
		tracker.Incr()

		s, err := waitIdle(ctx, resty.New(), addr, 0, time.Millisecond)
		Expect(err).NotTo(HaveOccurred())

		out := &bytes.Buffer{}
		printStatus(out, s)

		Expect(out.String()).To(HavePrefix("name=page running=1 loading=true seq=1 outcomes=map["))
	})

	It("should wait until trackers are idle", func() {
		tracker.Incr()
		time.AfterFunc(50*time.Millisecond, tracker.Decr)

		s, err := waitIdle(ctx, resty.New(), addr, 5*time.Second, 10*time.Millisecond)

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Loading()).To(BeFalse())
	})

	It("should refuse to poll without an interval", func() {
		tracker.Incr()

		_, err := waitIdle(ctx, resty.New(), addr, time.Second, 0)

		Expect(errors.Is(err, errPollInterval)).To(BeTrue())
	})

	It("should not need an interval when not waiting", func() {
		_, err := waitIdle(ctx, resty.New(), addr, 0, 0)

		Expect(err).NotTo(HaveOccurred())
	})

	It("should give up after the wait budget", func() {
		tracker.Incr()

		s, err := waitIdle(ctx, resty.New(), addr, 30*time.Millisecond, 10*time.Millisecond)

		Expect(errors.Is(err, errStillLoading)).To(BeTrue())
		Expect(s.Loading()).To(BeTrue())
	})
})
