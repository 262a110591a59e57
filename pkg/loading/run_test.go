package loading_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/scality/backbeat/shared-loading/pkg/loading"
)

var errBoom = errors.New("x")

var _ = Describe("Run", func() {
	var (
		ctx context.Context
		tr  *loading.Tracker
	)

	BeforeEach(func() {
		ctx = context.Background()
		tr = loading.New(loading.WithName("run"))
	})

	It("should count the task while it executes", func() {
		var during, loadingDuring = int64(-1), false

		err := tr.Run(ctx, loading.Func(func() {
			during = tr.Running()
			loadingDuring = tr.IsLoading()
		}))

		Expect(err).NotTo(HaveOccurred())
		Expect(during).To(Equal(int64(1)))
		Expect(loadingDuring).To(BeTrue())
		Expect(tr.Running()).To(BeZero())
		Expect(tr.IsLoading()).To(BeFalse())
	})

	It("should leave the count unchanged on success", func() {
		tr.Incr()

		Expect(tr.Run(ctx, loading.Func(func() {}))).To(Succeed())

		Expect(tr.Running()).To(Equal(int64(1)))
		Expect(tr.Outcomes().Succeeded.Get()).To(BeEquivalentTo(1))
	})

	It("should surface task failures and release the count", func() {
		tr.Incr()

		err := tr.Run(ctx, loading.ErrFunc(func() error {
			return errBoom
		}))

		Expect(err).To(HaveOccurred())
		Expect(tr.Running()).To(Equal(int64(1)))
		Expect(tr.Outcomes().Failed.Get()).To(BeEquivalentTo(1))
	})

	It("should keep the cause observable", func() {
		err := tr.Run(ctx, func(context.Context) error {
			return errors.Wrap(errBoom, "fetch")
		})

		var failure *loading.TaskFailure
		Expect(errors.As(err, &failure)).To(BeTrue())
		Expect(failure.Tracker).To(Equal("run"))
		Expect(errors.Is(err, errBoom)).To(BeTrue())
		Expect(errors.Cause(err)).To(Equal(errBoom))
		Expect(err.Error()).To(Equal("run: task failed: fetch: x"))
		Expect(tr.Running()).To(BeZero())
	})

	It("should release the count when the task panics", func() {
		Expect(func() {
			_ = tr.Run(ctx, loading.Func(func() {
				panic("boom")
			}))
		}).To(Panic())

		Expect(tr.Running()).To(BeZero())
		Expect(tr.IsLoading()).To(BeFalse())
		Expect(tr.Outcomes().Panicked.Get()).To(BeEquivalentTo(1))
		Expect(tr.Outcomes().InFlight()).To(BeZero())
	})

	It("should hand the context to the task", func() {
		type key struct{}
		ctx = context.WithValue(ctx, key{}, "v")

		err := tr.Run(ctx, func(ctx context.Context) error {
			Expect(ctx.Value(key{})).To(Equal("v"))
			return nil
		})

		Expect(err).NotTo(HaveOccurred())
	})

	It("should compose overlapping runs", func() {
		releaseA := make(chan struct{})
		releaseB := make(chan struct{})

		doneA := tr.Go(ctx, loading.Func(func() { <-releaseA }))
		doneB := tr.Go(ctx, loading.Func(func() { <-releaseB }))

		Expect(tr.Running()).To(Equal(int64(2)))
		Expect(tr.IsLoading()).To(BeTrue())

		close(releaseB)
		Eventually(doneB).Should(Receive(BeNil()))
		Expect(tr.Running()).To(Equal(int64(1)))
		Expect(tr.IsLoading()).To(BeTrue())

		close(releaseA)
		Eventually(doneA).Should(Receive(BeNil()))
		Expect(tr.Running()).To(BeZero())
		Expect(tr.IsLoading()).To(BeFalse())
	})

	It("should deliver failures from Go", func() {
		done := tr.Go(ctx, loading.ErrFunc(func() error { return errBoom }))

		var err error
		Eventually(done).Should(Receive(&err))
		Expect(errors.Is(err, errBoom)).To(BeTrue())
		Expect(tr.Running()).To(BeZero())
	})

	Describe("RunAll", func() {
		It("should count every task while they run together", func() {
			started := &sync.WaitGroup{}
			release := make(chan struct{})
			task := loading.Func(func() {
				started.Done()
				<-release
			})

			started.Add(3)
			done := make(chan error, 1)

			go func() {
				done <- tr.RunAll(ctx, task, task, task)
			}()

			started.Wait()
			Expect(tr.Running()).To(Equal(int64(3)))

			close(release)
			Eventually(done).Should(Receive(BeNil()))
			Expect(tr.Running()).To(BeZero())
			Expect(tr.Outcomes().Succeeded.Get()).To(BeEquivalentTo(3))
		})

		It("should return the first failure and cancel the others", func() {
			waiting := func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			}
			failing := func(context.Context) error {
				return errBoom
			}

			err := tr.RunAll(ctx, waiting, failing, waiting)

			Expect(errors.Is(err, errBoom)).To(BeTrue())
			Expect(tr.Running()).To(BeZero())
			Expect(tr.IsLoading()).To(BeFalse())
			Expect(tr.Outcomes().Failed.Get()).To(BeEquivalentTo(1))
			Expect(tr.Outcomes().Succeeded.Get()).To(BeEquivalentTo(2))
		})

		It("should succeed with no tasks", func() {
			Expect(tr.RunAll(ctx)).To(Succeed())
			Expect(tr.State().Seq).To(BeZero())
		})
	})
})
