package workerpool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/core/workerpool"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestWorkerPool(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Worker Pool Suite")
}

var _ = Describe("Pool", func() {
	It("processes every submitted job", func() {
		var mu sync.Mutex
		seen := map[int]bool{}
		pool := workerpool.New("test", workerpool.Config{MaxWorkers: 3, JobQueueSize: 20}, func(_ context.Context, n int) {
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}, logger.Discard())
		pool.Start()

		for i := 0; i < 10; i++ {
			Expect(pool.Submit(i)).To(Succeed())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		pool.Shutdown(ctx)

		mu.Lock()
		defer mu.Unlock()
		Expect(seen).To(HaveLen(10))
	})

	It("rejects jobs when the queue is full", func() {
		block := make(chan struct{})
		pool := workerpool.New("full", workerpool.Config{MaxWorkers: 1, JobQueueSize: 1}, func(_ context.Context, _ int) {
			<-block
		}, logger.Discard())

		// not started: nothing drains the queue
		Expect(pool.Submit(1)).To(Succeed())
		Expect(pool.Submit(2)).To(MatchError(workerpool.ErrQueueFull))
		Expect(pool.QueueLength()).To(Equal(1))
		close(block)
	})

	It("runs delayed jobs before shutting down", func() {
		var count atomic.Int32
		pool := workerpool.New("delayed", workerpool.Config{MaxWorkers: 1}, func(_ context.Context, _ string) {
			count.Add(1)
		}, logger.Discard())
		pool.Start()

		pool.SubmitAfter(50*time.Millisecond, "later")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		pool.Shutdown(ctx)

		Expect(count.Load()).To(Equal(int32(1)))
	})

	It("hands back queued jobs that never reached a worker", func() {
		started := make(chan int, 1)
		pool := workerpool.New("stuck", workerpool.Config{MaxWorkers: 1, JobQueueSize: 5}, func(ctx context.Context, n int) {
			started <- n
			<-ctx.Done()
		}, logger.Discard())
		pool.Start()

		Expect(pool.Submit(1)).To(Succeed())
		Eventually(started).Should(Receive(Equal(1)))
		Expect(pool.Submit(2)).To(Succeed())
		Expect(pool.Submit(3)).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		pool.Shutdown(ctx)

		Expect(pool.Unprocessed()).To(ConsistOf(2, 3))
		Expect(pool.Pending()).To(BeZero())
	})

	It("refuses new jobs after shutdown", func() {
		pool := workerpool.New("stopped", workerpool.Config{}, func(_ context.Context, _ int) {}, logger.Discard())
		pool.Start()
		pool.Shutdown(context.Background())

		Expect(pool.Submit(1)).To(MatchError(workerpool.ErrStopped))
	})

	It("survives a panicking job", func() {
		var count atomic.Int32
		pool := workerpool.New("panics", workerpool.Config{MaxWorkers: 1}, func(_ context.Context, n int) {
			if n == 0 {
				panic("boom")
			}
			count.Add(1)
		}, logger.Discard())
		pool.Start()

		Expect(pool.Submit(0)).To(Succeed())
		Expect(pool.Submit(1)).To(Succeed())

		Eventually(count.Load).Should(Equal(int32(1)))
		pool.Shutdown(context.Background())
	})
})
