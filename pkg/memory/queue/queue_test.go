package queue_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/memory"
	"github.com/papercomputeco/specialist/pkg/memory/queue"
	testutils "github.com/papercomputeco/specialist/pkg/utils/test"
)

// trackingStore records the peak number of concurrent writers per owner.
type trackingStore struct {
	mu     sync.Mutex
	active map[string]int
	peak   map[string]int
	total  atomic.Int64
	order  []string
}

func newTrackingStore() *trackingStore {
	return &trackingStore{active: map[string]int{}, peak: map[string]int{}}
}

func (s *trackingStore) enter(owner, label string) {
	s.mu.Lock()
	s.active[owner]++
	if s.active[owner] > s.peak[owner] {
		s.peak[owner] = s.active[owner]
	}
	s.order = append(s.order, label)
	s.mu.Unlock()
}

func (s *trackingStore) leave(owner string) {
	s.mu.Lock()
	s.active[owner]--
	s.mu.Unlock()
}

func (s *trackingStore) Add(_ context.Context, messages []llm.Message, owner string) ([]memory.Operation, error) {
	s.enter(owner, messages[0].GetText())
	defer s.leave(owner)
	time.Sleep(2 * time.Millisecond)
	s.total.Add(1)
	return []memory.Operation{{ID: owner, Text: messages[0].GetText(), Event: memory.EventAdd}}, nil
}

func (s *trackingStore) AddFacts(_ context.Context, facts []string, owner string) ([]memory.Operation, error) {
	s.enter(owner, facts[0])
	defer s.leave(owner)
	s.total.Add(1)
	return []memory.Operation{{ID: owner, Text: facts[0], Event: memory.EventAdd}}, nil
}

func (s *trackingStore) Peak(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak[owner]
}

var _ = Describe("Queue", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("returns the store's operations", func() {
		store := newTrackingStore()
		q := queue.New(store, queue.Config{})
		defer q.Close()

		ops, err := q.Add(ctx, []llm.Message{llm.NewTextMessage(llm.RoleUser, "hello")}, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ops).To(Equal([]memory.Operation{{ID: "s1", Text: "hello", Event: memory.EventAdd}}))

		ops, err = q.AddFacts(ctx, []string{"Likes tea"}, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ops[0].Text).To(Equal("Likes tea"))
	})

	It("rejects an empty owner", func() {
		q := queue.New(newTrackingStore(), queue.Config{})
		defer q.Close()

		_, err := q.AddFacts(ctx, []string{"x"}, "")
		Expect(err).To(MatchError(memory.ErrEmptyOwner))
	})

	It("never runs two writes for the same owner at once", func() {
		store := newTrackingStore()
		q := queue.New(store, queue.Config{})

		var wg sync.WaitGroup
		for i := range 20 {
			owner := fmt.Sprintf("s%d", i%2)
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := q.Add(ctx, []llm.Message{llm.NewTextMessage(llm.RoleUser, fmt.Sprint(i))}, owner)
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()
		q.Close()

		Expect(store.total.Load()).To(Equal(int64(20)))
		Expect(store.Peak("s0")).To(Equal(1))
		Expect(store.Peak("s1")).To(Equal(1))
	})

	It("preserves submission order within an owner", func() {
		store := newTrackingStore()
		q := queue.New(store, queue.Config{})
		defer q.Close()

		for i := range 5 {
			_, err := q.AddFacts(ctx, []string{fmt.Sprint(i)}, "s1")
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(store.order).To(Equal([]string{"0", "1", "2", "3", "4"}))
	})

	It("refuses work after Close", func() {
		q := queue.New(newTrackingStore(), queue.Config{})
		q.Close()
		q.Close()

		_, err := q.AddFacts(ctx, []string{"x"}, "s1")
		Expect(err).To(MatchError(queue.ErrClosed))
	})

	It("honors a cancelled context", func() {
		q := queue.New(newTrackingStore(), queue.Config{})
		defer q.Close()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := q.AddFacts(cctx, []string{"x"}, "s1")
		Expect(err).To(MatchError(context.Canceled))
	})

	It("retires idle lanes and restarts them on demand", func() {
		store := newTrackingStore()
		q := queue.New(store, queue.Config{IdleTimeout: 20 * time.Millisecond})
		defer q.Close()

		for _, owner := range []string{"s1", "s2", "s3"} {
			_, err := q.AddFacts(ctx, []string{owner}, owner)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(q.Lanes()).To(BeNumerically(">", 0))
		Eventually(q.Lanes, time.Second, 5*time.Millisecond).Should(BeZero())

		ops, err := q.AddFacts(ctx, []string{"back again"}, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ops[0].Text).To(Equal("back again"))
		Expect(store.total.Load()).To(Equal(int64(4)))
	})

	It("keeps a busy lane alive past the idle timeout", func() {
		store := newTrackingStore()
		q := queue.New(store, queue.Config{IdleTimeout: 5 * time.Millisecond})

		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := q.Add(ctx, []llm.Message{llm.NewTextMessage(llm.RoleUser, fmt.Sprint(i))}, "s1")
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()
		q.Close()

		Expect(store.total.Load()).To(Equal(int64(50)))
		Expect(store.Peak("s1")).To(Equal(1))
	})

	It("writes through a real Memory", func() {
		driver := testutils.NewMockDriver()
		mem, err := memory.New(memory.Config{Driver: driver})
		Expect(err).NotTo(HaveOccurred())

		q := queue.New(mem, queue.Config{})
		_, err = q.AddFacts(ctx, []string{"Likes tea", "Has a cat"}, "s1")
		Expect(err).NotTo(HaveOccurred())
		q.Close()

		all, _ := mem.GetAll(ctx, "s1", 0)
		Expect(all).To(HaveLen(2))
	})
})
