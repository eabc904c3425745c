package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	memclock "github.com/Overland-East-Bay/contact-manager/internal/adapters/memory/clock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStore() (*Store, *memclock.ManualClock) {
	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	return NewStore(clk), clk
}

func TestFetch_ServesFreshValueWithoutCalling(t *testing.T) {
	t.Parallel()

	s, clk := newStore()
	var calls atomic.Int32
	fn := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	for i := 0; i < 3; i++ {
		v, err := Fetch(context.Background(), s, "k", time.Minute, fn)
		if err != nil || v != 1 {
			t.Fatalf("v=%d err=%v", v, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("calls=%d want=1", calls.Load())
	}

	clk.Advance(time.Minute)
	v, err := Fetch(context.Background(), s, "k", time.Minute, fn)
	if err != nil || v != 2 {
		t.Fatalf("after staleness v=%d err=%v, want refetch", v, err)
	}
}

func TestFetch_ZeroStaleTimeAlwaysRefetches(t *testing.T) {
	t.Parallel()

	s, _ := newStore()
	var calls atomic.Int32
	fn := func(context.Context) (int, error) { return int(calls.Add(1)), nil }

	_, _ = Fetch(context.Background(), s, "k", 0, fn)
	_, _ = Fetch(context.Background(), s, "k", 0, fn)
	if calls.Load() != 2 {
		t.Fatalf("calls=%d want=2", calls.Load())
	}
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	s, _ := newStore()
	boom := errors.New("boom")
	if _, err := Fetch(context.Background(), s, "k", time.Minute, func(context.Context) (string, error) {
		return "", boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
	if s.Cached("k") {
		t.Fatalf("error result was cached")
	}
}

func TestFetch_ConcurrentCallersShareOneCall(t *testing.T) {
	t.Parallel()

	s, _ := newStore()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	fn := func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return "shared", nil
	}

	const n = 5
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = Fetch(context.Background(), s, "k", time.Minute, fn)
	}()
	<-started
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Fetch(context.Background(), s, "k", time.Minute, fn)
		}(i)
	}
	// Give the joiners a moment to attach to the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("calls=%d want=1", calls.Load())
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil || results[i] != "shared" {
			t.Fatalf("caller %d: v=%q err=%v", i, results[i], errs[i])
		}
	}
}

func TestInvalidate_ByPrefix(t *testing.T) {
	t.Parallel()

	s, _ := newStore()
	for _, k := range []Key{"contacts/list", "contacts/detail/1", "contacts/detail/2", "contactsx"} {
		if _, err := Fetch(context.Background(), s, k, time.Minute, func(context.Context) (int, error) { return 1, nil }); err != nil {
			t.Fatalf("Fetch %s: %v", k, err)
		}
	}

	s.Invalidate("contacts/detail")
	if !s.Cached("contacts/list") || s.Cached("contacts/detail/1") || s.Cached("contacts/detail/2") {
		t.Fatalf("detail prefix invalidation wrong")
	}
	s.Invalidate("contacts")
	if s.Cached("contacts/list") {
		t.Fatalf("contacts/list should be gone")
	}
	if !s.Cached("contactsx") {
		t.Fatalf("sibling key with shared string prefix must survive")
	}
}

func TestInvalidate_FencesInFlightFetch(t *testing.T) {
	t.Parallel()

	s, _ := newStore()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	fn := func(context.Context) (string, error) {
		n := calls.Add(1)
		if n == 1 {
			close(started)
			<-release
			return "before-mutation", nil
		}
		return "after-mutation", nil
	}

	done := make(chan string)
	go func() {
		v, _ := Fetch(context.Background(), s, "contacts/list", time.Minute, fn)
		done <- v
	}()
	<-started
	s.Invalidate("contacts/list")

	// A read after the invalidation must not join the stale flight.
	v, err := Fetch(context.Background(), s, "contacts/list", time.Minute, fn)
	if err != nil || v != "after-mutation" {
		t.Fatalf("v=%q err=%v", v, err)
	}

	close(release)
	if got := <-done; got != "before-mutation" {
		t.Fatalf("original waiter got %q", got)
	}

	v, err = Fetch(context.Background(), s, "contacts/list", time.Minute, fn)
	if err != nil || v != "after-mutation" {
		t.Fatalf("cache holds %q, superseded result was written back", v)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls=%d want=2", calls.Load())
	}
}

func TestFetch_CallerCancellationDoesNotAbortSharedCall(t *testing.T) {
	t.Parallel()

	s, _ := newStore()
	release := make(chan struct{})
	started := make(chan struct{})
	finished := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		defer close(finished)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "v", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := Fetch(ctx, s, "k", time.Minute, fn)
		errc <- err
	}()
	<-started
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	close(release)
	<-finished

	// The detached call still completes and populates the cache.
	deadline := time.Now().Add(time.Second)
	for !s.Cached("k") {
		if time.Now().After(deadline) {
			t.Fatalf("value never cached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestClear_DropsEverything(t *testing.T) {
	t.Parallel()

	s, _ := newStore()
	_, _ = Fetch(context.Background(), s, "a", time.Minute, func(context.Context) (int, error) { return 1, nil })
	_, _ = Fetch(context.Background(), s, "b/c", time.Minute, func(context.Context) (int, error) { return 1, nil })
	s.Clear()
	if s.Cached("a") || s.Cached("b/c") {
		t.Fatalf("Clear left entries behind")
	}
}

func TestKeyOf(t *testing.T) {
	t.Parallel()

	if got := KeyOf("contacts", "detail", "42"); got != "contacts/detail/42" {
		t.Fatalf("KeyOf=%q", got)
	}
}
