package contacts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Overland-East-Bay/contact-manager/internal/platform/debounce"
)

// SearchResult is one delivered view together with the query it answers.
type SearchResult struct {
	Query Query
	Page  Page
	Err   error
}

// SearchSession drives list views from interactive input. Free-text search is
// debounced so a burst of keystrokes costs one derivation; group, sort and
// page changes apply at once. Only the newest launched request may deliver:
// older results that resolve late are dropped, as is anything resolving
// after Close.
type SearchSession struct {
	svc *Service
	deb *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	q       Query
	seq     uint64
	closed  bool
	results chan SearchResult
	wg      sync.WaitGroup
}

// NewSearchSession starts a session at q and immediately loads its first view.
func (s *Service) NewSearchSession(ctx context.Context, q Query, delay time.Duration) *SearchSession {
	ctx, cancel := context.WithCancel(ctx)
	ss := &SearchSession{
		svc:     s,
		deb:     debounce.New(delay),
		ctx:     ctx,
		cancel:  cancel,
		q:       q,
		results: make(chan SearchResult, 1),
	}
	ss.launch()
	return ss
}

// Results delivers views. Only the latest undelivered one is kept, and the
// channel is closed by Close.
func (ss *SearchSession) Results() <-chan SearchResult {
	return ss.results
}

// Query returns the session's current query.
func (ss *SearchSession) Query() Query {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.q
}

// SetSearch updates the search text, returns to the first page, and schedules
// a load once input has been quiet for the debounce delay.
func (ss *SearchSession) SetSearch(term string) {
	ss.mu.Lock()
	ss.q.Search = term
	ss.q.Page = 1
	ss.mu.Unlock()
	ss.deb.Trigger(ss.launch)
}

func (ss *SearchSession) SetGroup(group string) {
	ss.update(func(q *Query) {
		q.Group = group
		q.Page = 1
	})
}

func (ss *SearchSession) SetSort(by SortField, order SortOrder) {
	ss.update(func(q *Query) {
		q.SortBy = by
		q.SortOrder = order
	})
}

func (ss *SearchSession) SetPage(page int) {
	ss.update(func(q *Query) { q.Page = page })
}

// Refresh reloads the current query without waiting for the debouncer.
func (ss *SearchSession) Refresh() {
	ss.update(func(*Query) {})
}

// Close stops pending and in-flight work and closes Results.
func (ss *SearchSession) Close() {
	ss.deb.Stop()
	ss.mu.Lock()
	if ss.closed {
		ss.mu.Unlock()
		return
	}
	ss.closed = true
	ss.mu.Unlock()

	ss.cancel()
	ss.wg.Wait()
	close(ss.results)
}

func (ss *SearchSession) update(fn func(*Query)) {
	ss.mu.Lock()
	fn(&ss.q)
	ss.mu.Unlock()
	ss.deb.Cancel()
	ss.launch()
}

func (ss *SearchSession) launch() {
	ss.mu.Lock()
	if ss.closed {
		ss.mu.Unlock()
		return
	}
	ss.seq++
	seq, q := ss.seq, ss.q
	ss.wg.Add(1)
	ss.mu.Unlock()

	go func() {
		defer ss.wg.Done()
		page, err := ss.svc.List(ss.ctx, q)
		ss.deliver(seq, SearchResult{Query: q, Page: page, Err: err})
	}()
}

func (ss *SearchSession) deliver(seq uint64, r SearchResult) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed || seq != ss.seq {
		return
	}
	select {
	case ss.results <- r:
	default:
		// Replace the unread view with the newer one.
		select {
		case <-ss.results:
		default:
		}
		ss.results <- r
	}
}

// SearchSummary describes a result count for display next to the list.
func SearchSummary(term string, total int, loading bool) string {
	switch {
	case loading:
		return "Đang tìm kiếm..."
	case term == "":
		return fmt.Sprintf("Hiển thị tất cả %d liên hệ", total)
	case total == 0:
		return fmt.Sprintf("Tìm thấy %d kết quả cho %q. Thử tìm kiếm với từ khóa khác", total, term)
	default:
		return fmt.Sprintf("Tìm thấy %d kết quả cho %q", total, term)
	}
}
