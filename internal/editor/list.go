package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/jerrywen2005/travel-journal/internal/gateway"
	"github.com/jerrywen2005/travel-journal/internal/record"
)

// SortDir is the list sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

const defaultPageSize = 20

// Fetch loads one page of rows for the list. Implementations translate the
// query into whatever backs the table: the records endpoint, an aggregation
// view, or a fake in tests.
type Fetch[T any] func(ctx context.Context, q gateway.ListQuery) ([]T, int, error)

// RecordLister is what the record list needs from the records gateway.
type RecordLister interface {
	List(ctx context.Context, q gateway.ListQuery) (*record.RecordsPage, error)
}

// ListState is a snapshot of a list.
type ListState[T any] struct {
	Items   []T
	Total   int
	SortKey string
	SortDir SortDir
	Limit   int
	Offset  int
	Query   string
	Err     error
}

// List drives a sortable, paginated table over any row type. Sorting is
// restricted to the keys the backing query understands.
type List[T any] struct {
	fetch    Fetch[T]
	sortKeys map[string]struct{}

	mu         sync.Mutex
	state      ListState[T]
	fetchGen   uint64
	subscriber func(ListState[T])
}

// NewList returns a list controller over fetch. sortKeys is the closed set
// of accepted sort keys; defaultKey must be one of them and starts
// descending.
func NewList[T any](fetch Fetch[T], sortKeys []string, defaultKey string) *List[T] {
	keys := make(map[string]struct{}, len(sortKeys))
	for _, k := range sortKeys {
		keys[k] = struct{}{}
	}
	return &List[T]{
		fetch:    fetch,
		sortKeys: keys,
		state: ListState[T]{
			SortKey: defaultKey,
			SortDir: SortDesc,
			Limit:   defaultPageSize,
		},
	}
}

// recordSortKeys mirrors the columns the records endpoint will order by.
var recordSortKeys = []string{"visited_at", "rating", "title", "country_code", "created_at"}

// NewRecordList returns the entries list: most recent visit first, sortable
// by the record columns.
func NewRecordList(g RecordLister) *List[record.TravelRecord] {
	return NewList(func(ctx context.Context, q gateway.ListQuery) ([]record.TravelRecord, int, error) {
		page, err := g.List(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		return page.Items, page.Total, nil
	}, recordSortKeys, "visited_at")
}

// Subscribe registers the state callback. The current state is delivered
// immediately, then after every change.
func (l *List[T]) Subscribe(fn func(ListState[T])) {
	l.mu.Lock()
	l.subscriber = fn
	snap := l.snapshotLocked()
	l.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// State returns the current snapshot.
func (l *List[T]) State() ListState[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *List[T]) snapshotLocked() ListState[T] {
	snap := l.state
	snap.Items = append([]T(nil), l.state.Items...)
	return snap
}

func (l *List[T]) notifyLocked() func() {
	fn := l.subscriber
	if fn == nil {
		return func() {}
	}
	snap := l.snapshotLocked()
	return func() { fn(snap) }
}

// SetSort changes the ordering and reloads from the first page. Picking the
// key already in use flips the direction; a new key starts descending. Keys
// outside the allowed set are rejected without touching the list.
func (l *List[T]) SetSort(ctx context.Context, key string) error {
	l.mu.Lock()
	if _, ok := l.sortKeys[key]; !ok {
		l.mu.Unlock()
		return fmt.Errorf("unknown sort key %q", key)
	}
	if key == l.state.SortKey {
		if l.state.SortDir == SortDesc {
			l.state.SortDir = SortAsc
		} else {
			l.state.SortDir = SortDesc
		}
	} else {
		l.state.SortKey = key
		l.state.SortDir = SortDesc
	}
	l.state.Offset = 0
	l.mu.Unlock()

	return l.Refresh(ctx)
}

// SetQuery changes the free-text filter and reloads from the first page.
func (l *List[T]) SetQuery(ctx context.Context, query string) error {
	l.mu.Lock()
	l.state.Query = query
	l.state.Offset = 0
	l.mu.Unlock()

	return l.Refresh(ctx)
}

// NextPage advances one page if more rows exist.
func (l *List[T]) NextPage(ctx context.Context) error {
	l.mu.Lock()
	if l.state.Offset+l.state.Limit >= l.state.Total {
		l.mu.Unlock()
		return nil
	}
	l.state.Offset += l.state.Limit
	l.mu.Unlock()

	return l.Refresh(ctx)
}

// PrevPage goes back one page, stopping at the first.
func (l *List[T]) PrevPage(ctx context.Context) error {
	l.mu.Lock()
	if l.state.Offset == 0 {
		l.mu.Unlock()
		return nil
	}
	l.state.Offset -= l.state.Limit
	if l.state.Offset < 0 {
		l.state.Offset = 0
	}
	l.mu.Unlock()

	return l.Refresh(ctx)
}

// Refresh reloads the current page. The result of an older fetch never
// overwrites a newer one.
func (l *List[T]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.fetchGen++
	gen := l.fetchGen
	q := gateway.ListQuery{
		Query:   l.state.Query,
		OrderBy: l.state.SortKey + ":" + string(l.state.SortDir),
		Limit:   l.state.Limit,
		Offset:  l.state.Offset,
	}
	l.mu.Unlock()

	items, total, err := l.fetch(ctx, q)

	l.mu.Lock()
	if gen != l.fetchGen {
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		l.state.Err = err
		notify := l.notifyLocked()
		l.mu.Unlock()
		notify()
		return err
	}
	l.state.Items = items
	l.state.Total = total
	l.state.Err = nil
	notify := l.notifyLocked()
	l.mu.Unlock()
	notify()
	return nil
}
