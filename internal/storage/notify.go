package storage

import (
	"context"
	"log"
	"sync"
)

// Action mirrors the three notification kinds a live query can emit.
type Action int

const (
	Create Action = iota
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Create:
		return "CREATE"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Notification is what a live subscription delivers.
type Notification struct {
	Action Action
	Row    Row
}

// Filter decides whether a Notification should be delivered to a given
// subscription. Returning an error drops that notification and offers
// the error on the subscription's Err channel (which buffers at most
// one); the subscription itself stays open.
type Filter func(ctx context.Context, s *Store, n Notification) (bool, error)

// subscriptionBuffer bounds how many pending notifications a slow
// consumer may accumulate before the oldest is dropped. The design notes
// call out that the corpus is inconsistent here and asks the
// implementation to document its choice: this one is bounded with
// drop-oldest, logging when a slot is evicted, so a stalled UI never
// backs up memory growth in the crawler.
const subscriptionBuffer = 256

// Subscription is a restartable stream of notifications for one table.
// The core never retries it internally (spec §4.6) — a consumer that
// sees Notifications() closed (Close or Store.Close) or an error on
// Err() calls Live/LiveQuery again.
type Subscription struct {
	table string
	ch    chan Notification
	errCh chan error

	store  *Store
	filter Filter

	mu     sync.Mutex
	closed bool
}

// Notifications returns the channel of delivered notifications.
func (sub *Subscription) Notifications() <-chan Notification { return sub.ch }

// Err returns a channel that buffers at most one filter error. It is
// never closed, and closing the store sends nothing on it.
func (sub *Subscription) Err() <-chan error { return sub.errCh }

// Close unregisters the subscription. Safe to call more than once.
func (sub *Subscription) Close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	sub.store.notifier.remove(sub.table, sub)
	close(sub.ch)
}

func (sub *Subscription) deliver(ctx context.Context, n Notification) {
	if sub.filter != nil {
		ok, err := sub.filter(ctx, sub.store, n)
		if err != nil {
			select {
			case sub.errCh <- err:
			default:
			}
			return
		}
		if !ok {
			return
		}
	}

	select {
	case sub.ch <- n:
	default:
		// Drop-oldest: make room for the freshest notification rather
		// than blocking the goroutine that just committed a write.
		select {
		case <-sub.ch:
			log.Printf("storage: subscription on %s dropped a stale notification", sub.table)
		default:
		}
		select {
		case sub.ch <- n:
		default:
		}
	}
}

// notifier fans out committed mutations to every live subscription on
// the affected table.
type notifier struct {
	mu   sync.Mutex
	subs map[string][]*Subscription
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string][]*Subscription)}
}

func (n *notifier) add(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs[sub.table] = append(n.subs[sub.table], sub)
}

func (n *notifier) remove(table string, sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	list := n.subs[table]
	for i, s := range list {
		if s == sub {
			n.subs[table] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

func (n *notifier) publish(table string, note Notification) {
	n.mu.Lock()
	subs := append([]*Subscription(nil), n.subs[table]...)
	n.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(context.Background(), note)
	}
}

func (n *notifier) closeAll() {
	n.mu.Lock()
	all := n.subs
	n.subs = make(map[string][]*Subscription)
	n.mu.Unlock()

	for _, list := range all {
		for _, sub := range list {
			sub.mu.Lock()
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
			}
			sub.mu.Unlock()
		}
	}
}

// Live opens an unfiltered subscription over every mutation on table.
func (s *Store) Live(table string) *Subscription {
	sub := &Subscription{
		table: table,
		ch:    make(chan Notification, subscriptionBuffer),
		errCh: make(chan error, 1),
		store: s,
	}
	s.notifier.add(sub)
	return sub
}

// LiveQuery opens a filtered subscription. text is accepted but neither
// executed nor stored — the actual filtering is the supplied Filter,
// since this store has no SurrealQL parser to execute text against (see
// DESIGN.md).
func (s *Store) LiveQuery(table, text string, filter Filter) *Subscription {
	sub := &Subscription{
		table:  table,
		ch:     make(chan Notification, subscriptionBuffer),
		errCh:  make(chan error, 1),
		store:  s,
		filter: filter,
	}
	s.notifier.add(sub)
	_ = text
	return sub
}
