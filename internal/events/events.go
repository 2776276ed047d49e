package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type EventType string

const (
	EventTypeBalanceUpdated      EventType = "balance.updated"
	EventTypeUserOnline          EventType = "user.online"
	EventTypeWithdrawalRequested EventType = "withdrawal.requested"
	EventTypeDepositSubmitted    EventType = "deposit.submitted"
)

type Event interface {
	Type() EventType
}

type BalanceUpdatedEvent struct {
	UserID      uint            `json:"user_id"`
	UsdtBalance decimal.Decimal `json:"usdt_balance"`
	BtcBalance  decimal.Decimal `json:"btc_balance"`
	EthBalance  decimal.Decimal `json:"eth_balance"`
	Version     uint64          `json:"version"`
}

func (e BalanceUpdatedEvent) Type() EventType {
	return EventTypeBalanceUpdated
}

type UserOnlineEvent struct {
	UserID   uint `json:"user_id"`
	IsOnline bool `json:"is_online"`
}

func (e UserOnlineEvent) Type() EventType {
	return EventTypeUserOnline
}

type WithdrawalRequestedEvent struct {
	WithdrawID  uint            `json:"withdraw_id"`
	UserID      uint            `json:"user_id"`
	UserEmail   string          `json:"user_email"`
	Symbol      string          `json:"symbol"`
	Amount      decimal.Decimal `json:"amount"`
	Destination string          `json:"destination"`
}

func (e WithdrawalRequestedEvent) Type() EventType {
	return EventTypeWithdrawalRequested
}

type DepositSubmittedEvent struct {
	WalletID  uint            `json:"wallet_id"`
	UserID    uint            `json:"user_id"`
	UserEmail string          `json:"user_email"`
	Symbol    string          `json:"symbol"`
	Amount    decimal.Decimal `json:"amount"`
}

func (e DepositSubmittedEvent) Type() EventType {
	return EventTypeDepositSubmitted
}

type Handler func(ctx context.Context, event Event)

type delivery struct {
	ctx   context.Context
	event Event
}

// subscriber runs its handler on a single goroutine, so events reach it in
// the order they were emitted.
type subscriber struct {
	eventType EventType
	index     int
	handler   Handler

	mu      sync.Mutex
	pending []delivery
	wake    chan struct{}
}

func (s *subscriber) push(d delivery) {
	s.mu.Lock()
	s.pending = append(s.pending, d)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, d := range batch {
			s.deliver(d)
		}
	}
}

func (s *subscriber) deliver(d delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"eventType":    s.eventType,
				"handlerIndex": s.index,
				"panic":        r,
			}).Error("Event handler panicked")
		}
	}()
	s.handler(d.ctx, d.event)
}

// Bus fans events out to subscribers. Each subscriber has its own queue and
// worker; a panicking handler is logged, never propagated to the emitter.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]*subscriber
	done     chan struct{}
	once     sync.Once
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]*subscriber),
		done:     make(chan struct{}),
	}
}

func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{
		eventType: eventType,
		index:     len(b.handlers[eventType]),
		handler:   handler,
		wake:      make(chan struct{}, 1),
	}
	b.handlers[eventType] = append(b.handlers[eventType], sub)
	go sub.run(b.done)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit queues the event for every subscriber of its type and returns
// without waiting for the handlers.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	subs := make([]*subscriber, len(b.handlers[event.Type()]))
	copy(subs, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(subs),
	}).Debug("Emitting event")

	// detached from the request so handlers outlive it
	d := delivery{ctx: context.WithoutCancel(ctx), event: event}
	for _, sub := range subs {
		sub.push(d)
	}
}

// Close stops the subscriber workers. Queued events that have not started
// are dropped.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.done) })
}
