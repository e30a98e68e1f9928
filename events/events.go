package events

import (
	"context"
	"sync"
	"time"

	"warchest/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBattleCreated   EventType = "battle_created"
	EventTypeBattleCancelled EventType = "battle_cancelled"
	EventTypeDepositPlaced   EventType = "deposit_placed"
	EventTypeBattleSettled   EventType = "battle_settled"
	EventTypeRewardClaimed   EventType = "reward_claimed"
	EventTypeEarlyWithdrawal EventType = "early_withdrawal"
	EventTypePricePosted     EventType = "price_posted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BattleCreatedEvent fires when a new battle opens
type BattleCreatedEvent struct {
	BattleID       int64
	FeedA          string
	FeedB          string
	InitialPriceA  int64
	InitialPriceB  int64
	EndTime        time.Time
	LendingEnabled bool
}

func (e BattleCreatedEvent) Type() EventType {
	return EventTypeBattleCreated
}

// BattleCancelledEvent fires when an active battle is aborted
type BattleCancelledEvent struct {
	BattleID int64
}

func (e BattleCancelledEvent) Type() EventType {
	return EventTypeBattleCancelled
}

// DepositPlacedEvent fires when a participant stakes into a battle
type DepositPlacedEvent struct {
	BattleID     int64
	Participant  string
	Team         models.Team
	Amount       int64
	SharesMinted int64
	Lent         bool
}

func (e DepositPlacedEvent) Type() EventType {
	return EventTypeDepositPlaced
}

// BattleSettledEvent fires when settlement completes
type BattleSettledEvent struct {
	BattleID    int64
	Winner      models.Team
	FinalPriceA int64
	FinalPriceB int64
	RewardPoolA int64
	RewardPoolB int64
	TotalYield  int64
}

func (e BattleSettledEvent) Type() EventType {
	return EventTypeBattleSettled
}

// RewardClaimedEvent fires when a participant is paid out
type RewardClaimedEvent struct {
	BattleID    int64
	Participant string
	Team        models.Team
	Principal   int64
	YieldShare  int64
	Payout      int64
}

func (e RewardClaimedEvent) Type() EventType {
	return EventTypeRewardClaimed
}

// EarlyWithdrawalEvent fires when a participant exits before settlement
type EarlyWithdrawalEvent struct {
	BattleID     int64
	Participant  string
	Team         models.Team
	ReturnAmount int64
	Penalty      int64
}

func (e EarlyWithdrawalEvent) Type() EventType {
	return EventTypeEarlyWithdrawal
}

// PricePostedEvent fires when a keeper posts a new oracle quote
type PricePostedEvent struct {
	FeedRef     string
	Price       int64
	PublishedAt time.Time
}

func (e PricePostedEvent) Type() EventType {
	return EventTypePricePosted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the caller
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after a successful commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional wrapper over the bus
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events are processed independently of the transaction lifecycle,
	// so emission uses a background context.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events; called after rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
