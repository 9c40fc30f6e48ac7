// Package register keeps the live bills of the billing counters.
//
// Each session is one counter working on one bill at a time. Operations on a
// session are serialized and run to completion in call order.
package register

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-billing/internal/domain/billing"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Committer persists a finished bill.
type Committer interface {
	Commit(ctx context.Context, b billing.Bill) (*orderlog.Receipt, error)
}

// Session is a snapshot of a counter session.
type Session struct {
	ID   string
	Bill billing.Bill
}

// Confirmation is the result of a successful confirm: the receipt of the
// committed bill and the fresh bill the session continues with.
type Confirmation struct {
	Receipt *orderlog.Receipt
	Next    Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithNumberer overrides the bill number generator.
func WithNumberer(n billing.Numberer) Option {
	return func(m *Manager) { m.numberer = n }
}

// WithClock overrides the clock used to stamp new bills.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

type session struct {
	mu   sync.Mutex
	bill billing.Bill
}

// Manager owns counter sessions.
type Manager struct {
	prices   billing.PriceLookup
	orders   Committer
	numberer billing.Numberer
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager creates a Manager pricing selections with prices and committing
// bills through orders.
func NewManager(prices billing.PriceLookup, orders Committer, opts ...Option) *Manager {
	m := &Manager{
		prices:   prices,
		orders:   orders,
		numberer: billing.DefaultNumberer(),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) newBill() billing.Bill {
	return billing.New(m.numberer(), m.now())
}

// Open starts a session with a fresh bill.
func (m *Manager) Open(ctx context.Context) Session {
	id := uuid.New().String()
	s := &session{bill: m.newBill()}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	zctx.From(ctx).Info("Session opened",
		zap.String("session", id),
		zap.String("bill", s.bill.Number()),
	)
	return Session{ID: id, Bill: s.bill}
}

// Discard drops a session and its uncommitted bill.
func (m *Manager) Discard(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *Manager) lookup(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// apply replaces the session bill with fn(bill).
func (m *Manager) apply(id string, fn func(billing.Bill) billing.Bill) (Session, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bill = fn(s.bill)
	return Session{ID: id, Bill: s.bill}, nil
}

// Get returns the current state of a session.
func (m *Manager) Get(id string) (Session, error) {
	return m.apply(id, func(b billing.Bill) billing.Bill { return b })
}

// Select records the chosen item and quantity and recomputes its price.
func (m *Manager) Select(id, item string, quantity int) (Session, error) {
	return m.apply(id, func(b billing.Bill) billing.Bill {
		return b.SetSelection(item, quantity).ComputePrice(m.prices)
	})
}

// Add appends an explicit line.
func (m *Manager) Add(id, item string, quantity int, price decimal.Decimal) (Session, error) {
	return m.apply(id, func(b billing.Bill) billing.Bill {
		return b.AddLine(item, quantity, price)
	})
}

// AddSelection appends the current selection as a line.
func (m *Manager) AddSelection(id string) (Session, error) {
	return m.apply(id, billing.Bill.AddSelection)
}

// Remove drops lines by id.
func (m *Manager) Remove(id string, lineIDs ...int) (Session, error) {
	return m.apply(id, func(b billing.Bill) billing.Bill {
		return b.RemoveLines(lineIDs...)
	})
}

// SetPayment records the payment type of the bill.
func (m *Manager) SetPayment(id string, pt billing.PaymentType) (Session, error) {
	return m.apply(id, func(b billing.Bill) billing.Bill {
		return b.SetPaymentType(pt)
	})
}

// Confirm commits the session bill and, on success, continues the session
// with a fresh bill. When pt is set it replaces the bill payment type first.
// On failure the bill is left as it was.
func (m *Manager) Confirm(ctx context.Context, id string, pt billing.PaymentType) (*Confirmation, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bill
	if pt.IsSet() {
		b = b.SetPaymentType(pt)
	}

	lg := zctx.From(ctx).With(
		zap.String("session", id),
		zap.String("bill", b.Number()),
	)

	receipt, err := m.orders.Commit(ctx, b)
	if err != nil {
		lg.Warn("Confirm failed", zap.Error(err))
		return nil, err
	}

	s.bill = m.newBill()
	lg.Info("Order confirmed",
		zap.String("total", receipt.Total.StringFixed(2)),
		zap.Int("rows", receipt.Rows),
		zap.String("payment_type", b.PaymentType().String()),
		zap.String("next_bill", s.bill.Number()),
	)

	return &Confirmation{
		Receipt: receipt,
		Next:    Session{ID: id, Bill: s.bill},
	}, nil
}
