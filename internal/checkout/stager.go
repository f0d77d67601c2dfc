// Package checkout hands one restaurant's cart partition from the cart screen
// to the checkout screen and turns a placed order into a receipt.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/sirupsen/logrus"
)

// CartRemote is the part of the cart service the checkout screen may call.
type CartRemote interface {
	UpdateQuantity(ctx context.Context, lineID int64, quantity int) (*domain.Cart, error)
	DeleteItem(ctx context.Context, lineID int64) (*domain.Cart, error)
}

type OrderRemote interface {
	Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.Transaction, error)
}

// Invalidator refreshes the shared cart projection after the backend cart changed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Receipt writes are retried this many times before the receipt is kept in
// memory only.
const receiptAttempts = 3

type Stager struct {
	sess       session.Session
	store      store.Store
	cart       CartRemote
	orders     OrderRemote
	live       Invalidator
	log        *logrus.Entry
	now        func() time.Time
	retryDelay time.Duration

	mu      sync.Mutex
	status  Status
	unsaved *ReceiptRecord
}

func NewStager(sess session.Session, s store.Store, cart CartRemote, orders OrderRemote, live Invalidator, log *logrus.Entry) *Stager {
	return &Stager{
		sess:       sess,
		store:      s,
		cart:       cart,
		orders:     orders,
		live:       live,
		log:        log.WithField("session_id", sess.ID),
		now:        time.Now,
		retryDelay: 100 * time.Millisecond,
		status:     StatusEmpty,
	}
}

func (s *Stager) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// transition moves the lifecycle forward. While a staged record exists, a
// finished submission and a record persisted by an earlier process both
// count as Staged.
func (s *Stager) transition(staged bool, next Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.status
	if staged && (cur == StatusEmpty || cur.IsTerminal()) {
		cur = StatusStaged
	}
	if !cur.CanTransitionTo(next) {
		return fmt.Errorf("%s -> %s: %w", cur, next, ErrIllegalTransition)
	}
	s.status = next
	return nil
}

func (s *Stager) setStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// Stage snapshots the partition, replacing anything staged before.
func (s *Stager) Stage(ctx context.Context, p domain.RestaurantCart) (*StagingRecord, error) {
	if !s.sess.Authenticated() {
		return nil, session.ErrAnonymous
	}
	if len(p.Items) == 0 {
		return nil, ErrEmptyCheckout
	}
	if err := s.transition(false, StatusStaged); err != nil {
		return nil, err
	}

	rec := newStagingRecord(p, s.sess.UserID(), s.now())
	if err := s.store.Put(ctx, s.sess.ID, store.KeyCheckoutStaging, rec); err != nil {
		return nil, fmt.Errorf("stage checkout: %w", err)
	}
	logger.WithContext(ctx, s.log).WithFields(logrus.Fields{
		"restaurant_id": rec.Restaurant.ID,
		"items":         len(rec.Items),
		"subtotal":      rec.Subtotal,
	}).Info("checkout staged")
	return &rec, nil
}

// LoadStaged returns ErrNotFound when nothing is staged for the signed-in
// user. A record staged by another account on the same browser is not theirs.
func (s *Stager) LoadStaged(ctx context.Context) (*StagingRecord, error) {
	var rec StagingRecord
	if err := s.store.Get(ctx, s.sess.ID, store.KeyCheckoutStaging, &rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load staged checkout: %w", err)
	}
	if rec.OwnerID != s.sess.UserID() {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// AdjustStagedQuantity changes a staged line on the backend first and only
// rewrites the staged record once the backend has accepted the change.
// A quantity of zero removes the line.
func (s *Stager) AdjustStagedQuantity(ctx context.Context, lineID int64, quantity int) (*StagingRecord, error) {
	if !s.sess.Authenticated() {
		return nil, session.ErrAnonymous
	}
	if quantity < 0 {
		return nil, &DetailsError{Fields: map[string]string{"quantity": "must not be negative"}}
	}
	rec, err := s.LoadStaged(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, item := range rec.Items {
		if item.ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("line %d: %w", lineID, ErrLineNotStaged)
	}

	if err := s.transition(true, StatusAdjusting); err != nil {
		return nil, err
	}
	defer s.setStatus(StatusStaged)

	if quantity == 0 {
		_, err = s.cart.DeleteItem(ctx, lineID)
	} else {
		_, err = s.cart.UpdateQuantity(ctx, lineID, quantity)
	}
	if err != nil {
		return nil, fmt.Errorf("adjust staged line %d: %w", lineID, err)
	}

	if quantity == 0 {
		rec.Items = append(rec.Items[:idx], rec.Items[idx+1:]...)
	} else {
		rec.Items[idx].Quantity = quantity
		rec.Items[idx].ItemTotal = rec.Items[idx].LineTotal()
	}
	rec.recompute()
	if err := s.store.Put(ctx, s.sess.ID, store.KeyCheckoutStaging, rec); err != nil {
		return nil, fmt.Errorf("rewrite staged checkout: %w", err)
	}
	s.refreshLive(ctx)
	return rec, nil
}

// Finalize places the order for the staged restaurant. On success the staging
// record is replaced by a receipt; on failure it stays so the user can retry.
func (s *Stager) Finalize(ctx context.Context, d Details) (*ReceiptRecord, error) {
	if !s.sess.Authenticated() {
		return nil, session.ErrAnonymous
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	rec, err := s.LoadStaged(ctx)
	if err != nil {
		return nil, err
	}
	if len(rec.Items) == 0 {
		return nil, ErrEmptyCheckout
	}
	if err := s.transition(true, StatusSubmitting); err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, s.log).WithField("restaurant_id", rec.Restaurant.ID)
	tx, err := s.orders.Checkout(ctx, rec.request(d))
	metrics.RecordCheckout(err)
	if err != nil {
		// The staging record was never touched, so a retry starts from it.
		if terr := s.transition(true, StatusFailed); terr != nil {
			log.WithError(terr).Error("checkout status out of step")
		}
		log.WithError(err).WithField("status", StatusFailed).Warn("checkout submission failed")
		return nil, fmt.Errorf("submit checkout: %w", err)
	}

	receipt := newReceipt(*tx, *rec)
	if err := s.saveReceipt(ctx, receipt); err != nil {
		log.WithError(err).Error("failed to persist receipt, serving it from memory")
		s.keepUnsaved(&receipt)
	} else {
		s.keepUnsaved(nil)
	}
	if err := s.store.Delete(ctx, s.sess.ID, store.KeyCheckoutStaging); err != nil {
		log.WithError(err).Error("failed to delete staged checkout")
	}
	if err := s.transition(true, StatusCompleted); err != nil {
		log.WithError(err).Error("checkout status out of step")
	}
	s.refreshLive(ctx)

	log.WithFields(logrus.Fields{
		"transaction_id": tx.TransactionID,
		"total_price":    tx.TotalPrice,
	}).Info("order placed")
	return &receipt, nil
}

// LoadReceipt returns the last order the signed-in user placed. Reading does
// not consume it.
func (s *Stager) LoadReceipt(ctx context.Context) (*ReceiptRecord, error) {
	s.mu.Lock()
	unsaved := s.unsaved
	s.mu.Unlock()
	if unsaved != nil {
		r := *unsaved
		return &r, nil
	}

	var rec ReceiptRecord
	if err := s.store.Get(ctx, s.sess.ID, store.KeyReceipt, &rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load receipt: %w", err)
	}
	if rec.OwnerID != s.sess.UserID() {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// saveReceipt outlives the request: the order is already placed.
func (s *Stager) saveReceipt(ctx context.Context, rec ReceiptRecord) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= receiptAttempts; attempt++ {
		if err = s.store.Put(ctx, s.sess.ID, store.KeyReceipt, rec); err == nil {
			return nil
		}
		if attempt == receiptAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * s.retryDelay):
		}
	}
	return fmt.Errorf("save receipt after %d attempts: %w", receiptAttempts, err)
}

func (s *Stager) keepUnsaved(rec *ReceiptRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsaved = rec
}

func (s *Stager) refreshLive(ctx context.Context) {
	if s.live == nil {
		return
	}
	if err := s.live.Invalidate(ctx); err != nil {
		logger.WithContext(ctx, s.log).WithError(err).Warn("cart refresh after checkout change failed")
	}
}
