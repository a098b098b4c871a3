package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/database"
	"github.com/wichananm65/storefront-backend/internal/events"
	"github.com/wichananm65/storefront-backend/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Recorder receives checkout outcomes.
type Recorder interface {
	OrderPlaced(d time.Duration)
	OrderFailed(reason string)
	StockRetry()
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced(time.Duration) {}
func (nopRecorder) OrderFailed(string)        {}
func (nopRecorder) StockRetry()               {}

type Options struct {
	// MaxStockRetries bounds how often a transaction that hit lock or
	// serialization contention is attempted again.
	MaxStockRetries int
	Publisher       events.Publisher
	Recorder        Recorder
	// PublishTimeout bounds how long checkout waits on the broker after
	// commit. Defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration
}

const DefaultPublishTimeout = 2 * time.Second

// Service places orders and reads the ledger.
type Service struct {
	store      Store
	publisher  events.Publisher
	recorder   Recorder
	maxRetries int
	publishTTL time.Duration
	hashCost   int
	now        func() time.Time
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:      store,
		publisher:  opts.Publisher,
		recorder:   opts.Recorder,
		maxRetries: opts.MaxStockRetries,
		publishTTL: opts.PublishTimeout,
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.publishTTL <= 0 {
		s.publishTTL = DefaultPublishTimeout
	}
	if s.maxRetries < 0 {
		s.maxRetries = 0
	}
	return s
}

// PlaceOrderInput is a checkout submission.
type PlaceOrderInput struct {
	Email string     `json:"email" form:"email" validate:"required,email,max=255"`
	Name  string     `json:"name" form:"name" validate:"required,max=100"`
	Cart  *cart.Cart `json:"-" form:"-" validate:"-"`
}

// PlaceOrder turns the cart into a Pending order. Product lookups, the
// customer upsert, the order and item inserts and every stock decrement run
// in one transaction; any failure leaves no trace in storage.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (Order, error) {
	started := s.now()
	log := logger.FromContext(ctx)

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := apperror.Validate(in); err != nil {
		s.recorder.OrderFailed(string(apperror.KindValidation))
		return Order{}, err
	}
	if in.Cart == nil || in.Cart.IsEmpty() {
		s.recorder.OrderFailed(string(apperror.KindValidation))
		return Order{}, apperror.Validation("cart is empty")
	}
	lines := in.Cart.Lines()
	for _, l := range lines {
		if l.Quantity <= 0 {
			s.recorder.OrderFailed(string(apperror.KindValidation))
			return Order{}, apperror.Validation(fmt.Sprintf("quantity for product %d must be positive", l.ProductID))
		}
	}

	guestHash, err := s.guestPassword()
	if err != nil {
		return Order{}, err
	}

	var placed Order
	for attempt := 0; ; attempt++ {
		placed, err = s.placeOnce(ctx, in, lines, guestHash)
		if err == nil {
			break
		}
		if !database.IsContention(err) || attempt >= s.maxRetries {
			kind := apperror.KindOf(err)
			if kind == "" {
				kind = apperror.KindPersistence
				err = apperror.Persistence(err, "place order")
			}
			s.recorder.OrderFailed(string(kind))
			log.Warn("order placement failed",
				zap.String("email", in.Email),
				zap.Int("attempts", attempt+1),
				zap.Error(err))
			return Order{}, err
		}
		s.recorder.StockRetry()
		log.Info("retrying order placement after contention", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.recorder.OrderPlaced(s.now().Sub(started))
	log.Info("order placed",
		zap.Int("order_id", placed.ID),
		zap.Int("customer_id", placed.CustomerID),
		zap.String("total", placed.Total.StringFixed(2)))

	s.publish(ctx, placed, in.Email)
	return placed, nil
}

// publish emits the order placed event. The order is already committed, so
// a slow or failing broker is logged and never fails checkout. The event
// outlives a cancelled request but not the timeout.
func (s *Service) publish(ctx context.Context, placed Order, email string) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTTL)
	defer cancel()
	if err := s.publisher.PublishOrderPlaced(pctx, orderPlacedEvent(placed, email)); err != nil {
		logger.FromContext(ctx).Error("publish order placed event", zap.Int("order_id", placed.ID), zap.Error(err))
	}
}

func (s *Service) placeOnce(ctx context.Context, in PlaceOrderInput, lines []cart.Line, guestHash string) (Order, error) {
	var placed Order
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		subtotals := make([]decimal.Decimal, len(lines))
		total := decimal.Zero
		for i, l := range lines {
			p, err := tx.GetProductByID(ctx, l.ProductID)
			if err != nil {
				return err
			}
			subtotals[i] = p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			total = total.Add(subtotals[i])
		}

		customerID, found, err := tx.FindCustomerByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if !found {
			customerID, err = tx.CreateCustomer(ctx, GuestCustomer{Name: in.Name, Email: in.Email, PasswordHash: guestHash})
			if err != nil {
				return err
			}
		}

		o, err := tx.CreateOrder(ctx, Order{CustomerID: customerID, Status: StatusPending, Total: total})
		if err != nil {
			return err
		}
		o.Items = make([]Item, 0, len(lines))
		for i, l := range lines {
			it, err := tx.CreateOrderItem(ctx, Item{OrderID: o.ID, ProductID: l.ProductID, Quantity: l.Quantity, Subtotal: subtotals[i]})
			if err != nil {
				return err
			}
			o.Items = append(o.Items, it)
		}
		// ascending product id order keeps row locks consistent across
		// concurrent checkouts
		for _, l := range lines {
			if err := tx.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		placed = o
		return nil
	})
	return placed, err
}

// guestPassword returns the bcrypt hash of a random token. Nobody knows the
// token, so a guest row cannot be logged into until it is registered.
func (s *Service) guestPassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(buf)), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func orderPlacedEvent(o Order, email string) events.OrderPlaced {
	items := make([]events.OrderPlacedItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = events.OrderPlacedItem{ProductID: it.ProductID, Quantity: it.Quantity, Subtotal: it.Subtotal}
	}
	return events.OrderPlaced{
		Type:       events.TypeOrderPlaced,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Email:      email,
		Total:      o.Total,
		Items:      items,
		PlacedAt:   o.CreatedAt,
	}
}

func (s *Service) GetByID(ctx context.Context, id int) (Order, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int) ([]Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

func (s *Service) ListByCustomerEmail(ctx context.Context, email string) ([]Order, error) {
	return s.store.ListByCustomerEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}
