package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/config"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"github.com/kendall-kelly/bloomhouse-api/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderLine is one requested cart line
type OrderLine struct {
	FlowerID uint `json:"flower_id"`
	Quantity int  `json:"quantity"`
}

// PlaceOrderInput is the cart plus fulfilment details for a new order
type PlaceOrderInput struct {
	Items           []OrderLine `json:"items"`
	FulfilmentMode  string      `json:"fulfilment_mode"`
	DeliveryAddress *string     `json:"delivery_address"`
	DeliveryDate    *string     `json:"delivery_date"`
	ContactPhone    string      `json:"contact_phone"`
	GiftMessage     *string     `json:"gift_message"`
	Notes           *string     `json:"notes"`
}

// OrderService places orders. Every placement is one transaction: the customer
// profile, the stock reservations, the items and the total either all land or
// none do.
type OrderService struct {
	repo      *repositories.Repository
	logger    *zap.Logger
	txTimeout time.Duration
	retry     RetryConfig
}

// NewOrderService creates an order service over repo using the transaction
// timeout and attempt limit from cfg
func NewOrderService(repo *repositories.Repository, logger *zap.Logger, cfg *config.Config) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		repo:      repo,
		logger:    logger.Named("orders"),
		txTimeout: cfg.OrderTxTimeout,
		retry:     DefaultRetryConfig(cfg.OrderMaxAttempts),
	}
}

// WithRetry overrides the backoff used between transient failures
func (s *OrderService) WithRetry(cfg RetryConfig) *OrderService {
	s.retry = cfg
	return s
}

type customerResolver func(ctx context.Context, tx *repositories.Repository) (*models.CustomerProfile, error)

// PlaceOrder places an order for the authenticated principal. The customer
// profile is found by email, created when missing, and reactivated when it was
// deactivated.
func (s *OrderService) PlaceOrder(ctx context.Context, principal models.Principal, in PlaceOrderInput) (*models.Order, error) {
	log := s.logger.With(zap.String("principal_id", principal.ID))

	lines, err := normalizeOrderInput(&in)
	if err != nil {
		log.Info("order rejected", zap.Error(err))
		return nil, err
	}

	email := strings.TrimSpace(principal.Email)
	if email == "" {
		err := &apperrors.ProfileResolutionError{Message: "authenticated user has no email address"}
		log.Info("order rejected", zap.Error(err))
		return nil, err
	}
	defaults := repositories.CustomerDefaults{Name: strings.TrimSpace(principal.Name)}

	resolve := func(ctx context.Context, tx *repositories.Repository) (*models.CustomerProfile, error) {
		profile, created, err := tx.Customers.FindOrCreateByEmail(ctx, email, defaults)
		if err != nil {
			return nil, err
		}
		if created {
			log.Info("customer profile created", zap.Uint("customer_id", profile.ID))
			return profile, nil
		}
		if !profile.Active {
			if err := tx.Customers.Reactivate(ctx, profile); err != nil {
				return nil, err
			}
			log.Info("customer profile reactivated", zap.Uint("customer_id", profile.ID))
		}
		return profile, nil
	}

	return s.place(ctx, log, in, lines, resolve)
}

// PlaceOrderForCustomer places an order on behalf of an existing, active customer
func (s *OrderService) PlaceOrderForCustomer(ctx context.Context, customerID uint, in PlaceOrderInput) (*models.Order, error) {
	log := s.logger.With(zap.Uint("customer_id", customerID))

	lines, err := normalizeOrderInput(&in)
	if err != nil {
		log.Info("order rejected", zap.Error(err))
		return nil, err
	}

	resolve := func(ctx context.Context, tx *repositories.Repository) (*models.CustomerProfile, error) {
		profile, err := tx.Customers.FindByID(ctx, customerID, false)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, apperrors.NewNotFound("customer", customerID)
		}
		return profile, nil
	}

	return s.place(ctx, log, in, lines, resolve)
}

func (s *OrderService) place(ctx context.Context, log *zap.Logger, in PlaceOrderInput, lines []OrderLine, resolve customerResolver) (*models.Order, error) {
	orderID, err := retryWithBackoff(ctx, s.retry, apperrors.IsTransient, func(attempt int) (uint, error) {
		id, err := s.placeOnce(ctx, in, lines, resolve)
		if err != nil && apperrors.IsTransient(err) {
			log.Debug("order attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return id, err
	})
	if err != nil {
		switch {
		case apperrors.IsTransient(err):
			log.Warn("order placement gave up", zap.Int("attempts", s.retry.MaxAttempts), zap.Error(err))
		case apperrors.IsBusiness(err):
			log.Info("order rejected", zap.Error(err))
		}
		return nil, err
	}

	order, err := s.repo.Orders.FindByID(ctx, orderID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %d missing after commit", orderID)
	}

	log.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("customer_id", order.CustomerID),
		zap.Int("lines", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

// placeOnce runs a single bounded transaction attempt and returns the new order id
func (s *OrderService) placeOnce(ctx context.Context, in PlaceOrderInput, lines []OrderLine, resolve customerResolver) (uint, error) {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	var orderID uint
	err := s.repo.WithTx(ctx, func(tx *repositories.Repository) error {
		customer, err := resolve(ctx, tx)
		if err != nil {
			return err
		}

		order := &models.Order{
			CustomerID:      customer.ID,
			Status:          models.OrderStatusPending,
			FulfilmentMode:  in.FulfilmentMode,
			DeliveryAddress: in.DeliveryAddress,
			DeliveryDate:    in.DeliveryDate,
			ContactPhone:    in.ContactPhone,
			GiftMessage:     in.GiftMessage,
			Notes:           in.Notes,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range lines {
			flower, err := tx.Flowers.Reserve(ctx, line.FlowerID, line.Quantity)
			if err != nil {
				return err
			}

			item := &models.OrderItem{
				FlowerID:        line.FlowerID,
				Quantity:        line.Quantity,
				UnitPriceAtSale: flower.UnitPrice,
			}
			if err := tx.Orders.AttachItem(ctx, order.ID, item); err != nil {
				return err
			}
			total = total.Add(item.LineTotal())
		}

		if err := tx.Orders.FinalizeTotal(ctx, order.ID, total); err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !apperrors.IsBusiness(err) {
			err = &apperrors.TransientError{Err: fmt.Errorf("order transaction exceeded %s: %w", s.txTimeout, err)}
		}
		return 0, apperrors.Classify(err)
	}
	return orderID, nil
}

// normalizeOrderInput validates in, trims its text fields in place and returns the
// cart with duplicate flowers merged in first-appearance order
func normalizeOrderInput(in *PlaceOrderInput) ([]OrderLine, error) {
	if len(in.Items) == 0 {
		return nil, apperrors.NewValidationError("items", "at least one item is required")
	}
	for i, line := range in.Items {
		if line.FlowerID == 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("items[%d].flower_id", i), "must be a positive flower id")
		}
		if line.Quantity < 1 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if line.Quantity > MaxLineQuantity {
			return nil, apperrors.NewValidationError(fmt.Sprintf("items[%d].quantity", i),
				fmt.Sprintf("must be at most %d", MaxLineQuantity))
		}
	}

	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	if in.ContactPhone == "" {
		return nil, apperrors.NewValidationError("contact_phone", "is required")
	}

	in.FulfilmentMode = strings.ToLower(strings.TrimSpace(in.FulfilmentMode))
	if in.FulfilmentMode == "" {
		in.FulfilmentMode = models.FulfilmentPickup
	}
	if !models.ValidFulfilmentMode(in.FulfilmentMode) {
		return nil, apperrors.NewValidationError("fulfilment_mode", "must be pickup or delivery")
	}

	in.DeliveryAddress = trimOptional(in.DeliveryAddress)
	in.DeliveryDate = trimOptional(in.DeliveryDate)
	in.GiftMessage = trimOptional(in.GiftMessage)
	in.Notes = trimOptional(in.Notes)

	if in.FulfilmentMode == models.FulfilmentDelivery && in.DeliveryAddress == nil {
		return nil, apperrors.NewValidationError("delivery_address", "is required for delivery orders")
	}
	if in.DeliveryDate != nil {
		if _, err := time.Parse(models.DeliveryDateLayout, *in.DeliveryDate); err != nil {
			return nil, apperrors.NewValidationError("delivery_date", "must be a date in YYYY-MM-DD format")
		}
	}

	return MergeLines(in.Items)
}

// MaxLineQuantity caps the quantity of one flower in a cart, before and after merging
const MaxLineQuantity = 10000

// MergeLines sums the quantities of lines naming the same flower. The result keeps
// the order in which each flower first appeared. A merged quantity above
// MaxLineQuantity is reported against the line that pushed it over.
func MergeLines(lines []OrderLine) ([]OrderLine, error) {
	merged := make([]OrderLine, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for n, line := range lines {
		i, ok := index[line.FlowerID]
		if !ok {
			index[line.FlowerID] = len(merged)
			merged = append(merged, line)
			continue
		}
		if line.Quantity > MaxLineQuantity-merged[i].Quantity {
			return nil, apperrors.NewValidationError(fmt.Sprintf("items[%d].quantity", n),
				fmt.Sprintf("total quantity of flower %d must be at most %d", line.FlowerID, MaxLineQuantity))
		}
		merged[i].Quantity += line.Quantity
	}
	return merged, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
