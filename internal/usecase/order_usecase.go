package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nutrastore-backend/config"
	"nutrastore-backend/internal/domain"
	"nutrastore-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var hundred = decimal.NewFromInt(100)

type OrderUsecase struct {
	orderRepo    domain.OrderRepository
	productRepo  domain.ProductRepository
	addressRepo  domain.AddressRepository
	shipping     domain.ShippingProvider
	publisher    domain.EventPublisher
	txManager    domain.TransactionManager
	pendingGrace time.Duration
	tracer       trace.Tracer
	now          func() time.Time
}

func NewOrderUsecase(
	orderRepo domain.OrderRepository,
	productRepo domain.ProductRepository,
	addressRepo domain.AddressRepository,
	shipping domain.ShippingProvider,
	publisher domain.EventPublisher,
	txManager domain.TransactionManager,
	cfg *config.Config,
) *OrderUsecase {
	return &OrderUsecase{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		addressRepo:  addressRepo,
		shipping:     shipping,
		publisher:    publisher,
		txManager:    txManager,
		pendingGrace: cfg.PendingOrderGrace,
		tracer:       otel.Tracer("nutrastore-backend/usecase/order"),
		now:          time.Now,
	}
}

type PlaceOrderLine struct {
	ProductID string `json:"_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name"`
}

type PlaceOrderReq struct {
	Cart          []PlaceOrderLine `json:"cart"`
	PaymentMethod string           `json:"paymentMethod"`
	// IdempotencyKey comes from the Idempotency-Key header, not the body.
	IdempotencyKey string `json:"-"`
}

// LineTotal is price × qty × (1 − discount/100), rounded to 2 places.
// Discount is a percentage clamped to [0, 100].
func LineTotal(price, discount decimal.Decimal, quantity int) decimal.Decimal {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(hundred) {
		discount = hundred
	}
	return price.
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(hundred.Sub(discount)).
		Div(hundred).
		Round(2)
}

// PlaceOrder prices the cart, writes a pending order, creates the carrier
// shipment and only then marks the order placed. A failed shipment leaves
// no order behind.
func (u *OrderUsecase) PlaceOrder(ctx context.Context, customerID string, req PlaceOrderReq) (order *domain.Order, err error) {
	ctx, span := u.tracer.Start(ctx, "OrderUsecase.PlaceOrder",
		trace.WithAttributes(attribute.String("customer.id", customerID)))
	defer func() { endSpan(span, err) }()

	log := logger.WithContext(ctx)

	if err := validatePlaceOrder(&req); err != nil {
		return nil, err
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	span.SetAttributes(attribute.String("order.idempotency_key", req.IdempotencyKey))

	existing, err := u.orderRepo.GetByIdempotencyKey(ctx, customerID, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if existing != nil {
		if existing.Status == domain.OrderStatusPending {
			return nil, domain.InvalidState("An order with this idempotency key is still being processed.")
		}
		log.Info().Str("order_id", existing.ID).Msg("order: idempotent replay")
		return existing, nil
	}

	orderID := uuid.NewString()
	items := make([]domain.OrderItem, 0, len(req.Cart))
	subTotal := decimal.Zero
	for _, line := range req.Cart {
		id, err := parseProductID(line.ProductID)
		if err != nil {
			return nil, err
		}
		product, err := u.productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load product: %w", err)
		}
		if product == nil {
			return nil, domain.NotFound("Product %s not found.", line.ProductID)
		}

		price := decimal.NewFromFloat(product.Price).Round(2)
		discount := decimal.NewFromFloat(product.Discount)
		total := LineTotal(price, discount, line.Quantity)
		subTotal = subTotal.Add(total)

		name := product.Name
		if name == "" {
			name = line.Name
		}
		items = append(items, domain.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     orderID,
			ProductID:   product.ID.Hex(),
			Name:        name,
			Quantity:    line.Quantity,
			UnitPrice:   price,
			Discount:    discount,
			TotalAmount: total,
		})
	}

	address, err := u.addressRepo.GetDefaultAddress(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load default address: %w", err)
	}
	if address == nil {
		return nil, domain.NoDefaultAddress()
	}

	now := u.now().UTC()
	order = &domain.Order{
		ID:             orderID,
		CustomerID:     customerID,
		IdempotencyKey: req.IdempotencyKey,
		Status:         domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		PaymentMethod:  req.PaymentMethod,
		TotalAmount:    subTotal,
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		return u.orderRepo.CreatePending(txCtx, order)
	}); err != nil {
		if _, ok := domain.AsError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("create pending order: %w", err)
	}

	shipment, err := u.shipping.CreateShipment(ctx, domain.ShipmentRequest{
		ReferenceID:   req.IdempotencyKey,
		OrderDate:     now,
		Address:       *address,
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		SubTotal:      subTotal,
	})
	if err != nil {
		u.discardPending(ctx, order.ID)
		log.Warn().Err(err).Str("order_id", order.ID).Msg("order: carrier rejected shipment")
		if _, ok := domain.AsError(err); ok {
			return nil, err
		}
		return nil, domain.Unexpected(err)
	}

	// The shipment exists now; a client hang-up must not undo the order.
	ctx = context.WithoutCancel(ctx)
	if err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.MarkPlaced(txCtx, order.ID, shipment.OrderID, shipment.ShipmentID); err != nil {
			return err
		}
		prev := domain.OrderStatusPending
		reason := fmt.Sprintf("Shipment %s created", shipment.ShipmentID)
		return u.orderRepo.CreateOrderHistory(txCtx, &domain.OrderHistory{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			PreviousStatus: &prev,
			NewStatus:      domain.OrderStatusPlaced,
			Reason:         &reason,
			CreatedBy:      &customerID,
			CreatedAt:      now,
		})
	}); err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Str("shipment_order_id", shipment.OrderID).
			Msg("order: finalize failed, canceling shipment")
		u.compensateShipment(ctx, order.ID, shipment.OrderID)
		return nil, domain.Unexpected(err)
	}

	order.Status = domain.OrderStatusPlaced
	order.ShipmentOrderID = &shipment.OrderID
	order.ShipmentID = &shipment.ShipmentID

	log.Info().Str("order_id", order.ID).Str("shipment_order_id", shipment.OrderID).
		Str("total", order.TotalAmount.StringFixed(2)).Msg("order: placed")
	u.publish(ctx, domain.EventOrderPlaced, order)
	return order, nil
}

// discardPending runs detached from the request so a client disconnect
// cannot leave the pending row behind.
func (u *OrderUsecase) discardPending(ctx context.Context, orderID string) {
	ctx = context.WithoutCancel(ctx)
	if err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		return u.orderRepo.DiscardPending(txCtx, orderID)
	}); err != nil {
		logger.WithContext(ctx).Error().Err(err).Str("order_id", orderID).Msg("order: failed to discard pending order")
	}
}

// compensateShipment cancels a shipment whose order could not be finalized.
// The order row stays pending and shows up in the admin pending listing.
func (u *OrderUsecase) compensateShipment(ctx context.Context, orderID, shipmentOrderID string) {
	ctx = context.WithoutCancel(ctx)
	log := logger.WithContext(ctx)
	res, err := u.shipping.CancelShipment(ctx, shipmentOrderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Str("shipment_order_id", shipmentOrderID).
			Msg("order: compensating cancel failed, manual reconciliation required")
		return
	}
	log.Warn().Str("order_id", orderID).Int("carrier_status", res.StatusCode).
		Msg("order: shipment canceled after failed finalize")
}

// CancelOrder cancels the carrier shipment and then the order. The carrier's
// status and message are returned verbatim.
func (u *OrderUsecase) CancelOrder(ctx context.Context, customerID, orderID string) (res *domain.CarrierResult, err error) {
	ctx, span := u.tracer.Start(ctx, "OrderUsecase.CancelOrder",
		trace.WithAttributes(attribute.String("customer.id", customerID), attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(orderID) == "" {
		return nil, domain.InvalidInput("Order id is required.")
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, domain.NotFound("Order %s not found.", orderID)
	}

	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil || order.CustomerID != customerID {
		return nil, domain.NotFound("Order %s not found.", orderID)
	}
	if !order.HasShipment() {
		return nil, domain.InvalidState("Order has no shipment to cancel.")
	}
	if order.Status == domain.OrderStatusCanceled {
		return nil, domain.InvalidState("Order is already canceled.")
	}

	res, err = u.shipping.CancelShipment(ctx, *order.ShipmentOrderID)
	if err != nil {
		if _, ok := domain.AsError(err); ok {
			return nil, err
		}
		return nil, domain.Unexpected(err)
	}

	prev := order.Status
	reason := res.Message
	if err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.UpdateStatus(txCtx, order.ID, prev, domain.OrderStatusCanceled); err != nil {
			return err
		}
		return u.orderRepo.CreateOrderHistory(txCtx, &domain.OrderHistory{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			PreviousStatus: &prev,
			NewStatus:      domain.OrderStatusCanceled,
			Reason:         &reason,
			CreatedBy:      &customerID,
			CreatedAt:      u.now().UTC(),
		})
	}); err != nil {
		if domain.IsCode(err, domain.CodeInvalidState) {
			return nil, err
		}
		logger.WithContext(ctx).Error().Err(err).Str("order_id", order.ID).
			Msg("order: shipment canceled but order status update failed")
		return nil, domain.Unexpected(err)
	}

	order.Status = domain.OrderStatusCanceled
	logger.WithContext(ctx).Info().Str("order_id", order.ID).Int("carrier_status", res.StatusCode).Msg("order: canceled")
	u.publish(ctx, domain.EventOrderCanceled, order)
	return res, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	orders, err := u.orderRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// ListPendingOrders returns orders stuck in pending longer than the grace
// period, i.e. those whose shipment outcome needs an admin to look at it.
func (u *OrderUsecase) ListPendingOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := u.orderRepo.ListPending(ctx, u.now().Add(-u.pendingGrace))
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (u *OrderUsecase) publish(ctx context.Context, eventType string, order *domain.Order) {
	if u.publisher == nil {
		return
	}
	if err := u.publisher.Publish(ctx, domain.NewOrderEvent(eventType, order)); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Str("order_id", order.ID).Str("event", eventType).
			Msg("order: event publish failed")
	}
}

func validatePlaceOrder(req *PlaceOrderReq) error {
	if len(req.Cart) == 0 {
		return domain.InvalidInput("Cart is empty.")
	}
	for i, line := range req.Cart {
		if line.ProductID == "" {
			return domain.InvalidInput("Cart line %d is missing a product id.", i+1)
		}
		if line.Quantity <= 0 {
			return domain.InvalidInput("Cart line %d has an invalid quantity.", i+1)
		}
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentMethodCOD
	}
	if !domain.IsValidPaymentMethod(req.PaymentMethod) {
		return domain.InvalidInput("Unsupported payment method %q.", req.PaymentMethod)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.ErrorCodeOf(err)))
	}
	span.End()
}
