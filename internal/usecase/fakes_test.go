package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"nutrastore-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Products ---

type fakeProductRepo struct {
	products       []domain.Product
	getCalls       int
	candidateCalls int
}

func (f *fakeProductRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	f.getCalls++
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, nil
}

// FindSimilarCandidates mirrors the store's first-pass $or filter.
func (f *fakeProductRepo) FindSimilarCandidates(_ context.Context, ref *domain.Product) ([]domain.Product, error) {
	f.candidateCalls++
	var out []domain.Product
	for _, p := range f.products {
		if p.ID == ref.ID {
			continue
		}
		if p.Category == ref.Category || overlaps(p.ProductTypes, ref.ProductTypes) || overlaps(p.Benefits, ref.Benefits) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) SampleProducts(_ context.Context, filter domain.SimilarFilter, size int) ([]domain.Product, error) {
	var matching []domain.Product
	for _, p := range f.products {
		if containsID(filter.Exclude, p.ID) {
			continue
		}
		if filter.Unconstrained() ||
			containsID(filter.Categories, p.Category) ||
			overlaps(filter.ProductTypes, p.ProductTypes) ||
			overlaps(filter.Benefits, p.Benefits) {
			matching = append(matching, p)
		}
	}
	rand.Shuffle(len(matching), func(i, j int) { matching[i], matching[j] = matching[j], matching[i] })
	if len(matching) > size {
		matching = matching[:size]
	}
	return matching, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// --- Carts ---

type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
	err   error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[string]*domain.Cart{}}
}

func (f *fakeCartRepo) GetByCustomer(_ context.Context, customerID string) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[customerID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = append([]domain.CartLine(nil), c.Items...)
	return &cp, nil
}

func (f *fakeCartRepo) AddQuantity(_ context.Context, customerID string, line domain.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	c, ok := f.carts[customerID]
	if !ok {
		c = &domain.Cart{CustomerID: customerID, CreatedAt: time.Now()}
		f.carts[customerID] = c
	}
	for i := range c.Items {
		if c.Items[i].ProductID == line.ProductID {
			c.Items[i].Quantity += line.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, line)
	return nil
}

func (f *fakeCartRepo) DecrementItem(_ context.Context, customerID string, productID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[customerID]
	if !ok {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if c.Items[i].Quantity > 1 {
				c.Items[i].Quantity--
			} else {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			}
			return nil
		}
	}
	return nil
}

func (f *fakeCartRepo) RemoveItem(_ context.Context, customerID string, productID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[customerID]
	if !ok {
		return nil
	}
	kept := c.Items[:0]
	for _, l := range c.Items {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c.Items = kept
	return nil
}

func (f *fakeCartRepo) Clear(_ context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.carts[customerID]; ok {
		c.Items = nil
	}
	return nil
}

// --- Wishlists ---

type fakeWishlistRepo struct {
	lists map[string]*domain.Wishlist
}

func newFakeWishlistRepo() *fakeWishlistRepo {
	return &fakeWishlistRepo{lists: map[string]*domain.Wishlist{}}
}

func (f *fakeWishlistRepo) GetByCustomer(_ context.Context, customerID string) (*domain.Wishlist, error) {
	w, ok := f.lists[customerID]
	if !ok {
		return nil, nil
	}
	cp := *w
	cp.ProductIDs = append([]primitive.ObjectID(nil), w.ProductIDs...)
	return &cp, nil
}

func (f *fakeWishlistRepo) AddProducts(ctx context.Context, customerID string, productIDs ...primitive.ObjectID) (*domain.Wishlist, error) {
	w, ok := f.lists[customerID]
	if !ok {
		w = &domain.Wishlist{CustomerID: customerID}
		f.lists[customerID] = w
	}
	for _, id := range productIDs {
		if !w.Contains(id) {
			w.ProductIDs = append(w.ProductIDs, id)
		}
	}
	return f.GetByCustomer(ctx, customerID)
}

func (f *fakeWishlistRepo) RemoveProduct(ctx context.Context, customerID string, productID primitive.ObjectID) (*domain.Wishlist, error) {
	w, ok := f.lists[customerID]
	if !ok {
		return nil, nil
	}
	kept := w.ProductIDs[:0]
	for _, id := range w.ProductIDs {
		if id != productID {
			kept = append(kept, id)
		}
	}
	w.ProductIDs = kept
	return f.GetByCustomer(ctx, customerID)
}

// --- Orders ---

type fakeOrderRepo struct {
	orders    map[string]*domain.Order
	history   []domain.OrderHistory
	markErr   error
	discarded []string
	statusErr error
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*domain.Order{}}
}

func (f *fakeOrderRepo) CreatePending(_ context.Context, order *domain.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *order
	cp.Status = domain.OrderStatusPending
	cp.CreatedAt = time.Now()
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) MarkPlaced(_ context.Context, orderID, shipmentOrderID, shipmentID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	o, ok := f.orders[orderID]
	if !ok || o.Status != domain.OrderStatusPending {
		return errors.New("order is not pending")
	}
	o.ShipmentOrderID = &shipmentOrderID
	o.ShipmentID = &shipmentID
	o.Status = domain.OrderStatusPlaced
	return nil
}

func (f *fakeOrderRepo) DiscardPending(_ context.Context, orderID string) error {
	if o, ok := f.orders[orderID]; ok && o.Status == domain.OrderStatusPending {
		delete(f.orders, orderID)
		f.discarded = append(f.discarded, orderID)
	}
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) GetByIdempotencyKey(_ context.Context, customerID, key string) (*domain.Order, error) {
	for _, o := range f.orders {
		if o.CustomerID == customerID && o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID && o.Status != domain.OrderStatusPending {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeOrderRepo) ListPending(_ context.Context, createdBefore time.Time) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.Status == domain.OrderStatusPending && o.CreatedAt.Before(createdBefore) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id, from, to string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	o, ok := f.orders[id]
	if !ok {
		return domain.NotFound("Order %s not found.", id)
	}
	if o.Status != from {
		return domain.InvalidState("Order is no longer %s.", from)
	}
	o.Status = to
	return nil
}

func (f *fakeOrderRepo) CreateOrderHistory(_ context.Context, h *domain.OrderHistory) error {
	f.history = append(f.history, *h)
	return nil
}

// --- Addresses, transactions, carrier, events ---

type fakeAddressRepo struct {
	defaults map[string]*domain.Address
}

func (f *fakeAddressRepo) GetDefaultAddress(_ context.Context, userID string) (*domain.Address, error) {
	if a, ok := f.defaults[userID]; ok {
		return a, nil
	}
	return nil, nil
}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ctxTxManager refuses to begin on a done context, as pgx does.
type ctxTxManager struct{}

func (ctxTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

type fakeShipping struct {
	afterCreate func()
	afterCancel func()
	createCalls []domain.ShipmentRequest
	cancelCalls []string
	shipment    *domain.Shipment
	createErr   error
	cancelRes   *domain.CarrierResult
	cancelErr   error
}

func (f *fakeShipping) CreateShipment(_ context.Context, req domain.ShipmentRequest) (*domain.Shipment, error) {
	f.createCalls = append(f.createCalls, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.afterCreate != nil {
		f.afterCreate()
	}
	if f.shipment != nil {
		return f.shipment, nil
	}
	return &domain.Shipment{OrderID: "SR-1001", ShipmentID: "SH-2001", Status: "NEW"}, nil
}

func (f *fakeShipping) CancelShipment(_ context.Context, shipmentOrderID string) (*domain.CarrierResult, error) {
	f.cancelCalls = append(f.cancelCalls, shipmentOrderID)
	if f.afterCancel != nil {
		f.afterCancel()
	}
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	if f.cancelRes != nil {
		return f.cancelRes, nil
	}
	return &domain.CarrierResult{StatusCode: 200, Message: "Order cancelled successfully."}, nil
}

type fakePublisher struct {
	events []domain.OrderEvent
}

func (f *fakePublisher) Publish(_ context.Context, e domain.OrderEvent) error {
	f.events = append(f.events, e)
	return nil
}

// --- Cache ---

type mapCache struct {
	items map[string]interface{}
}

func newMapCache() *mapCache {
	return &mapCache{items: map[string]interface{}{}}
}

func (c *mapCache) Get(key string) (interface{}, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(key string, value interface{}, _ time.Duration) {
	c.items[key] = value
}

func (c *mapCache) Add(key string, value interface{}, _ time.Duration) bool {
	if _, ok := c.items[key]; ok {
		return false
	}
	c.items[key] = value
	return true
}

func (c *mapCache) Delete(key string) {
	delete(c.items, key)
}

func (c *mapCache) Flush() {
	c.items = map[string]interface{}{}
}
