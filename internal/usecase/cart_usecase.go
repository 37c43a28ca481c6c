package usecase

import (
	"context"
	"fmt"
	"time"

	"nutrastore-backend/internal/domain"
	"nutrastore-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartUsecase struct {
	cartRepo        domain.CartRepository
	productRepo     domain.ProductRepository
	maxCartQuantity int
}

func NewCartUsecase(cartRepo domain.CartRepository, productRepo domain.ProductRepository, maxCartQuantity int) *CartUsecase {
	return &CartUsecase{
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		maxCartQuantity: maxCartQuantity,
	}
}

// MergeLine is one guest cart line sent on login.
type MergeLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (u *CartUsecase) GetMyCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	cart, err := u.cartRepo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return domain.EmptyCart(customerID), nil
	}
	if cart.Items == nil {
		cart.Items = []domain.CartLine{}
	}
	return cart, nil
}

// AddToCart adds one unit of the product, creating the line and the cart as needed.
func (u *CartUsecase) AddToCart(ctx context.Context, customerID, productID string) (*domain.Cart, error) {
	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}

	product, err := u.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil, domain.NotFound("Product %s not found.", productID)
	}

	if u.maxCartQuantity > 0 {
		cart, err := u.GetMyCart(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if line, ok := cart.Line(id); ok && line.Quantity >= u.maxCartQuantity {
			return nil, domain.InvalidInput("Quantity for %s cannot exceed %d.", product.Name, u.maxCartQuantity)
		}
	}

	if err := u.cartRepo.AddQuantity(ctx, customerID, newCartLine(product, 1)); err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	logger.WithContext(ctx).Info().Str("product_id", productID).Msg("cart: item added")
	return u.GetMyCart(ctx, customerID)
}

// DecrementCartItem removes one unit; the line disappears when it reaches zero.
func (u *CartUsecase) DecrementCartItem(ctx context.Context, customerID, productID string) (*domain.Cart, error) {
	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	if err := u.cartRepo.DecrementItem(ctx, customerID, id); err != nil {
		return nil, fmt.Errorf("decrement cart item: %w", err)
	}
	return u.GetMyCart(ctx, customerID)
}

// DeleteCartItem drops the line whatever its quantity.
func (u *CartUsecase) DeleteCartItem(ctx context.Context, customerID, productID string) (*domain.Cart, error) {
	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	if err := u.cartRepo.RemoveItem(ctx, customerID, id); err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	return u.GetMyCart(ctx, customerID)
}

// MergeCart folds a guest cart into the persisted one. Quantities add up
// and are clamped to the per-line limit; products that no longer exist in
// the catalog are skipped.
func (u *CartUsecase) MergeCart(ctx context.Context, customerID string, lines []MergeLine) (*domain.Cart, error) {
	if len(lines) == 0 {
		return u.GetMyCart(ctx, customerID)
	}

	type pending struct {
		id  primitive.ObjectID
		qty int
	}
	order := make([]primitive.ObjectID, 0, len(lines))
	merged := make(map[primitive.ObjectID]*pending, len(lines))
	for i, l := range lines {
		if l.ProductID == "" {
			return nil, domain.InvalidInput("Cart line %d is missing a product id.", i+1)
		}
		if l.Quantity <= 0 {
			return nil, domain.InvalidInput("Cart line %d has an invalid quantity.", i+1)
		}
		id, err := parseProductID(l.ProductID)
		if err != nil {
			return nil, err
		}
		if p, ok := merged[id]; ok {
			p.qty += l.Quantity
			continue
		}
		merged[id] = &pending{id: id, qty: l.Quantity}
		order = append(order, id)
	}

	current, err := u.GetMyCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx)
	for _, id := range order {
		product, err := u.productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load product: %w", err)
		}
		if product == nil {
			log.Warn().Str("product_id", id.Hex()).Msg("cart merge: skipping product missing from catalog")
			continue
		}
		qty := merged[id].qty
		if u.maxCartQuantity > 0 {
			have := 0
			if line, ok := current.Line(id); ok {
				have = line.Quantity
			}
			if have+qty > u.maxCartQuantity {
				qty = u.maxCartQuantity - have
				log.Warn().Str("product_id", id.Hex()).Int("quantity", qty).Msg("cart merge: quantity clamped to limit")
			}
			if qty <= 0 {
				continue
			}
		}
		if err := u.cartRepo.AddQuantity(ctx, customerID, newCartLine(product, qty)); err != nil {
			return nil, fmt.Errorf("merge cart: %w", err)
		}
	}

	log.Info().Int("lines", len(order)).Msg("cart: guest cart merged")
	return u.GetMyCart(ctx, customerID)
}

// ClearCart is the explicit reset; checkout never calls it.
func (u *CartUsecase) ClearCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	if err := u.cartRepo.Clear(ctx, customerID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	return domain.EmptyCart(customerID), nil
}

func newCartLine(p *domain.Product, qty int) domain.CartLine {
	return domain.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: p.Price,
		AddedAt:   time.Now().UTC(),
	}
}

func parseProductID(raw string) (primitive.ObjectID, error) {
	if raw == "" {
		return primitive.NilObjectID, domain.InvalidInput("productId is required.")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, domain.InvalidInput("productId %q is not a valid id.", raw)
	}
	return id, nil
}
