package usecase

import (
	"context"
	"fmt"

	"nutrastore-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WishlistUsecase struct {
	repo        domain.WishlistRepository
	productRepo domain.ProductRepository
}

func NewWishlistUsecase(repo domain.WishlistRepository, productRepo domain.ProductRepository) *WishlistUsecase {
	return &WishlistUsecase{
		repo:        repo,
		productRepo: productRepo,
	}
}

// GetMyWishlist never creates a wishlist; a customer without one sees it empty.
func (u *WishlistUsecase) GetMyWishlist(ctx context.Context, customerID string) (*domain.Wishlist, error) {
	wishlist, err := u.repo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	if wishlist == nil {
		wishlist = &domain.Wishlist{CustomerID: customerID}
	}
	return normalizeWishlist(wishlist), nil
}

// AddToWishlist is idempotent: adding a product twice keeps one entry.
func (u *WishlistUsecase) AddToWishlist(ctx context.Context, customerID, productID string) (*domain.Wishlist, error) {
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

	wishlist, err := u.repo.AddProducts(ctx, customerID, id)
	if err != nil {
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}
	return normalizeWishlist(wishlist), nil
}

// RemoveFromWishlist fails with NotFound only when the customer has no
// wishlist at all; removing an absent product returns the list unchanged.
func (u *WishlistUsecase) RemoveFromWishlist(ctx context.Context, customerID, productID string) (*domain.Wishlist, error) {
	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}

	wishlist, err := u.repo.RemoveProduct(ctx, customerID, id)
	if err != nil {
		return nil, fmt.Errorf("remove from wishlist: %w", err)
	}
	if wishlist == nil {
		return nil, domain.NotFound("Wishlist not found.")
	}
	return normalizeWishlist(wishlist), nil
}

// MergeWishlist set-inserts a guest wishlist into the persisted one.
func (u *WishlistUsecase) MergeWishlist(ctx context.Context, customerID string, productIDs []string) (*domain.Wishlist, error) {
	if len(productIDs) == 0 {
		return u.GetMyWishlist(ctx, customerID)
	}

	ids := make([]primitive.ObjectID, 0, len(productIDs))
	for _, raw := range productIDs {
		id, err := parseProductID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	wishlist, err := u.repo.AddProducts(ctx, customerID, ids...)
	if err != nil {
		return nil, fmt.Errorf("merge wishlist: %w", err)
	}
	return normalizeWishlist(wishlist), nil
}

func normalizeWishlist(w *domain.Wishlist) *domain.Wishlist {
	if w.ProductIDs == nil {
		w.ProductIDs = []primitive.ObjectID{}
	}
	return w
}
