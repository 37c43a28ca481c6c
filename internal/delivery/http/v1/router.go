package v1

import (
	"net/http"

	"nutrastore-backend/internal/delivery/http/middleware"
)

type Handlers struct {
	Catalog    *CatalogHandler
	Cart       *CartHandler
	Wishlist   *WishlistHandler
	Order      *OrderHandler
	AdminOrder *AdminOrderHandler
	Health     *HealthHandler
	// Idempotency wraps POST /orders.
	Idempotency func(http.Handler) http.Handler
}

// RegisterRoutes mounts every /api/v1 route on mux.
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	auth := func(fn http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(fn))
	}
	idem := h.Idempotency
	if idem == nil {
		idem = func(next http.Handler) http.Handler { return next }
	}

	// Catalog (Public)
	mux.HandleFunc("GET /api/v1/products/similarProducts", h.Catalog.SimilarProducts)

	// Cart (Protected)
	mux.Handle("GET /api/v1/cart", auth(h.Cart.GetCart))
	mux.Handle("POST /api/v1/cart", auth(h.Cart.AddToCart))
	mux.Handle("PUT /api/v1/cart", auth(h.Cart.DecrementCartItem))
	mux.Handle("DELETE /api/v1/cart", auth(h.Cart.ClearCart))
	mux.Handle("DELETE /api/v1/cart/items/{productId}", auth(h.Cart.DeleteCartItem))
	mux.Handle("POST /api/v1/cart/merge", auth(h.Cart.MergeCart))

	// Wishlist (Protected)
	mux.Handle("GET /api/v1/wishlist", auth(h.Wishlist.GetMyWishlist))
	mux.Handle("POST /api/v1/wishlist", auth(h.Wishlist.AddToWishlist))
	mux.Handle("PUT /api/v1/wishlist", auth(h.Wishlist.RemoveFromWishlist))
	mux.Handle("POST /api/v1/wishlist/merge", auth(h.Wishlist.MergeWishlist))

	// Orders (Protected)
	mux.Handle("POST /api/v1/orders", middleware.AuthMiddleware(idem(http.HandlerFunc(h.Order.PlaceOrder))))
	mux.Handle("GET /api/v1/orders", auth(h.Order.GetMyOrders))
	mux.Handle("PUT /api/v1/orders", auth(h.Order.CancelOrder))

	// Admin
	mux.Handle("GET /api/v1/admin/orders/pending", admin(h.AdminOrder.ListPendingOrders))

	// Health Check
	mux.Handle("GET /api/v1/health", h.Health)
	mux.Handle("GET /health", h.Health) // load balancers check the root path
}
