// Package reconciler keeps a shopper's cart and wishlist across the guest
// to signed-in transition.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"nutrastore-backend/pkg/shopclient"
)

type State int

const (
	Guest State = iota
	AuthenticatedUnmerged
	Authenticated
)

func (s State) String() string {
	switch s {
	case Guest:
		return "guest"
	case AuthenticatedUnmerged:
		return "authenticated_unmerged"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Remote is the server side of a signed-in session. *shopclient.Client
// satisfies it.
type Remote interface {
	GetCart(ctx context.Context) (*shopclient.Cart, error)
	AddToCart(ctx context.Context, productID string) (*shopclient.Cart, error)
	DecrementCartItem(ctx context.Context, productID string) (*shopclient.Cart, error)
	DeleteCartItem(ctx context.Context, productID string) (*shopclient.Cart, error)
	MergeCart(ctx context.Context, lines []shopclient.MergeLine) (*shopclient.Cart, error)
	GetWishlist(ctx context.Context) ([]string, error)
	AddToWishlist(ctx context.Context, productID string) ([]string, error)
	RemoveFromWishlist(ctx context.Context, productID string) ([]string, error)
	MergeWishlist(ctx context.Context, productIDs []string) ([]string, error)
}

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is a user-visible outcome, e.g. "Added to cart".
type Notification struct {
	Level   Level
	Message string
}

// Session holds cart and wishlist state for one shopper. While a guest,
// mutations stay local. Once authenticated every mutation goes to the server
// and the local copy mirrors the last server response.
type Session struct {
	mu       sync.Mutex
	state    State
	remote   Remote
	cart     []shopclient.CartLine
	wishlist []string
	notify   chan<- Notification
}

// NewSession starts a guest session. notify may be nil; sends never block.
func NewSession(notify chan<- Notification) *Session {
	return &Session{state: Guest, notify: notify}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Cart() []shopclient.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shopclient.CartLine, len(s.cart))
	copy(out, s.cart)
	return out
}

func (s *Session) Wishlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.wishlist))
	copy(out, s.wishlist)
	return out
}

// --- Cart ---

func (s *Session) AddToCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Authenticated {
		if i := s.cartIndex(productID); i >= 0 {
			s.cart[i].Quantity++
		} else {
			s.cart = append(s.cart, shopclient.CartLine{ProductID: productID, Quantity: 1})
		}
		s.emit(LevelInfo, "Added to cart")
		return nil
	}
	cart, err := s.remote.AddToCart(ctx, productID)
	return s.applyCart(cart, err, "Added to cart")
}

// DecrementCartItem lowers the quantity by one; a line reaching zero is removed.
func (s *Session) DecrementCartItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Authenticated {
		if i := s.cartIndex(productID); i >= 0 {
			s.cart[i].Quantity--
			if s.cart[i].Quantity <= 0 {
				s.cart = append(s.cart[:i], s.cart[i+1:]...)
			}
		}
		s.emit(LevelInfo, "Cart updated")
		return nil
	}
	cart, err := s.remote.DecrementCartItem(ctx, productID)
	return s.applyCart(cart, err, "Cart updated")
}

func (s *Session) DeleteCartItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Authenticated {
		if i := s.cartIndex(productID); i >= 0 {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
		}
		s.emit(LevelInfo, "Removed from cart")
		return nil
	}
	cart, err := s.remote.DeleteCartItem(ctx, productID)
	return s.applyCart(cart, err, "Removed from cart")
}

// --- Wishlist ---

func (s *Session) AddToWishlist(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Authenticated {
		if s.wishlistIndex(productID) < 0 {
			s.wishlist = append(s.wishlist, productID)
		}
		s.emit(LevelInfo, "Added to wishlist")
		return nil
	}
	ids, err := s.remote.AddToWishlist(ctx, productID)
	return s.applyWishlist(ids, err, "Added to wishlist")
}

func (s *Session) RemoveFromWishlist(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Authenticated {
		if i := s.wishlistIndex(productID); i >= 0 {
			s.wishlist = append(s.wishlist[:i], s.wishlist[i+1:]...)
		}
		s.emit(LevelInfo, "Removed from wishlist")
		return nil
	}
	ids, err := s.remote.RemoveFromWishlist(ctx, productID)
	return s.applyWishlist(ids, err, "Removed from wishlist")
}

// --- Lifecycle ---

// Login merges the guest cart and wishlist into the server state, one call
// each and only when non-empty, then loads the server copy. On a merge
// failure the session stays AuthenticatedUnmerged with the unmerged guest
// state kept, and Login can be called again. On an already authenticated
// session the local copy mirrors the server, so nothing is merged.
func (s *Session) Login(ctx context.Context, remote Remote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Authenticated {
		s.cart = nil
		s.wishlist = nil
	}
	s.remote = remote
	s.state = AuthenticatedUnmerged

	if len(s.cart) > 0 {
		lines := make([]shopclient.MergeLine, len(s.cart))
		for i, l := range s.cart {
			lines[i] = shopclient.MergeLine{ProductID: l.ProductID, Quantity: l.Quantity}
		}
		if _, err := remote.MergeCart(ctx, lines); err != nil {
			s.emit(LevelError, "Could not sync your cart. Please try again.")
			return fmt.Errorf("merge cart: %w", err)
		}
		// Merged quantities add up server side, so a retry must not resend them.
		s.cart = nil
	}

	if len(s.wishlist) > 0 {
		if _, err := remote.MergeWishlist(ctx, s.wishlist); err != nil {
			s.emit(LevelError, "Could not sync your wishlist. Please try again.")
			return fmt.Errorf("merge wishlist: %w", err)
		}
		s.wishlist = nil
	}

	s.state = Authenticated
	return s.refresh(ctx)
}

// Refresh replaces the local copy with the server state.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated {
		return nil
	}
	return s.refresh(ctx)
}

// Logout returns to an empty guest session. The server cart stays on the server.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Guest
	s.remote = nil
	s.cart = nil
	s.wishlist = nil
}

func (s *Session) refresh(ctx context.Context) error {
	cart, err := s.remote.GetCart(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	wishlist, err := s.remote.GetWishlist(ctx)
	if err != nil {
		return fmt.Errorf("load wishlist: %w", err)
	}
	s.cart = cart.Items
	s.wishlist = wishlist
	return nil
}

// applyCart stores a server response and reports the outcome. The caller
// holds the lock.
func (s *Session) applyCart(cart *shopclient.Cart, err error, success string) error {
	if err != nil {
		s.emit(LevelError, failureMessage(err))
		return err
	}
	s.cart = cart.Items
	s.emit(LevelInfo, success)
	return nil
}

func (s *Session) applyWishlist(ids []string, err error, success string) error {
	if err != nil {
		s.emit(LevelError, failureMessage(err))
		return err
	}
	s.wishlist = ids
	s.emit(LevelInfo, success)
	return nil
}

func (s *Session) emit(level Level, msg string) {
	if s.notify == nil {
		return
	}
	select {
	case s.notify <- Notification{Level: level, Message: msg}:
	default:
	}
}

func (s *Session) cartIndex(productID string) int {
	for i, l := range s.cart {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Session) wishlistIndex(productID string) int {
	for i, id := range s.wishlist {
		if id == productID {
			return i
		}
	}
	return -1
}

func failureMessage(err error) string {
	var apiErr *shopclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong."
}
