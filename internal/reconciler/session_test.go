package reconciler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"nutrastore-backend/pkg/shopclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote mimics the server: merges add quantities, wishlist merges dedupe.
type fakeRemote struct {
	mu          sync.Mutex
	cart        []shopclient.CartLine
	wishlist    []string
	mergeCarts  [][]shopclient.MergeLine
	mergeWishes [][]string
	calls       int
	failCart    error
	failWish    error
	failAdd     error
}

func (f *fakeRemote) snapshot() *shopclient.Cart {
	items := make([]shopclient.CartLine, len(f.cart))
	copy(items, f.cart)
	return &shopclient.Cart{Items: items}
}

func (f *fakeRemote) add(productID string, qty int) {
	for i := range f.cart {
		if f.cart[i].ProductID == productID {
			f.cart[i].Quantity += qty
			return
		}
	}
	f.cart = append(f.cart, shopclient.CartLine{ProductID: productID, Quantity: qty})
}

func (f *fakeRemote) GetCart(context.Context) (*shopclient.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snapshot(), nil
}

func (f *fakeRemote) AddToCart(_ context.Context, productID string) (*shopclient.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAdd != nil {
		return nil, f.failAdd
	}
	f.add(productID, 1)
	return f.snapshot(), nil
}

func (f *fakeRemote) DecrementCartItem(_ context.Context, productID string) (*shopclient.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for i := range f.cart {
		if f.cart[i].ProductID == productID {
			f.cart[i].Quantity--
			if f.cart[i].Quantity == 0 {
				f.cart = append(f.cart[:i], f.cart[i+1:]...)
			}
			break
		}
	}
	return f.snapshot(), nil
}

func (f *fakeRemote) DeleteCartItem(_ context.Context, productID string) (*shopclient.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for i := range f.cart {
		if f.cart[i].ProductID == productID {
			f.cart = append(f.cart[:i], f.cart[i+1:]...)
			break
		}
	}
	return f.snapshot(), nil
}

func (f *fakeRemote) MergeCart(_ context.Context, lines []shopclient.MergeLine) (*shopclient.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failCart != nil {
		return nil, f.failCart
	}
	f.mergeCarts = append(f.mergeCarts, lines)
	for _, l := range lines {
		f.add(l.ProductID, l.Quantity)
	}
	return f.snapshot(), nil
}

func (f *fakeRemote) GetWishlist(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]string{}, f.wishlist...), nil
}

func (f *fakeRemote) AddToWishlist(_ context.Context, productID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.addWish(productID)
	return append([]string{}, f.wishlist...), nil
}

func (f *fakeRemote) RemoveFromWishlist(_ context.Context, productID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for i, id := range f.wishlist {
		if id == productID {
			f.wishlist = append(f.wishlist[:i], f.wishlist[i+1:]...)
			break
		}
	}
	return append([]string{}, f.wishlist...), nil
}

func (f *fakeRemote) MergeWishlist(_ context.Context, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failWish != nil {
		return nil, f.failWish
	}
	f.mergeWishes = append(f.mergeWishes, ids)
	for _, id := range ids {
		f.addWish(id)
	}
	return append([]string{}, f.wishlist...), nil
}

func (f *fakeRemote) addWish(id string) {
	for _, w := range f.wishlist {
		if w == id {
			return
		}
	}
	f.wishlist = append(f.wishlist, id)
}

func quantity(lines []shopclient.CartLine, productID string) int {
	for _, l := range lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

func TestGuestMutationsStayLocal(t *testing.T) {
	s := NewSession(nil)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.AddToCart(ctx, "p2"))
	require.NoError(t, s.DecrementCartItem(ctx, "p2"))
	require.NoError(t, s.AddToWishlist(ctx, "w1"))
	require.NoError(t, s.AddToWishlist(ctx, "w1"))

	assert.Equal(t, Guest, s.State())
	assert.Equal(t, []shopclient.CartLine{{ProductID: "p1", Quantity: 2}}, s.Cart())
	assert.Equal(t, []string{"w1"}, s.Wishlist())

	require.NoError(t, s.DeleteCartItem(ctx, "p1"))
	require.NoError(t, s.RemoveFromWishlist(ctx, "w1"))
	assert.Empty(t, s.Cart())
	assert.Empty(t, s.Wishlist())
}

func TestLoginMergesGuestStateOnce(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{cart: []shopclient.CartLine{{ProductID: "p1", Quantity: 1}}, wishlist: []string{"w0"}}
	s := NewSession(nil)

	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.AddToCart(ctx, "p2"))
	require.NoError(t, s.AddToWishlist(ctx, "w0"))
	require.NoError(t, s.AddToWishlist(ctx, "w1"))

	require.NoError(t, s.Login(ctx, remote))

	assert.Equal(t, Authenticated, s.State())
	require.Len(t, remote.mergeCarts, 1)
	require.Len(t, remote.mergeWishes, 1)
	// Server line 1 plus guest 2.
	assert.Equal(t, 3, quantity(s.Cart(), "p1"))
	assert.Equal(t, 1, quantity(s.Cart(), "p2"))
	assert.Equal(t, []string{"w0", "w1"}, s.Wishlist())
}

func TestRepeatedLoginDoesNotRemergeServerState(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	s := NewSession(nil)

	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.AddToWishlist(ctx, "w1"))
	require.NoError(t, s.Login(ctx, remote))
	require.NoError(t, s.Login(ctx, remote))

	assert.Equal(t, Authenticated, s.State())
	assert.Len(t, remote.mergeCarts, 1)
	assert.Len(t, remote.mergeWishes, 1)
	assert.Equal(t, 2, quantity(s.Cart(), "p1"))
	assert.Equal(t, []string{"w1"}, s.Wishlist())

	other := &fakeRemote{cart: []shopclient.CartLine{{ProductID: "p7", Quantity: 1}}}
	require.NoError(t, s.Login(ctx, other))

	assert.Empty(t, other.mergeCarts)
	assert.Empty(t, other.mergeWishes)
	assert.Equal(t, 0, quantity(s.Cart(), "p1"))
	assert.Equal(t, 1, quantity(s.Cart(), "p7"))
}

func TestLoginWithEmptyGuestStateSkipsMerge(t *testing.T) {
	remote := &fakeRemote{cart: []shopclient.CartLine{{ProductID: "p9", Quantity: 4}}}
	s := NewSession(nil)

	require.NoError(t, s.Login(context.Background(), remote))

	assert.Empty(t, remote.mergeCarts)
	assert.Empty(t, remote.mergeWishes)
	assert.Equal(t, 4, quantity(s.Cart(), "p9"))
}

func TestLoginFailureKeepsGuestStateForRetry(t *testing.T) {
	ctx := context.Background()
	notes := make(chan Notification, 8)
	remote := &fakeRemote{failCart: errors.New("connection reset")}
	s := NewSession(notes)

	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.AddToWishlist(ctx, "w1"))

	err := s.Login(ctx, remote)
	require.Error(t, err)
	assert.Equal(t, AuthenticatedUnmerged, s.State())
	assert.Equal(t, 1, quantity(s.Cart(), "p1"))
	assert.Equal(t, []string{"w1"}, s.Wishlist())

	remote.failCart = nil
	require.NoError(t, s.Login(ctx, remote))
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, 1, quantity(s.Cart(), "p1"))

	var levels []Level
	for len(notes) > 0 {
		levels = append(levels, (<-notes).Level)
	}
	assert.Contains(t, levels, LevelError)
}

func TestWishlistFailureDoesNotResendCart(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{failWish: errors.New("timeout")}
	s := NewSession(nil)
	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.AddToWishlist(ctx, "w1"))

	require.Error(t, s.Login(ctx, remote))
	assert.Empty(t, s.Cart())
	assert.Equal(t, []string{"w1"}, s.Wishlist())

	remote.failWish = nil
	require.NoError(t, s.Login(ctx, remote))

	assert.Len(t, remote.mergeCarts, 1)
	assert.Equal(t, 1, quantity(s.Cart(), "p1"))
	assert.Equal(t, []string{"w1"}, s.Wishlist())
}

func TestAuthenticatedMutationsGoToServer(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	s := NewSession(nil)
	require.NoError(t, s.Login(ctx, remote))

	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.AddToCart(ctx, "p1"))
	require.NoError(t, s.DecrementCartItem(ctx, "p1"))
	require.NoError(t, s.AddToWishlist(ctx, "w1"))

	assert.Equal(t, 1, quantity(remote.cart, "p1"))
	assert.Equal(t, remote.cart, s.Cart())
	assert.Equal(t, []string{"w1"}, s.Wishlist())

	require.NoError(t, s.DeleteCartItem(ctx, "p1"))
	require.NoError(t, s.RemoveFromWishlist(ctx, "w1"))
	assert.Empty(t, s.Cart())
	assert.Empty(t, remote.wishlist)
}

func TestAuthenticatedFailureNotifiesAndKeepsCache(t *testing.T) {
	ctx := context.Background()
	notes := make(chan Notification, 4)
	remote := &fakeRemote{cart: []shopclient.CartLine{{ProductID: "p1", Quantity: 1}}}
	s := NewSession(notes)
	require.NoError(t, s.Login(ctx, remote))

	remote.failAdd = &shopclient.APIError{StatusCode: http.StatusNotFound, Message: "Product p2 not found."}
	err := s.AddToCart(ctx, "p2")

	require.Error(t, err)
	assert.True(t, shopclient.IsStatus(err, http.StatusNotFound))
	assert.Equal(t, []shopclient.CartLine{{ProductID: "p1", Quantity: 1}}, s.Cart())
	require.Len(t, notes, 1)
	n := <-notes
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Product p2 not found.", n.Message)
}

func TestLogoutDropsLocalState(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{cart: []shopclient.CartLine{{ProductID: "p1", Quantity: 2}}}
	s := NewSession(nil)
	require.NoError(t, s.Login(ctx, remote))

	s.Logout()

	assert.Equal(t, Guest, s.State())
	assert.Empty(t, s.Cart())
	calls := remote.calls
	require.NoError(t, s.AddToCart(ctx, "p3"))
	assert.Equal(t, calls, remote.calls, "guest adds make no network calls")
	assert.Equal(t, 2, quantity(remote.cart, "p1"))
}

func TestNotificationsNeverBlock(t *testing.T) {
	notes := make(chan Notification, 1)
	s := NewSession(notes)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddToCart(context.Background(), "p1"))
	}

	assert.Len(t, notes, 1)
	assert.Equal(t, 5, quantity(s.Cart(), "p1"))
}

func TestRefreshAsGuestIsNoop(t *testing.T) {
	s := NewSession(nil)
	assert.NoError(t, s.Refresh(context.Background()))
}

func TestSessionSatisfiedByShopClient(t *testing.T) {
	var _ Remote = (*shopclient.Client)(nil)
}
