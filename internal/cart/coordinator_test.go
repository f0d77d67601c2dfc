package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	burgerBros = int64(1)
	sushiBar   = int64(2)
	burger     = int64(10)
	fries      = int64(11)
	salmonRoll = int64(20)
)

var menus = map[int64]struct {
	restaurant int64
	ref        domain.MenuRef
}{
	burger:     {burgerBros, domain.MenuRef{ID: burger, FoodName: "Burger", Price: 50000, Type: "food"}},
	fries:      {burgerBros, domain.MenuRef{ID: fries, FoodName: "Fries", Price: 20000, Type: "food"}},
	salmonRoll: {sushiBar, domain.MenuRef{ID: salmonRoll, FoodName: "Salmon Roll", Price: 45000, Type: "food"}},
}

// fakeBackend behaves like the remote cart service. Mutations can be held
// open with hold() to control the order in which they settle.
type fakeBackend struct {
	m          sync.Mutex
	partitions []domain.RestaurantCart
	nextLineID int64
	err        error
	calls      []string
	getCalls   int

	release chan struct{}
	entered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextLineID: 100}
}

func (b *fakeBackend) hold() {
	b.m.Lock()
	defer b.m.Unlock()
	b.release = make(chan struct{})
	b.entered = make(chan struct{}, 16)
}

func (b *fakeBackend) unhold() {
	b.m.Lock()
	release := b.release
	b.release = nil
	b.m.Unlock()
	if release != nil {
		close(release)
	}
}

func (b *fakeBackend) waitEntered(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-b.entered:
		case <-time.After(time.Second):
			t.Fatalf("backend call %d never arrived", i+1)
		}
	}
}

func (b *fakeBackend) gate(call string) error {
	b.m.Lock()
	b.calls = append(b.calls, call)
	release, entered, err := b.release, b.entered, b.err
	b.m.Unlock()
	if release != nil {
		entered <- struct{}{}
		<-release
	}
	return err
}

func (b *fakeBackend) seed(restaurantID, menuID int64, quantity int) int64 {
	b.m.Lock()
	defer b.m.Unlock()
	return b.addLocked(restaurantID, menuID, quantity)
}

func (b *fakeBackend) addLocked(restaurantID, menuID int64, quantity int) int64 {
	for i := range b.partitions {
		if b.partitions[i].Restaurant.ID != restaurantID {
			continue
		}
		for j := range b.partitions[i].Items {
			if b.partitions[i].Items[j].Menu.ID == menuID {
				b.partitions[i].Items[j].Quantity += quantity
				return b.partitions[i].Items[j].ID
			}
		}
		b.nextLineID++
		b.partitions[i].Items = append(b.partitions[i].Items, domain.CartItem{
			ID: b.nextLineID, Menu: menus[menuID].ref, Quantity: quantity,
		})
		return b.nextLineID
	}
	b.nextLineID++
	b.partitions = append(b.partitions, domain.RestaurantCart{
		Restaurant: domain.RestaurantRef{ID: restaurantID, Name: fmt.Sprintf("resto-%d", restaurantID)},
		Items:      []domain.CartItem{{ID: b.nextLineID, Menu: menus[menuID].ref, Quantity: quantity}},
	})
	return b.nextLineID
}

func (b *fakeBackend) snapshot() *domain.Cart {
	out := &domain.Cart{Restaurants: make([]domain.RestaurantCart, 0, len(b.partitions))}
	for _, p := range b.partitions {
		cp := p
		cp.Items = append([]domain.CartItem(nil), p.Items...)
		out.Restaurants = append(out.Restaurants, cp)
	}
	return out
}

func (b *fakeBackend) GetCart(context.Context) (*domain.Cart, error) {
	b.m.Lock()
	defer b.m.Unlock()
	b.getCalls++
	return b.snapshot(), nil
}

func (b *fakeBackend) AddItem(_ context.Context, restaurantID, menuID int64, quantity int) (*domain.Cart, error) {
	if err := b.gate(fmt.Sprintf("add %d/%d x%d", restaurantID, menuID, quantity)); err != nil {
		return nil, err
	}
	b.m.Lock()
	defer b.m.Unlock()
	b.addLocked(restaurantID, menuID, quantity)
	return b.snapshot(), nil
}

func (b *fakeBackend) UpdateQuantity(_ context.Context, lineID int64, quantity int) (*domain.Cart, error) {
	if err := b.gate(fmt.Sprintf("update %d=%d", lineID, quantity)); err != nil {
		return nil, err
	}
	b.m.Lock()
	defer b.m.Unlock()
	for i := range b.partitions {
		for j := range b.partitions[i].Items {
			if b.partitions[i].Items[j].ID == lineID {
				b.partitions[i].Items[j].Quantity = quantity
			}
		}
	}
	return b.snapshot(), nil
}

func (b *fakeBackend) DeleteItem(_ context.Context, lineID int64) (*domain.Cart, error) {
	if err := b.gate(fmt.Sprintf("delete %d", lineID)); err != nil {
		return nil, err
	}
	b.m.Lock()
	defer b.m.Unlock()
	kept := b.partitions[:0]
	for _, p := range b.partitions {
		items := p.Items[:0]
		for _, item := range p.Items {
			if item.ID != lineID {
				items = append(items, item)
			}
		}
		p.Items = items
		if len(items) > 0 {
			kept = append(kept, p)
		}
	}
	b.partitions = kept
	return b.snapshot(), nil
}

func (b *fakeBackend) ClearCart(context.Context) (*domain.Cart, error) {
	if err := b.gate("clear"); err != nil {
		return nil, err
	}
	b.m.Lock()
	defer b.m.Unlock()
	b.partitions = nil
	return b.snapshot(), nil
}

func (b *fakeBackend) recorded() []string {
	b.m.Lock()
	defer b.m.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) gets() int {
	b.m.Lock()
	defer b.m.Unlock()
	return b.getCalls
}

type mapCache struct {
	m     sync.Mutex
	carts map[string]*domain.Cart
}

func newMapCache() *mapCache {
	return &mapCache{carts: make(map[string]*domain.Cart)}
}

func (c *mapCache) Get(_ context.Context, id string) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	cart, ok := c.carts[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (c *mapCache) Set(_ context.Context, id string, cart *domain.Cart) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.carts[id] = cart
	return nil
}

func (c *mapCache) Delete(_ context.Context, id string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.carts, id)
	return nil
}

func authenticated() session.Session {
	return session.Session{ID: "sess-1", Token: "token-abc", User: &domain.User{ID: 1, Name: "Ana"}}
}

func setup(t *testing.T) (*Coordinator, *fakeBackend, *mapCache) {
	t.Helper()
	backend := newFakeBackend()
	c := newMapCache()
	return NewCoordinator(authenticated(), backend, c, logger.Discard()), backend, c
}

func TestIncrement_ExistingLine(t *testing.T) {
	coord, backend, _ := setup(t)
	backend.seed(burgerBros, burger, 2)
	require.NoError(t, coord.Refresh(context.Background()))
	assert.Equal(t, 2, coord.QuantityOf(burgerBros, burger))

	require.NoError(t, coord.Increment(context.Background(), burgerBros, burger))

	assert.Equal(t, 3, coord.QuantityOf(burgerBros, burger))
	p, ok := coord.Partition(burgerBros)
	require.True(t, ok)
	assert.Equal(t, int64(150000), p.Subtotal)
	assert.Equal(t, int64(150000), p.Items[0].ItemTotal)
	assert.Equal(t, []string{"add 1/10 x1"}, backend.recorded())
	assert.Equal(t, 0, coord.PendingCount())
}

func TestIncrement_ShowsPendingWhileInFlight(t *testing.T) {
	coord, backend, _ := setup(t)
	backend.seed(burgerBros, burger, 2)
	require.NoError(t, coord.Refresh(context.Background()))

	backend.hold()
	done := make(chan error, 1)
	go func() { done <- coord.Increment(context.Background(), burgerBros, burger) }()
	backend.waitEntered(t, 1)

	assert.Equal(t, Pending{DisplayedQuantity: 3, IntendedDelta: 1}, coord.StateOf(burgerBros, burger))
	assert.Equal(t, 3, coord.QuantityOf(burgerBros, burger))
	// The projection only reflects confirmed state.
	p, _ := coord.Partition(burgerBros)
	assert.Equal(t, 2, p.Items[0].Quantity)

	backend.unhold()
	require.NoError(t, <-done)
	assert.Equal(t, Confirmed{Quantity: 3}, coord.StateOf(burgerBros, burger))
}

func TestIncrement_LastWriteWins(t *testing.T) {
	coord, backend, _ := setup(t)
	require.NoError(t, coord.Refresh(context.Background()))

	backend.hold()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, coord.Increment(context.Background(), burgerBros, burger))
	}()
	backend.waitEntered(t, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, coord.Increment(context.Background(), burgerBros, burger))
	}()
	backend.waitEntered(t, 1)

	assert.Equal(t, 2, coord.QuantityOf(burgerBros, burger))
	assert.Equal(t, 1, coord.PendingCount())

	backend.unhold()
	wg.Wait()

	assert.Equal(t, 2, coord.QuantityOf(burgerBros, burger))
	assert.Equal(t, 0, coord.PendingCount())
}

func TestIncrement_OutOfOrderSettlementConverges(t *testing.T) {
	coord, backend, _ := setup(t)
	require.NoError(t, coord.Refresh(context.Background()))

	backend.hold()
	first := make(chan error, 1)
	go func() { first <- coord.Increment(context.Background(), burgerBros, burger) }()
	backend.waitEntered(t, 1)

	// Second call goes through while the first is still open.
	backend.m.Lock()
	release := backend.release
	backend.release = nil
	backend.m.Unlock()
	require.NoError(t, coord.Increment(context.Background(), burgerBros, burger))

	// Pending was dropped on the second settlement; authoritative shows one unit.
	assert.Equal(t, 1, coord.QuantityOf(burgerBros, burger))

	close(release)
	require.NoError(t, <-first)
	assert.Equal(t, 2, coord.QuantityOf(burgerBros, burger))
	assert.Equal(t, Confirmed{Quantity: 2}, coord.StateOf(burgerBros, burger))
}

func TestApply_DiscardsOlderLoad(t *testing.T) {
	coord, _, _ := setup(t)
	older := coord.beginLoad()
	newer := coord.beginLoad()

	fresh := &domain.Cart{Restaurants: []domain.RestaurantCart{{
		Restaurant: domain.RestaurantRef{ID: burgerBros},
		Items:      []domain.CartItem{{ID: 1, Menu: menus[burger].ref, Quantity: 4}},
	}}}
	stale := &domain.Cart{Restaurants: []domain.RestaurantCart{{
		Restaurant: domain.RestaurantRef{ID: burgerBros},
		Items:      []domain.CartItem{{ID: 1, Menu: menus[burger].ref, Quantity: 1}},
	}}}

	assert.True(t, coord.apply(newer, fresh))
	assert.False(t, coord.apply(older, stale))
	assert.Equal(t, 4, coord.QuantityOf(burgerBros, burger))
}

func TestIncrement_FailureRevertsToAuthoritative(t *testing.T) {
	coord, backend, _ := setup(t)
	backend.seed(burgerBros, burger, 2)
	require.NoError(t, coord.Refresh(context.Background()))
	getsBefore := backend.gets()

	boom := errors.New("backend unavailable")
	backend.err = boom
	err := coord.Increment(context.Background(), burgerBros, burger)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMutationFailed)
	assert.ErrorIs(t, err, boom)
	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, "add", mutErr.Op)
	assert.Equal(t, burger, mutErr.MenuID)

	assert.Equal(t, 2, coord.QuantityOf(burgerBros, burger))
	assert.Equal(t, 0, coord.PendingCount())
	assert.Equal(t, getsBefore, backend.gets(), "no refetch after failure")
	assert.Len(t, backend.recorded(), 1, "no retry")
}

func TestDecrement_UpdatesQuantity(t *testing.T) {
	coord, backend, _ := setup(t)
	lineID := backend.seed(burgerBros, burger, 3)
	require.NoError(t, coord.Refresh(context.Background()))

	require.NoError(t, coord.Decrement(context.Background(), burgerBros, burger))

	assert.Equal(t, 2, coord.QuantityOf(burgerBros, burger))
	assert.Equal(t, []string{fmt.Sprintf("update %d=2", lineID)}, backend.recorded())
}

func TestDecrement_ToZeroDeletesLine(t *testing.T) {
	coord, backend, _ := setup(t)
	lineID := backend.seed(burgerBros, burger, 1)
	backend.seed(sushiBar, salmonRoll, 2)
	require.NoError(t, coord.Refresh(context.Background()))

	require.NoError(t, coord.Decrement(context.Background(), burgerBros, burger))

	assert.Equal(t, []string{fmt.Sprintf("delete %d", lineID)}, backend.recorded())
	assert.Equal(t, 0, coord.QuantityOf(burgerBros, burger))
	_, ok := coord.Partition(burgerBros)
	assert.False(t, ok)
	parts := coord.ListPartitions()
	require.Len(t, parts, 1)
	assert.Equal(t, sushiBar, parts[0].Restaurant.ID)
}

func TestDecrement_AtZeroIsNoop(t *testing.T) {
	coord, backend, _ := setup(t)
	require.NoError(t, coord.Refresh(context.Background()))

	require.NoError(t, coord.Decrement(context.Background(), burgerBros, burger))
	assert.Empty(t, backend.recorded())
	assert.Equal(t, 0, coord.PendingCount())
}

func TestDecrement_LineNotResolvable(t *testing.T) {
	coord, backend, _ := setup(t)
	require.NoError(t, coord.Refresh(context.Background()))

	backend.hold()
	done := make(chan error, 1)
	go func() { done <- coord.Increment(context.Background(), burgerBros, burger) }()
	backend.waitEntered(t, 1)
	require.Equal(t, 1, coord.QuantityOf(burgerBros, burger))

	err := coord.Decrement(context.Background(), burgerBros, burger)
	assert.ErrorIs(t, err, ErrLineNotResolvable)
	assert.Equal(t, 1, coord.QuantityOf(burgerBros, burger))
	assert.Equal(t, []string{"add 1/10 x1"}, backend.recorded())

	backend.unhold()
	require.NoError(t, <-done)
}

func TestListPartitions_ComputesSubtotals(t *testing.T) {
	coord, backend, _ := setup(t)
	backend.seed(burgerBros, burger, 2)
	backend.seed(burgerBros, fries, 1)
	backend.seed(sushiBar, salmonRoll, 3)
	require.NoError(t, coord.Refresh(context.Background()))

	parts := coord.ListPartitions()
	require.Len(t, parts, 2)
	assert.Equal(t, int64(120000), parts[0].Subtotal)
	assert.Equal(t, int64(135000), parts[1].Subtotal)
	assert.Equal(t, int64(20000), parts[0].Items[1].ItemTotal)

	s := coord.Summary()
	assert.Equal(t, 6, s.TotalItems)
	assert.Equal(t, int64(255000), s.TotalPrice)
	assert.Equal(t, 2, s.RestaurantCount)
}

func TestListPartitions_BeforeFirstLoad(t *testing.T) {
	coord, _, _ := setup(t)
	assert.Empty(t, coord.ListPartitions())
	assert.Equal(t, domain.CartSummary{}, coord.Summary())
}

func TestRefresh_PrefersCache(t *testing.T) {
	coord, backend, c := setup(t)
	backend.seed(burgerBros, burger, 5)
	require.NoError(t, c.Set(context.Background(), "user:1", &domain.Cart{Restaurants: []domain.RestaurantCart{{
		Restaurant: domain.RestaurantRef{ID: burgerBros},
		Items:      []domain.CartItem{{ID: 1, Menu: menus[burger].ref, Quantity: 2}},
	}}}))

	require.NoError(t, coord.Refresh(context.Background()))
	assert.Equal(t, 0, backend.gets())
	assert.Equal(t, 2, coord.QuantityOf(burgerBros, burger))

	require.NoError(t, coord.Invalidate(context.Background()))
	assert.Equal(t, 1, backend.gets())
	assert.Equal(t, 5, coord.QuantityOf(burgerBros, burger))
	cached, err := c.Get(context.Background(), "user:1")
	require.NoError(t, err)
	assert.Equal(t, 5, cached.Restaurants[0].Items[0].Quantity)
}

func TestRefresh_MissFillsCache(t *testing.T) {
	coord, backend, c := setup(t)
	backend.seed(burgerBros, burger, 1)

	require.NoError(t, coord.Refresh(context.Background()))
	assert.Equal(t, 1, backend.gets())
	_, err := c.Get(context.Background(), "user:1")
	assert.NoError(t, err)
}

func TestRefresh_CacheFollowsSignedInUser(t *testing.T) {
	coord, backend, c := setup(t)
	backend.seed(burgerBros, burger, 2)
	require.NoError(t, coord.Refresh(context.Background()))

	// Same browser session, different account.
	other := session.Session{ID: "sess-1", Token: "token-xyz", User: &domain.User{ID: 2, Name: "Bob"}}
	otherBackend := newFakeBackend()
	next := NewCoordinator(other, otherBackend, c, logger.Discard())

	require.NoError(t, next.Refresh(context.Background()))
	assert.Equal(t, 1, otherBackend.gets())
	assert.Equal(t, 0, next.QuantityOf(burgerBros, burger))
	assert.Empty(t, next.ListPartitions())

	cached, err := c.Get(context.Background(), "user:1")
	require.NoError(t, err)
	assert.Equal(t, 2, cached.Restaurants[0].Items[0].Quantity)
}

func TestClear_EmptiesEveryPartition(t *testing.T) {
	coord, backend, _ := setup(t)
	backend.seed(burgerBros, burger, 1)
	backend.seed(sushiBar, salmonRoll, 1)
	require.NoError(t, coord.Refresh(context.Background()))

	require.NoError(t, coord.Clear(context.Background()))
	assert.Empty(t, coord.ListPartitions())
	assert.Equal(t, 0, coord.QuantityOf(sushiBar, salmonRoll))
}

func TestAnonymousSession(t *testing.T) {
	backend := newFakeBackend()
	backend.seed(burgerBros, burger, 2)
	coord := NewCoordinator(session.Session{ID: "anon"}, backend, newMapCache(), logger.Discard())
	ctx := context.Background()

	require.NoError(t, coord.Refresh(ctx))
	assert.Equal(t, 0, coord.QuantityOf(burgerBros, burger))
	assert.Empty(t, coord.ListPartitions())

	assert.ErrorIs(t, coord.Increment(ctx, burgerBros, burger), session.ErrAnonymous)
	assert.ErrorIs(t, coord.Decrement(ctx, burgerBros, burger), session.ErrAnonymous)
	assert.ErrorIs(t, coord.Clear(ctx), session.ErrAnonymous)
	assert.Empty(t, backend.recorded())
	assert.Equal(t, 0, backend.gets())
}
