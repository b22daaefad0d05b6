package catalog

import (
	"context"
	"slices"
	"sort"
	"sync"

	"go.uber.org/zap"

	"catalog/internal/logger"
	"catalog/internal/models"
)

const (
	// PageSize is the initial listing limit and the "Ver mais" increment.
	PageSize = 8
	// AllCategories is the unfiltered listing.
	AllCategories = "all"
)

// Order is the client-side price sort. Anything but OrderAsc and OrderDesc keeps server order.
type Order string

const (
	OrderNone Order = ""
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder maps a query value to an Order; unknown values mean no sort.
func ParseOrder(s string) Order {
	switch Order(s) {
	case OrderAsc, OrderDesc:
		return Order(s)
	}
	return OrderNone
}

// State of a Query.
type State int

const (
	StateIdle State = iota
	StateLoading
)

func (s State) String() string {
	if s == StateLoading {
		return "loading"
	}
	return "idle"
}

// Source is the remote catalog. *fakestore.Client implements it.
type Source interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Products(ctx context.Context, limit int, category string) ([]models.Product, error)
}

// Snapshot is a copy of the query state; changing it does not affect the Query.
type Snapshot struct {
	Products   []models.Product
	Categories []models.Category
	State      State
}

// Loading reports whether a fetch is in flight.
func (s Snapshot) Loading() bool { return s.State == StateLoading }

// Query fetches categories and products and keeps the latest result.
//
// Categories and products are tracked on separate lanes. Every fetch takes a
// ticket on its lane and only the holder of the newest ticket may publish its
// result or end the lane's loading, so an older fetch finishing late can neither
// overwrite newer data nor clear the loading state early.
type Query struct {
	src Source
	log *zap.Logger

	mu         sync.Mutex
	catLane    lane
	prodLane   lane
	products   []models.Product
	categories []models.Category
}

type lane struct {
	ticket uint64
	busy   bool
}

func NewQuery(src Source, log *zap.Logger) *Query {
	return &Query{src: src, log: logger.OrNop(log)}
}

// FetchCategories replaces the category set. On failure the error is logged and
// the previous set stays.
func (q *Query) FetchCategories(ctx context.Context) {
	t := q.begin(&q.catLane)
	defer q.end(&q.catLane, t)

	cats, err := q.src.Categories(ctx)
	if err != nil {
		q.log.Error("fetch categories failed", zap.Error(err))
		return
	}
	q.publish(&q.catLane, t, func() { q.categories = cats })
}

// FetchProducts replaces the product set with the listing for category, sorted by order.
// On failure the error is logged and the previous products stay.
func (q *Query) FetchProducts(ctx context.Context, limit int, category string, order Order) {
	t := q.begin(&q.prodLane)
	defer q.end(&q.prodLane, t)

	products, err := q.src.Products(ctx, limit, category)
	if err != nil {
		q.log.Error("fetch products failed",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.String("category", category))
		return
	}
	SortByPrice(products, order)
	q.publish(&q.prodLane, t, func() { q.products = products })
}

// Snapshot returns a copy of the current state.
func (q *Query) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Snapshot{
		Products:   slices.Clone(q.products),
		Categories: slices.Clone(q.categories),
		State:      q.stateLocked(),
	}
}

// State returns the current state without copying the data.
func (q *Query) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stateLocked()
}

func (q *Query) stateLocked() State {
	if q.catLane.busy || q.prodLane.busy {
		return StateLoading
	}
	return StateIdle
}

func (q *Query) begin(l *lane) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	l.ticket++
	l.busy = true
	return l.ticket
}

func (q *Query) publish(l *lane, t uint64, apply func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t != l.ticket {
		q.log.Debug("dropping stale fetch result", zap.Uint64("ticket", t), zap.Uint64("current", l.ticket))
		return
	}
	apply()
}

func (q *Query) end(l *lane, t uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t == l.ticket {
		l.busy = false
	}
}

// SortByPrice sorts products in place, keeping the relative order of equal prices.
func SortByPrice(products []models.Product, order Order) {
	switch order {
	case OrderAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case OrderDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	}
}
