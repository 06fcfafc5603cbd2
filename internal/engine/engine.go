// Package engine turns a free-text question into a response computed from a
// record snapshot. It classifies the question, extracts the figures the intent
// needs and renders them, keeping the conversation context in the caller's
// session.
package engine

import (
	"log/slog"

	"ops-agent/internal/compose"
	"ops-agent/internal/domain"
	"ops-agent/internal/intent"
	"ops-agent/internal/metrics"
	"ops-agent/internal/store"
)

// DefaultLowStockThreshold is the stock level under which an item is low.
const DefaultLowStockThreshold = 500

// Option configures an Engine.
type Option func(*config)

type config struct {
	threshold  int
	classifier *intent.Classifier
	logger     *slog.Logger
}

// WithLowStockThreshold overrides DefaultLowStockThreshold. Non-positive
// values are ignored.
func WithLowStockThreshold(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithClassifier replaces the default keyword classifier, e.g. to inject a
// custom alias table.
func WithClassifier(cl *intent.Classifier) Option {
	return func(c *config) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Engine answers questions. It holds no conversation state and is safe for
// concurrent use as long as each session is used by one caller at a time.
type Engine struct {
	threshold  int
	classifier *intent.Classifier
	logger     *slog.Logger
}

func New(opts ...Option) *Engine {
	cfg := &config{threshold: DefaultLowStockThreshold}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.classifier == nil {
		cfg.classifier = intent.New()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Engine{threshold: cfg.threshold, classifier: cfg.classifier, logger: cfg.logger}
}

// Threshold returns the low-stock threshold in effect.
func (e *Engine) Threshold() int {
	return e.threshold
}

// Ask answers query against snap. The session's context is consulted for
// follow-ups and advanced afterwards, and both turns are appended to its
// transcript. A nil session answers statelessly. Ask always returns a
// response with non-empty text.
func (e *Engine) Ask(query string, snap store.Snapshot, session *domain.SessionState) (resp compose.Response) {
	if session == nil {
		session = domain.NewSessionState("")
	}
	in := intent.Intent{Kind: intent.KindFallback, Locale: intent.DetectLocale(query)}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine: recovered from panic", "panic", r, "intent", in.Kind, "session_id", session.ID)
			resp = compose.Fallback(in.Locale)
		}
		session.Append(domain.RoleUser, query)
		session.Append(domain.RoleAssistant, resp.Text)
	}()

	in = e.classifier.Classify(query, session.Context)
	resp = e.respond(in, snap)
	intent.Advance(&session.Context, in)

	e.logger.Debug("answered",
		"intent", in.Kind,
		"region", in.Region,
		"session_id", session.ID,
		"attachment", resp.Kind(),
	)
	return resp
}

// Classify exposes the engine's classifier.
func (e *Engine) Classify(query string, cc domain.ConversationContext) intent.Intent {
	return e.classifier.Classify(query, cc)
}

func (e *Engine) respond(in intent.Intent, snap store.Snapshot) compose.Response {
	loc := in.Locale
	switch in.Kind {
	case intent.KindInventoryStatus:
		inv, empty := e.inventory(in, snap)
		if empty != nil {
			return *empty
		}
		return compose.Inventory(loc, compose.InventoryFigures{
			Region:    in.Region,
			Total:     metrics.TotalStock(inv, ""),
			Items:     len(inv),
			Low:       len(metrics.LowStockItems(inv, e.threshold)),
			Threshold: e.threshold,
		})

	case intent.KindLowStock:
		inv, empty := e.inventory(in, snap)
		if empty != nil {
			return *empty
		}
		f := compose.LowStockFigures{
			Threshold: e.threshold,
			Items:     metrics.LowStockItems(inv, e.threshold),
			Ranked:    metrics.RankByStock(inv),
		}
		if len(f.Items) > 0 {
			f.Donor = donorFor(snap.Inventory, f.Items[0], e.threshold)
		}
		return compose.LowStock(loc, f)

	case intent.KindDriverPerformance:
		orders, empty := e.orders(in, snap)
		if empty != nil {
			return *empty
		}
		return compose.Drivers(loc, compose.DriverFigures{
			Region: in.Region,
			Board:  metrics.DriverBoard(orders, domain.OrderStatusDelivered),
		})

	case intent.KindDelayAnalysis:
		orders, empty := e.orders(in, snap)
		if empty != nil {
			return *empty
		}
		return compose.Delays(loc, compose.DelayFigures{
			Region:  in.Region,
			Delayed: metrics.DelayedOrders(orders, ""),
			ByCity:  metrics.DelaysByCity(orders),
		})

	case intent.KindRouteAdvice:
		orders, empty := e.orders(in, snap)
		if empty != nil {
			return *empty
		}
		f := compose.RouteFigures{VIPDelayed: metrics.PriorityDelays(orders, domain.PriorityVIP), Hotspot: in.Region}
		if f.Hotspot == "" {
			if hot := metrics.DelaysByCity(f.VIPDelayed); len(hot) > 0 {
				f.Hotspot = hot[0].Key
			}
		}
		return compose.Routes(loc, f)

	case intent.KindRegionStatus:
		orders := metrics.OrdersInCity(snap.Orders, in.Region)
		inv := metrics.ScopedInventory(snap.Inventory, in.Region)
		if len(orders) == 0 && len(inv) == 0 {
			return compose.NoData(loc, compose.SubjectOrders, in.Region)
		}
		return compose.Region(loc, compose.RegionFigures{
			Region:     in.Region,
			Orders:     len(orders),
			Mix:        metrics.StatusMix(orders),
			Stock:      metrics.TotalStock(inv, ""),
			Warehouses: len(metrics.Warehouses(inv)),
		})

	case intent.KindGreeting:
		return compose.Greeting(loc, metrics.Summarize(snap.Inventory, snap.Orders))

	case intent.KindFollowUp:
		if in.Continues.IsZero() {
			return compose.Clarify(loc)
		}
		return e.detail(loc, in.Continues, snap)
	}
	return compose.Fallback(loc)
}

// detail renders the drill-down for a remembered topic.
func (e *Engine) detail(loc intent.Locale, topic domain.Topic, snap store.Snapshot) compose.Response {
	switch topic.Kind {
	case domain.TopicInventory:
		if len(snap.Inventory) == 0 {
			return compose.NoData(loc, compose.SubjectInventory, "")
		}
		return compose.InventoryDetail(loc, metrics.StockByWarehouse(snap.Inventory))
	case domain.TopicRegion:
		return compose.RegionDetail(loc, topic.Region, metrics.OrdersInCity(snap.Orders, topic.Region))
	}

	if len(snap.Orders) == 0 {
		return compose.NoData(loc, compose.SubjectOrders, "")
	}
	switch topic.Kind {
	case domain.TopicDelays:
		return compose.DelaysDetail(loc, metrics.DelaysByCity(snap.Orders), metrics.DelayedOrders(snap.Orders, ""))
	case domain.TopicDrivers:
		return compose.DriversDetail(loc, metrics.DriverBoard(snap.Orders, domain.OrderStatusDelivered))
	case domain.TopicRoutes:
		return compose.RoutesDetail(loc, metrics.PriorityDelays(snap.Orders, domain.PriorityVIP))
	}
	return compose.Clarify(loc)
}

// inventory returns the records in the intent's scope, or the no-data
// response when there are none.
func (e *Engine) inventory(in intent.Intent, snap store.Snapshot) ([]domain.InventoryRecord, *compose.Response) {
	if len(snap.Inventory) == 0 {
		r := compose.NoData(in.Locale, compose.SubjectInventory, "")
		return nil, &r
	}
	inv := metrics.ScopedInventory(snap.Inventory, in.Region)
	if len(inv) == 0 {
		r := compose.NoData(in.Locale, compose.SubjectInventory, in.Region)
		return nil, &r
	}
	return inv, nil
}

func (e *Engine) orders(in intent.Intent, snap store.Snapshot) ([]domain.OrderRecord, *compose.Response) {
	if len(snap.Orders) == 0 {
		r := compose.NoData(in.Locale, compose.SubjectOrders, "")
		return nil, &r
	}
	orders := metrics.OrdersInCity(snap.Orders, in.Region)
	if len(orders) == 0 {
		r := compose.NoData(in.Locale, compose.SubjectOrders, in.Region)
		return nil, &r
	}
	return orders, nil
}

// donorFor returns the record holding the most stock of low.Product in another
// warehouse, provided it sits at or above threshold. Ties go to the first
// record in inv.
func donorFor(inv []domain.InventoryRecord, low domain.InventoryRecord, threshold int) *domain.InventoryRecord {
	var best *domain.InventoryRecord
	for i := range inv {
		r := inv[i]
		if r.Product != low.Product || r.Warehouse == low.Warehouse || r.Stock < threshold {
			continue
		}
		if best == nil || r.Stock > best.Stock {
			best = &inv[i]
		}
	}
	if best == nil {
		return nil
	}
	d := *best
	return &d
}
