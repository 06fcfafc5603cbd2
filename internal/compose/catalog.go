package compose

import (
	"fmt"

	"ops-agent/internal/domain"
	"ops-agent/internal/intent"
)

// counted is a count with its noun phrase. one is used for exactly one and
// may be empty where the locale has no singular form to pick.
type counted struct {
	one, many string
}

func (c counted) of(n int) string {
	f := c.many
	if n == 1 && c.one != "" {
		f = c.one
	}
	return fmt.Sprintf(f, num(n))
}

// catalog holds the phrasing of every response in one locale. Verbs are
// fmt templates; figures are always pre-formatted strings so both locales
// carry byte-identical numbers.
type catalog struct {
	inventoryAll    string
	inventoryScoped string

	lowNone  string
	lowSome  string
	lowDonor string

	driversNone       string
	driversTop        string
	driversTopScoped  string
	delaysNone        string
	delaysNoneScoped  string
	delaysSome        string
	delaysScoped      string
	routesNone        string
	routesSome        string
	region            string
	regionNoOrders    string
	mixItem           string
	regionStock       string
	greeting          string
	clarify           string
	fallback          string
	noData            string
	noDataScoped      string
	subjectInventory  string
	subjectOrders     string
	detailInventory   string
	detailDelays      string
	detailDrivers     string
	detailRoutes      string
	detailRoutesEmpty string
	detailRegion      string
	separator         string

	items, lowItems, lowOfThem   counted
	deliveredOrders, orders      counted
	shipmentsDelayed, vipDelayed counted
	delayedShipments             counted

	statuses map[domain.OrderStatus]string

	colWarehouse, colProduct, colStock string
	colOrder, colCity, colDriver       string
	colPriority, colStatus, colCount   string
	colLevel, levelLow, levelOK        string
	titleLowStock, titleDelayed        string
	titleDrivers, titleRoutes          string
	titleWarehouses, titleRegion       string
}

var catalogs = map[intent.Locale]catalog{
	intent.LocaleEnglish: {
		inventoryAll:    "Total stock across all warehouses is %s units over %s. %s below %s units.",
		inventoryScoped: "Stock in %s is %s units over %s. %s below %s units.",

		lowNone:  "No items are below %s units. Stock levels are healthy.",
		lowSome:  "%s below %s units. Most critical: %s in %s with %s units.",
		lowDonor: " Consider a transfer from %s, which holds %s units.",

		driversNone:       "No delivered orders yet, so there is no top driver.",
		driversTop:        "Top driver is %s with %s.",
		driversTopScoped:  "Top driver in %s is %s with %s.",
		delaysNone:        "No delayed shipments. Operations are on schedule.",
		delaysNoneScoped:  "No delayed shipments in %s.",
		delaysSome:        "%s. Most delays are in %s (%s). Recommendation: check weather or routes in %s.",
		delaysScoped:      "%s in %s. Recommendation: check weather or routes in %s.",
		routesNone:        "No VIP orders are delayed. Keep the current routes.",
		routesSome:        "%s. Dispatch them first and reroute around %s, where most delays are.",
		region:            "%s has %s: %s.",
		regionNoOrders:    "%s has no orders.",
		mixItem:           "%[2]s %[1]s",
		regionStock:       " Warehouse stock there is %s units.",
		greeting:          "Hello! I'm your operations assistant. Right now there are %s units in stock, %s and a delivery efficiency of %s. Ask me about stock, delays, drivers, routes or a city.",
		clarify:           "What would you like more detail on? Ask about stock, delays, drivers, routes or a city.",
		fallback:          "Sorry, I didn't understand that. Try asking about stock levels, delayed shipments, drivers, routes or a city such as Dubai.",
		noData:            "There is no %s data to answer that.",
		noDataScoped:      "There is no %s data for %s.",
		subjectInventory:  "inventory",
		subjectOrders:     "order",
		detailInventory:   "Stock by warehouse: %s.",
		detailDelays:      "Delayed shipments by city: %s.",
		detailDrivers:     "Delivered orders by driver: %s.",
		detailRoutes:      "Delayed VIP orders: %s.",
		detailRoutesEmpty: "There are no delayed VIP orders to reroute.",
		detailRegion:      "Orders in %s by status: %s.",
		separator:         ", ",

		items:            counted{one: "%s item", many: "%s items"},
		lowItems:         counted{one: "%s item is", many: "%s items are"},
		lowOfThem:        counted{one: "%s of them is", many: "%s of them are"},
		deliveredOrders:  counted{one: "%s delivered order", many: "%s delivered orders"},
		orders:           counted{one: "%s order", many: "%s orders"},
		shipmentsDelayed: counted{one: "%s shipment is delayed", many: "%s shipments are delayed"},
		vipDelayed:       counted{one: "%s VIP order is delayed", many: "%s VIP orders are delayed"},
		delayedShipments: counted{one: "%s delayed shipment", many: "%s delayed shipments"},

		statuses: map[domain.OrderStatus]string{
			domain.OrderStatusDelivered: "delivered",
			domain.OrderStatusInTransit: "in transit",
			domain.OrderStatusDelayed:   "delayed",
		},

		colWarehouse: "Warehouse", colProduct: "Product", colStock: "Stock",
		colOrder: "Order", colCity: "City", colDriver: "Driver",
		colPriority: "Priority", colStatus: "Status", colCount: "Orders",
		colLevel: "Level", levelLow: "low", levelOK: "ok",
		titleLowStock: "Low stock", titleDelayed: "Delayed shipments",
		titleDrivers: "Driver leaderboard", titleRoutes: "Delayed VIP orders",
		titleWarehouses: "Stock by warehouse", titleRegion: "Order status",
	},
	intent.LocaleArabic: {
		inventoryAll:    "إجمالي المخزون في جميع المستودعات %s وحدة في %s. منها %s تحت %s وحدة.",
		inventoryScoped: "المخزون في %s هو %s وحدة في %s. منها %s تحت %s وحدة.",

		lowNone:  "لا توجد أصناف تحت %s وحدة. مستويات المخزون جيدة.",
		lowSome:  "عدد الأصناف تحت %[2]s وحدة هو %[1]s. الأكثر حرجاً: %[3]s في %[4]s بكمية %[5]s وحدة.",
		lowDonor: " يُقترح النقل من %s الذي يحتوي على %s وحدة.",

		driversNone:       "لا توجد طلبات مسلّمة بعد، لذلك لا يوجد سائق متصدر.",
		driversTop:        "أفضل سائق هو %s بعدد %s.",
		driversTopScoped:  "أفضل سائق في %s هو %s بعدد %s.",
		delaysNone:        "لا توجد شحنات متأخرة. العمليات تسير حسب الجدول.",
		delaysNoneScoped:  "لا توجد شحنات متأخرة في %s.",
		delaysSome:        "يوجد %s. أكثر التأخيرات في %s (%s). التوصية: تحقق من الطقس أو المسارات في %s.",
		delaysScoped:      "يوجد %s في %s. التوصية: تحقق من الطقس أو المسارات في %s.",
		routesNone:        "لا توجد طلبات VIP متأخرة. حافظ على المسارات الحالية.",
		routesSome:        "يوجد %s. أرسلها أولاً وغيّر المسار حول %s حيث تتركز التأخيرات.",
		region:            "في %s يوجد %s: %s.",
		regionNoOrders:    "لا توجد طلبات في %s.",
		mixItem:           "%[1]s %[2]s",
		regionStock:       " مخزون المستودعات هناك %s وحدة.",
		greeting:          "مرحباً! أنا مساعد العمليات. حالياً يوجد %s وحدة في المخزون و%s وكفاءة التوصيل %s. اسألني عن المخزون أو التأخيرات أو السائقين أو المسارات أو مدينة.",
		clarify:           "ما الذي تريد معرفة المزيد عنه؟ اسأل عن المخزون أو التأخيرات أو السائقين أو المسارات أو مدينة.",
		fallback:          "عذراً، لم أفهم السؤال. جرّب السؤال عن المخزون أو الشحنات المتأخرة أو السائقين أو المسارات أو مدينة مثل دبي.",
		noData:            "لا توجد بيانات %s للإجابة.",
		noDataScoped:      "لا توجد بيانات %s في %s.",
		subjectInventory:  "مخزون",
		subjectOrders:     "طلبات",
		detailInventory:   "المخزون حسب المستودع: %s.",
		detailDelays:      "الشحنات المتأخرة حسب المدينة: %s.",
		detailDrivers:     "الطلبات المسلّمة حسب السائق: %s.",
		detailRoutes:      "طلبات VIP المتأخرة: %s.",
		detailRoutesEmpty: "لا توجد طلبات VIP متأخرة لإعادة توجيهها.",
		detailRegion:      "الطلبات في %s حسب الحالة: %s.",
		separator:         "، ",

		items:            counted{many: "%s صنف"},
		lowItems:         counted{many: "%s"},
		lowOfThem:        counted{many: "%s"},
		deliveredOrders:  counted{many: "%s طلبات مسلّمة"},
		orders:           counted{many: "%s طلبات"},
		shipmentsDelayed: counted{many: "%s شحنات متأخرة"},
		vipDelayed:       counted{many: "%s طلبات VIP متأخرة"},
		delayedShipments: counted{many: "%s شحنات متأخرة"},

		statuses: map[domain.OrderStatus]string{
			domain.OrderStatusDelivered: "تم التوصيل",
			domain.OrderStatusInTransit: "قيد التوصيل",
			domain.OrderStatusDelayed:   "متأخر",
		},

		colWarehouse: "المستودع", colProduct: "المنتج", colStock: "المخزون",
		colOrder: "الطلب", colCity: "المدينة", colDriver: "السائق",
		colPriority: "الأولوية", colStatus: "الحالة", colCount: "الطلبات",
		colLevel: "المستوى", levelLow: "منخفض", levelOK: "جيد",
		titleLowStock: "مخزون منخفض", titleDelayed: "الشحنات المتأخرة",
		titleDrivers: "ترتيب السائقين", titleRoutes: "طلبات VIP المتأخرة",
		titleWarehouses: "المخزون حسب المستودع", titleRegion: "حالة الطلبات",
	},
}

func lookup(loc intent.Locale) catalog {
	if c, ok := catalogs[loc]; ok {
		return c
	}
	return catalogs[intent.LocaleEnglish]
}
