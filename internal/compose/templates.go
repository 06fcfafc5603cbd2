package compose

import (
	"fmt"
	"strings"

	"ops-agent/internal/domain"
	"ops-agent/internal/intent"
	"ops-agent/internal/metrics"
)

// Subject names the collection a no-data answer is about.
type Subject int

const (
	SubjectInventory Subject = iota
	SubjectOrders
)

// InventoryFigures feeds the stock overview answer.
type InventoryFigures struct {
	Region    string
	Total     int
	Items     int
	Low       int
	Threshold int
}

// LowStockFigures feeds the low-stock answer. Items are the records below
// Threshold and Ranked is every record in scope, both most critical first.
// Donor, when set, is the best-stocked record of the most critical product in
// another warehouse.
type LowStockFigures struct {
	Threshold int
	Items     []domain.InventoryRecord
	Ranked    []domain.InventoryRecord
	Donor     *domain.InventoryRecord
}

type DriverFigures struct {
	Region string
	Board  []metrics.DriverTally
}

// DelayFigures feeds the delay analysis. ByCity is ordered hottest first.
type DelayFigures struct {
	Region  string
	Delayed []domain.OrderRecord
	ByCity  []metrics.Breakdown
}

// RouteFigures feeds route advice. Hotspot is the city to route around.
type RouteFigures struct {
	VIPDelayed []domain.OrderRecord
	Hotspot    string
}

type RegionFigures struct {
	Region     string
	Orders     int
	Mix        []metrics.Breakdown
	Stock      int
	Warehouses int
}

func Inventory(loc intent.Locale, f InventoryFigures) Response {
	c := lookup(loc)
	if f.Region == "" {
		return text(fmt.Sprintf(c.inventoryAll, num(f.Total), c.items.of(f.Items), c.lowOfThem.of(f.Low), num(f.Threshold)))
	}
	return text(fmt.Sprintf(c.inventoryScoped, f.Region, num(f.Total), c.items.of(f.Items), c.lowOfThem.of(f.Low), num(f.Threshold)))
}

func LowStock(loc intent.Locale, f LowStockFigures) Response {
	c := lookup(loc)
	var s string
	if len(f.Items) == 0 {
		s = fmt.Sprintf(c.lowNone, num(f.Threshold))
	} else {
		top := f.Items[0]
		s = fmt.Sprintf(c.lowSome, c.lowItems.of(len(f.Items)), num(f.Threshold), top.Product, top.Warehouse, num(top.Stock))
		if f.Donor != nil {
			s += fmt.Sprintf(c.lowDonor, f.Donor.Warehouse, num(f.Donor.Stock))
		}
	}
	if len(f.Ranked) == 0 {
		return text(s)
	}
	return Response{Text: s, Attachment: tableAttachment(watchlistTable(c, f.Ranked, f.Threshold))}
}

func Drivers(loc intent.Locale, f DriverFigures) Response {
	c := lookup(loc)
	if len(f.Board) == 0 {
		return text(c.driversNone)
	}
	top := f.Board[0]
	var s string
	if f.Region == "" {
		s = fmt.Sprintf(c.driversTop, top.Driver, c.deliveredOrders.of(top.Count))
	} else {
		s = fmt.Sprintf(c.driversTopScoped, f.Region, top.Driver, c.deliveredOrders.of(top.Count))
	}
	return Response{Text: s, Attachment: chartAttachment(driverChart(c, f.Board))}
}

func Delays(loc intent.Locale, f DelayFigures) Response {
	c := lookup(loc)
	switch {
	case len(f.Delayed) == 0 && f.Region == "":
		return text(c.delaysNone)
	case len(f.Delayed) == 0:
		return text(fmt.Sprintf(c.delaysNoneScoped, f.Region))
	case f.Region != "":
		return text(fmt.Sprintf(c.delaysScoped, c.shipmentsDelayed.of(len(f.Delayed)), f.Region, f.Region))
	}
	hot := f.ByCity[0]
	return text(fmt.Sprintf(c.delaysSome, c.shipmentsDelayed.of(len(f.Delayed)), hot.Key, num(hot.Value), hot.Key))
}

func Routes(loc intent.Locale, f RouteFigures) Response {
	c := lookup(loc)
	if len(f.VIPDelayed) == 0 {
		return text(c.routesNone)
	}
	s := fmt.Sprintf(c.routesSome, c.vipDelayed.of(len(f.VIPDelayed)), f.Hotspot)
	return Response{Text: s, Attachment: tableAttachment(orderTable(c, c.titleRoutes, f.VIPDelayed))}
}

func Region(loc intent.Locale, f RegionFigures) Response {
	c := lookup(loc)
	var s string
	if f.Orders == 0 {
		s = fmt.Sprintf(c.regionNoOrders, f.Region)
	} else {
		s = fmt.Sprintf(c.region, f.Region, c.orders.of(f.Orders), mixList(c, f.Mix))
	}
	if f.Warehouses > 0 {
		s += fmt.Sprintf(c.regionStock, num(f.Stock))
	}
	if len(f.Mix) == 0 {
		return text(s)
	}
	return Response{Text: s, Attachment: chartAttachment(mixChart(c, f.Region, f.Mix))}
}

// Greeting introduces the assistant with the dashboard headline figures.
func Greeting(loc intent.Locale, sum metrics.Summary) Response {
	c := lookup(loc)
	return text(fmt.Sprintf(c.greeting, num(sum.TotalStock), c.delayedShipments.of(sum.Delayed), metrics.FormatPercent(sum.DeliveryRate)))
}

// Clarify answers a follow-up that has no previous topic to continue.
func Clarify(loc intent.Locale) Response {
	return text(lookup(loc).clarify)
}

func Fallback(loc intent.Locale) Response {
	return text(lookup(loc).fallback)
}

// NoData answers when the collection an intent needs is empty, or has no
// records in region.
func NoData(loc intent.Locale, subject Subject, region string) Response {
	c := lookup(loc)
	name := c.subjectInventory
	if subject == SubjectOrders {
		name = c.subjectOrders
	}
	if region == "" {
		return text(fmt.Sprintf(c.noData, name))
	}
	return text(fmt.Sprintf(c.noDataScoped, name, region))
}

func InventoryDetail(loc intent.Locale, byWarehouse []metrics.Breakdown) Response {
	c := lookup(loc)
	return Response{
		Text: fmt.Sprintf(c.detailInventory, breakdownList(c, byWarehouse)),
		Attachment: chartAttachment(&ChartConfig{
			ChartType: "bar",
			Title:     c.titleWarehouses,
			XAxis:     c.colWarehouse,
			YAxis:     c.colStock,
			Series:    []ChartSeries{{Name: c.colStock, Data: points(byWarehouse)}},
		}),
	}
}

func DelaysDetail(loc intent.Locale, byCity []metrics.Breakdown, delayed []domain.OrderRecord) Response {
	c := lookup(loc)
	if len(delayed) == 0 {
		return text(c.delaysNone)
	}
	return Response{
		Text:       fmt.Sprintf(c.detailDelays, breakdownList(c, byCity)),
		Attachment: tableAttachment(orderTable(c, c.titleDelayed, delayed)),
	}
}

func DriversDetail(loc intent.Locale, board []metrics.DriverTally) Response {
	c := lookup(loc)
	if len(board) == 0 {
		return text(c.driversNone)
	}
	items := make([]string, len(board))
	rows := make([][]string, len(board))
	for i, d := range board {
		items[i] = d.Driver + " " + num(d.Count)
		rows[i] = []string{d.Driver, num(d.Count)}
	}
	return Response{
		Text: fmt.Sprintf(c.detailDrivers, strings.Join(items, c.separator)),
		Attachment: tableAttachment(&TableData{
			Title:   c.titleDrivers,
			Columns: []Column{textColumn("driver", c.colDriver), numberColumn("count", c.colCount)},
			Rows:    rows,
		}),
	}
}

func RoutesDetail(loc intent.Locale, vip []domain.OrderRecord) Response {
	c := lookup(loc)
	if len(vip) == 0 {
		return text(c.detailRoutesEmpty)
	}
	ids := make([]string, len(vip))
	for i, o := range vip {
		ids[i] = o.ID
	}
	return Response{
		Text:       fmt.Sprintf(c.detailRoutes, strings.Join(ids, c.separator)),
		Attachment: tableAttachment(orderTable(c, c.titleRoutes, vip)),
	}
}

func RegionDetail(loc intent.Locale, region string, orders []domain.OrderRecord) Response {
	c := lookup(loc)
	if len(orders) == 0 {
		return text(fmt.Sprintf(c.regionNoOrders, region))
	}
	return Response{
		Text:       fmt.Sprintf(c.detailRegion, region, mixList(c, metrics.StatusMix(orders))),
		Attachment: tableAttachment(orderTable(c, c.titleRegion+" · "+region, orders)),
	}
}

func text(s string) Response {
	return Response{Text: s}
}

func num(n int) string {
	return metrics.FormatInt(n)
}

func breakdownList(c catalog, bs []metrics.Breakdown) string {
	items := make([]string, len(bs))
	for i, b := range bs {
		items[i] = b.Key + " " + num(b.Value)
	}
	return strings.Join(items, c.separator)
}

func statusLabel(c catalog, status string) string {
	if l, ok := c.statuses[domain.OrderStatus(status)]; ok {
		return l
	}
	return status
}

func mixList(c catalog, mix []metrics.Breakdown) string {
	items := make([]string, len(mix))
	for i, b := range mix {
		items[i] = fmt.Sprintf(c.mixItem, statusLabel(c, b.Key), num(b.Value))
	}
	return strings.Join(items, c.separator)
}

func points(bs []metrics.Breakdown) []ChartPoint {
	out := make([]ChartPoint, len(bs))
	for i, b := range bs {
		out[i] = ChartPoint{Label: b.Key, Value: float64(b.Value)}
	}
	return out
}

func inventoryTable(c catalog, title string, items []domain.InventoryRecord) *TableData {
	rows := make([][]string, len(items))
	for i, r := range items {
		rows[i] = []string{r.Warehouse, r.Product, num(r.Stock)}
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			textColumn("warehouse", c.colWarehouse),
			textColumn("product", c.colProduct),
			numberColumn("stock", c.colStock),
		},
		Rows: rows,
	}
}

// watchlistTable lists stock levels most critical first, flagging the rows
// under threshold.
func watchlistTable(c catalog, ranked []domain.InventoryRecord, threshold int) *TableData {
	t := inventoryTable(c, c.titleLowStock, ranked)
	t.Columns = append(t.Columns, textColumn("level", c.colLevel))
	for i, r := range ranked {
		level := c.levelOK
		if r.Stock < threshold {
			level = c.levelLow
		}
		t.Rows[i] = append(t.Rows[i], level)
	}
	return t
}

func orderTable(c catalog, title string, orders []domain.OrderRecord) *TableData {
	rows := make([][]string, len(orders))
	for i, o := range orders {
		rows[i] = []string{o.ID, o.Driver, o.City, string(o.Priority), statusLabel(c, string(o.Status))}
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			textColumn("orderId", c.colOrder),
			textColumn("driver", c.colDriver),
			textColumn("city", c.colCity),
			textColumn("priority", c.colPriority),
			textColumn("status", c.colStatus),
		},
		Rows: rows,
	}
}

func driverChart(c catalog, board []metrics.DriverTally) *ChartConfig {
	data := make([]ChartPoint, len(board))
	for i, d := range board {
		data[i] = ChartPoint{Label: d.Driver, Value: float64(d.Count)}
	}
	return &ChartConfig{
		ChartType: "bar",
		Title:     c.titleDrivers,
		XAxis:     c.colDriver,
		YAxis:     c.colCount,
		Series:    []ChartSeries{{Name: c.colCount, Data: data}},
	}
}

func mixChart(c catalog, region string, mix []metrics.Breakdown) *ChartConfig {
	data := make([]ChartPoint, len(mix))
	for i, b := range mix {
		data[i] = ChartPoint{Label: statusLabel(c, b.Key), Value: float64(b.Value)}
	}
	return &ChartConfig{
		ChartType: "pie",
		Title:     c.titleRegion + " · " + region,
		Series:    []ChartSeries{{Name: region, Data: data}},
	}
}
