package intent

// Rule binds an intent to the keywords that trigger it in one locale.
// Keywords may be multi-word phrases. A rule with MatchRegion set matches
// whenever the query names a known region instead of using keywords.
type Rule struct {
	Kind        Kind
	Locale      Locale
	Keywords    []string
	MatchRegion bool
}

// DefaultRules is the built-in intent table. Rules are evaluated in order and
// the first match wins, so the order is the precedence:
//
//	LowStock > InventoryStatus > DriverPerformance > DelayAnalysis >
//	RouteAdvice > RegionStatus > Greeting
//
// LowStock precedes InventoryStatus because "low stock" contains an inventory
// keyword. Topic rules precede RegionStatus so "delayed shipment in Dubai" is
// a delay analysis scoped to Dubai rather than a regional overview.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: KindLowStock, Locale: LocaleEnglish, Keywords: []string{"low", "shortage", "shortages", "running out", "out of stock", "reorder", "critical"}},
		{Kind: KindLowStock, Locale: LocaleArabic, Keywords: []string{"نقص", "قليل", "خلص", "عجز", "نفاد"}},
		{Kind: KindInventoryStatus, Locale: LocaleEnglish, Keywords: []string{"stock", "inventory", "warehouse", "warehouses", "quantity", "units", "goods"}},
		{Kind: KindInventoryStatus, Locale: LocaleArabic, Keywords: []string{"مخزون", "بضاعة", "كمية", "مستودع", "مستودعات"}},
		{Kind: KindDriverPerformance, Locale: LocaleEnglish, Keywords: []string{"driver", "drivers", "performance", "efficient"}},
		{Kind: KindDriverPerformance, Locale: LocaleArabic, Keywords: []string{"سائق", "سواق", "السائقين", "أداء"}},
		{Kind: KindDelayAnalysis, Locale: LocaleEnglish, Keywords: []string{"delay", "delays", "delayed", "late", "problem", "problems", "stuck"}},
		{Kind: KindDelayAnalysis, Locale: LocaleArabic, Keywords: []string{"تأخير", "متأخر", "متأخرة", "مشكلة", "تأخيرات"}},
		{Kind: KindRouteAdvice, Locale: LocaleEnglish, Keywords: []string{"route", "routes", "routing", "reroute", "dispatch"}},
		{Kind: KindRouteAdvice, Locale: LocaleArabic, Keywords: []string{"مسار", "مسارات", "طريق", "توجيه"}},
		{Kind: KindRegionStatus, MatchRegion: true},
		{Kind: KindGreeting, Locale: LocaleEnglish, Keywords: []string{"hello", "hi", "hey", "help", "good morning", "thanks"}},
		{Kind: KindGreeting, Locale: LocaleArabic, Keywords: []string{"مرحبا", "السلام", "أهلا", "مساعدة", "شكرا"}},
	}
}

// DefaultFollowUps are the short utterances that continue the previous topic.
func DefaultFollowUps() []string {
	return []string{
		"more", "yes", "continue", "go on", "details", "detail", "elaborate", "tell me more", "ok", "okay", "sure",
		"المزيد", "نعم", "كمل", "أكمل", "استمر", "تفاصيل", "ايوه", "طيب", "زيد",
	}
}
