// Package intent maps free-text questions to a closed set of analytical
// intents using a declarative keyword table. Matching is token based and works
// for English and Arabic input.
package intent

import "ops-agent/internal/domain"

// Kind names an analytical intent.
type Kind string

const (
	KindInventoryStatus   Kind = "InventoryStatus"
	KindLowStock          Kind = "LowStock"
	KindRegionStatus      Kind = "RegionStatus"
	KindDriverPerformance Kind = "DriverPerformance"
	KindDelayAnalysis     Kind = "DelayAnalysis"
	KindRouteAdvice       Kind = "RouteAdvice"
	KindGreeting          Kind = "Greeting"
	KindFollowUp          Kind = "FollowUp"
	KindFallback          Kind = "Fallback"
)

// Intent is a classified query.
type Intent struct {
	Kind Kind `json:"kind"`
	// Region is the canonical region named in the query. For RegionStatus it
	// is the subject; for other kinds it scopes the figures.
	Region string `json:"region,omitempty"`
	// Continues is the remembered topic a FollowUp resolves to. A zero value
	// on a FollowUp means there was nothing to continue.
	Continues domain.Topic `json:"continues,omitempty"`
	Locale    Locale       `json:"locale"`
}

// ContextTopic returns the topic tag the conversation context should move to
// after this intent, and false for kinds that leave the context unchanged.
func (i Intent) ContextTopic() (domain.Topic, bool) {
	switch i.Kind {
	case KindInventoryStatus, KindLowStock:
		return domain.Topic{Kind: domain.TopicInventory}, true
	case KindDelayAnalysis:
		return domain.Topic{Kind: domain.TopicDelays}, true
	case KindRouteAdvice:
		return domain.Topic{Kind: domain.TopicRoutes}, true
	case KindDriverPerformance:
		return domain.Topic{Kind: domain.TopicDrivers}, true
	case KindRegionStatus:
		return domain.Topic{Kind: domain.TopicRegion, Region: i.Region}, true
	case KindGreeting:
		return domain.Topic{Kind: domain.TopicNone}, true
	}
	return domain.Topic{}, false
}

// Advance applies the intent's transition to the conversation context.
// FollowUp and Fallback leave it unchanged.
func Advance(cc *domain.ConversationContext, in Intent) {
	if topic, ok := in.ContextTopic(); ok {
		cc.LastTopic = topic
	}
}
