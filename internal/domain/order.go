package domain

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusDelayed   OrderStatus = "Delayed"
	OrderStatusInTransit OrderStatus = "InTransit"
)

type Priority string

const (
	PriorityVIP    Priority = "VIP"
	PriorityHigh   Priority = "High"
	PriorityNormal Priority = "Normal"
)

// OrderRecord is a single fleet order. The engine treats it as immutable.
type OrderRecord struct {
	ID       string      `json:"orderId"`
	Status   OrderStatus `json:"status"`
	Driver   string      `json:"driver"`
	City     string      `json:"city"`
	Priority Priority    `json:"priority"`
}

// ParseOrderStatus decodes a status as it appears in source data. Display
// decorations such as "Delayed 🔴" or "In Transit 🚚" are accepted so that
// business logic only ever compares enum values.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch squash(raw) {
	case "delivered":
		return OrderStatusDelivered, nil
	case "delayed", "late":
		return OrderStatusDelayed, nil
	case "intransit", "transit", "ontheway":
		return OrderStatusInTransit, nil
	}
	return "", fmt.Errorf("domain: unknown order status %q", raw)
}

// ParsePriority decodes a priority such as "VIP (AAA)" or "Normal (A)".
func ParsePriority(raw string) (Priority, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	switch squash(s) {
	case "vip", "aaa":
		return PriorityVIP, nil
	case "high", "aa":
		return PriorityHigh, nil
	case "normal", "a", "":
		return PriorityNormal, nil
	}
	return "", fmt.Errorf("domain: unknown priority %q", raw)
}

// squash lowercases s and keeps only ASCII letters, dropping spaces, symbols
// and emoji.
func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
