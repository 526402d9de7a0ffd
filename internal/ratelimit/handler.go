package ratelimit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sentinel-desktop/internal/common"
)

// CooldownStrategy defines how long fetching stays paused after a 429,
// escalating when the upstream keeps answering 429
type CooldownStrategy struct {
	Intervals []time.Duration // e.g., [30s, 1min, 2min, 5min, 10min]
}

// DefaultCooldownStrategy returns the default escalation ladder
func DefaultCooldownStrategy() *CooldownStrategy {
	return &CooldownStrategy{
		Intervals: []time.Duration{
			30 * time.Second, // First cooldown
			1 * time.Minute,  // Second cooldown
			2 * time.Minute,  // Third cooldown
			5 * time.Minute,  // Fourth cooldown
			10 * time.Minute, // Fifth+ cooldowns
		},
	}
}

// RateLimitEvent represents a rate limit occurrence
type RateLimitEvent struct {
	Timestamp      time.Time `json:"timestamp" ts_type:"string"`
	Provider       string    `json:"provider"` // "sentinel_hub" or "copernicus_dataspace"
	StatusCode     int       `json:"statusCode"`
	Occurrence     int       `json:"occurrence"` // consecutive 429s for this provider
	CooldownEndsAt time.Time `json:"cooldownEndsAt" ts_type:"string"`
	Message        string    `json:"message"` // User-friendly message
}

// Handler tracks per-provider rate limit state. It never re-issues a fetch
// on its own; it only keeps the cooldown clock so the UI can disable the
// fetch button and tell the user when trying again is reasonable.
type Handler struct {
	mu          sync.RWMutex
	limited     map[string]*RateLimitEvent // provider -> current rate limit state
	strategy    *CooldownStrategy
	onRateLimit func(event RateLimitEvent) // Callback for UI notification
	onCleared   func(provider string)      // Callback when the cooldown ends
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewHandler creates a new rate limit handler
func NewHandler(strategy *CooldownStrategy) *Handler {
	if strategy == nil {
		strategy = DefaultCooldownStrategy()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Handler{
		limited:  make(map[string]*RateLimitEvent),
		strategy: strategy,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetOnRateLimit sets the callback for rate limit events
func (h *Handler) SetOnRateLimit(callback func(event RateLimitEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRateLimit = callback
}

// SetOnCleared sets the callback for the end of a cooldown
func (h *Handler) SetOnCleared(callback func(provider string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCleared = callback
}

// IsRateLimited checks if a provider is currently inside a cooldown
func (h *Handler) IsRateLimited(provider string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, limited := h.limited[provider]
	return limited
}

// RecordRateLimit records a 429 from a provider. When the response carried
// a Retry-After, that wins over the escalation ladder.
func (h *Handler) RecordRateLimit(provider string, statusCode int, retryAfter time.Duration) {
	h.mu.Lock()

	occurrence := 1
	if existing, exists := h.limited[provider]; exists {
		occurrence = existing.Occurrence + 1
	}

	cooldown := retryAfter
	if cooldown <= 0 {
		idx := occurrence - 1
		if idx >= len(h.strategy.Intervals) {
			idx = len(h.strategy.Intervals) - 1
		}
		cooldown = h.strategy.Intervals[idx]
	}

	endsAt := time.Now().Add(cooldown)
	event := RateLimitEvent{
		Timestamp:      time.Now(),
		Provider:       provider,
		StatusCode:     statusCode,
		Occurrence:     occurrence,
		CooldownEndsAt: endsAt,
		Message:        buildMessage(provider, statusCode, occurrence, cooldown),
	}
	h.limited[provider] = &event

	callback := h.onRateLimit
	h.mu.Unlock()

	log.Printf("[RateLimit] %s rate limited (occurrence %d). Cooldown until %s",
		provider, occurrence, endsAt.Format(time.RFC3339))

	if callback != nil {
		go callback(event)
	}

	go h.scheduleClear(provider, event)
}

// scheduleClear lifts the cooldown once it has run its course. It does not
// dispatch anything; the user decides whether to fetch again.
func (h *Handler) scheduleClear(provider string, event RateLimitEvent) {
	select {
	case <-time.After(time.Until(event.CooldownEndsAt)):
		h.mu.Lock()
		current, exists := h.limited[provider]
		if !exists || !current.Timestamp.Equal(event.Timestamp) {
			// Cooldown was already cleared or replaced by a newer 429
			h.mu.Unlock()
			return
		}
		delete(h.limited, provider)
		callback := h.onCleared
		h.mu.Unlock()

		log.Printf("[RateLimit] %s cooldown over", provider)

		if callback != nil {
			go callback(provider)
		}

	case <-h.ctx.Done():
		// Handler was shut down
		return
	}
}

// RecordSuccess clears the cooldown when a fetch went through anyway
func (h *Handler) RecordSuccess(provider string) {
	h.mu.Lock()
	_, exists := h.limited[provider]
	if exists {
		delete(h.limited, provider)
	}
	callback := h.onCleared
	h.mu.Unlock()

	if exists {
		log.Printf("[RateLimit] %s recovered", provider)
		if callback != nil {
			go callback(provider)
		}
	}
}

// ManualClear lets the user dismiss a cooldown and try again early
func (h *Handler) ManualClear(provider string) {
	h.mu.Lock()
	_, exists := h.limited[provider]
	if exists {
		delete(h.limited, provider)
	}
	callback := h.onCleared
	h.mu.Unlock()

	if exists {
		log.Printf("[RateLimit] Manual clear requested for %s", provider)
		if callback != nil {
			go callback(provider)
		}
	}
}

// GetCurrentState returns the current rate limit state for a provider
func (h *Handler) GetCurrentState(provider string) *RateLimitEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if event, exists := h.limited[provider]; exists {
		// Return a copy
		eventCopy := *event
		return &eventCopy
	}
	return nil
}

// buildMessage creates a user-friendly message
func buildMessage(provider string, statusCode int, occurrence int, cooldown time.Duration) string {
	name := common.ProviderDisplayName(provider)
	wait := cooldown.Round(time.Second)

	if occurrence == 1 {
		return fmt.Sprintf(
			"%s returned HTTP %d (rate limited). Fetching is paused for %s; the request was not retried.",
			name, statusCode, wait)
	}
	return fmt.Sprintf(
		"%s is still rate limiting (%d in a row). Fetching is paused for %s.",
		name, occurrence, wait)
}

// Close shuts down the rate limit handler
func (h *Handler) Close() {
	h.cancel()
}
