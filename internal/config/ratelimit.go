package config

import "time"

// RateLimitConfig configures the Redis token bucket.  Every key gets
// Capacity tokens and regains RefillTokens every RefillInterval.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string // ip, user, route, ip_route or ip_user_route
	Prefix         string
	Debug          bool

	// Checkout writes (selection and confirm) share a tighter bucket.
	CheckoutCapacity int
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:          envBool("RATE_LIMIT_ENABLED", true),
		Capacity:         envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:     envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval:   envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:              envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:      envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:           envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:            envBool("RATE_LIMIT_DEBUG", false),
		CheckoutCapacity: envInt("RATE_LIMIT_CHECKOUT_CAPACITY", 10),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
		def.Capacity = b
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		def.RefillTokens = 1
		def.RefillInterval = every
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.CheckoutCapacity < 1 {
		def.CheckoutCapacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

// Checkout returns the bucket used by checkout writes.
func (c RateLimitConfig) Checkout() RateLimitConfig {
	c.Capacity = c.CheckoutCapacity
	c.Prefix = c.Prefix + ":checkout"
	c.KeyStrategy = "user"
	return c
}
