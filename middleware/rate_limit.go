package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/shared"
)

// TrustProxies makes c.IP() read header only when the peer is one of
// trusted. Untrusted peers are keyed by their connection address.
func TrustProxies(cfg fiber.Config, header string, trusted []string) fiber.Config {
	cfg.ProxyHeader = header
	cfg.EnableTrustedProxyCheck = true
	cfg.TrustedProxies = trusted
	cfg.EnableIPValidation = true
	return cfg
}

// ClientAddress returns the best-known network address of the caller, or
// "" when none can be determined. Forwarding headers count only when the
// app was built with TrustProxies and the peer is trusted.
func ClientAddress(c *fiber.Ctx) string {
	return utils.CopyString(strings.TrimSpace(c.IP()))
}

// SetRateLimitHeaders exposes the caller's quota state. Retry-After is only
// sent when the attempt was refused by the limiter.
func SetRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	if info == nil || info.Limit <= 0 {
		return
	}

	c.Set("X-RateLimit-Limit", strconv.FormatInt(info.Limit, 10))
	c.Set("X-RateLimit-Remaining", strconv.FormatInt(info.Remaining, 10))
	c.Set("X-RateLimit-Class", info.Class)

	if info.ResetTime == nil {
		return
	}
	c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))

	if !info.Allowed {
		retryAfter := int64(time.Until(*info.ResetTime).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	}
}

// Identity assembles the caller identity stored by the auth middleware.
func Identity(c *fiber.Ctx) dto.Identity {
	identity := dto.Identity{UserID: UserID(c)}
	if addr, ok := c.Locals(shared.ClientAddress).(string); ok {
		identity.Address = addr
	} else {
		identity.Address = ClientAddress(c)
	}
	return identity
}
