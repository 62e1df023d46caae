package auth

import (
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Middleware is a Fiber middleware that rejects requests from non-local
// clients. The console serves a single operator on the same machine; nothing
// it exposes is meant to be reachable over the network, whatever address the
// listener ends up bound to.
func Middleware(c *fiber.Ctx) error {
	if !localClient(c.IP()) {
		log.Warn().Str("ip", c.IP()).Str("path", c.Path()).Msg("rejected non-local request")

		return c.Status(fiber.StatusForbidden).SendString("Forbidden")
	}

	return c.Next()
}

// localClient reports whether the peer address belongs to the local machine.
// An unspecified address only occurs on synthetic in-process connections,
// never on a routed TCP peer, so it counts as local.
func localClient(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}

	return ip.IsLoopback() || ip.IsUnspecified()
}
