package api

import "github.com/gofiber/fiber/v2"

// Route is implemented by every feature's Api type so Fx can collect
// them into the "routes" group and register them on startup.
type Route interface {
	Setup(app *fiber.App)
}
