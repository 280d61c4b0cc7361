// Package loader registers feature packages on a Fiber router.
//
// A feature exposes Name, IsEnabled and Load(fiber.Router). A Manager keeps
// features in registration order and LoadAll mounts every enabled one,
// stopping at the first error.
//
// The start command builds two managers. The public one (search) is loaded
// before the auth middleware and the admin one (catalog, import, integrity)
// after it, so route visibility follows from load order.
package loader
