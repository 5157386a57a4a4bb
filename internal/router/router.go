package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/skybook/flight-reservation/internal/handler"
	"github.com/skybook/flight-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes. Unauthenticated
// operations live under /v1/auth; protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh_token in the body; with a valid bearer and no
	// body token it revokes every session for the user.
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterBrowse registers unauthenticated browse endpoints: airlines,
// flight search and seat maps. The extra middleware (typically the response
// cache) applies to this group only.
func RegisterBrowse(e *echo.Echo, b *handler.BrowseHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	g.GET("/airlines", b.GetAirlines)
	g.GET("/airlines/:id", b.GetAirline)
	g.GET("/flights", b.SearchFlights)
	g.GET("/flights/:id", b.GetFlight)
	g.GET("/flights/:id/seats", b.GetFlightSeats)
}

// RegisterReservations registers booking endpoints. The two flight-scoped
// booking routes work for guests too, so they only carry OptionalJWT;
// reservation lookups require a session.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string) {
	e.PATCH("/v1/flights/:id/seats", r.ReserveSeats, middleware.OptionalJWT(jwtSecret))
	e.POST("/v1/flights/:id/reserve", r.ReserveCount, middleware.OptionalJWT(jwtSecret))

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/reservations", r.CreateReservation)
	auth.GET("/reservations/:id", r.GetReservation)
	auth.GET("/my-reservations", r.MyReservations)
}

// RegisterCatalog registers airline and flight management endpoints. Both
// require a session.
func RegisterCatalog(e *echo.Echo, ct *handler.CatalogHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/airlines", ct.CreateAirline)
	auth.POST("/flights", ct.CreateFlight)
}

// RegisterSupport registers the contact form, password-reset requests and
// the payment endpoint.
func RegisterSupport(e *echo.Echo, c *handler.ContactHandler, p *handler.PaymentHandler, jwtSecret string) {
	e.POST("/v1/contact", c.SubmitContact)
	e.POST("/v1/password-reset", c.SubmitPasswordReset)
	e.POST("/v1/payments", p.ProcessPayment, middleware.JWTAuth(jwtSecret))
}
