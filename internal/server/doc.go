// Package server provides HTTP routing, middleware, and the login callback used by the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Login Callback Handler
//
// [LoginHandler] receives the browser redirect that ends the provider login.
// The backend appends the session token as the auth_token query parameter to the
// redirect URI the CLI registered; the handler validates the state parameter it
// embedded there (CSRF protection) and sends the token through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Callback Server
//
// [CallbackServer] runs the handler on a temporary local listener (localhost:3000 by default)
// and shuts it down once a result arrives, the timeout fires or the context is cancelled.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
