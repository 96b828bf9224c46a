// Package services talks HTTP to the rooms backend and the provider Web API.
//
// # Backend Client
//
// [Client] is the single transport to the rooms backend. It sends the session
// token both as the auth_token cookie and as a bearer credential, rate limits
// every call with a shared [rate.Limiter], and maps status codes onto the
// sentinel errors in the shared package:
//   - 401 : [shared.ErrNotAuthenticated]
//   - 403 : [shared.ErrForbidden]
//   - 404 : [shared.ErrNotFound]
//   - other non-2xx : [shared.ErrAPIRequest]
//
// A 204 response decodes into nothing and is not an error.
//
// # Typed Services
//
// [RoomService], [SearchService], [ProfileService] and [PlaybackService] are
// thin wrappers that pin endpoints and request/response shapes to the models
// package. They hold no state beyond the shared [Client].
//
// # Provider Web API
//
// [SpotifyService] drives a provider device directly using an [oauth2.TokenSource].
// The token source usually comes from [NewStreamingTokenSource], which asks the
// backend for a fresh streaming token whenever the cached one expires.
package services
