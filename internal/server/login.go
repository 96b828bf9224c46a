package server

import (
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/jamroom/internal/shared"
)

// TokenParam is the query parameter carrying the session token on the login redirect.
const TokenParam = "auth_token"

// LoginResult contains the outcome of a login callback.
type LoginResult struct {
	Token string
	err   error
}

func (l *LoginResult) Error() error {
	return l.err
}

// LoginHandler handles the redirect that completes a backend login.
// Implements the Handler interface for registration with a Router.
type LoginHandler struct {
	state       string
	now         func() time.Time
	resultChan  chan LoginResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewLoginHandler creates a handler expecting state on the callback.
// The state token should be cryptographically random for CSRF protection.
func NewLoginHandler(state string) *LoginHandler {
	return &LoginHandler{
		state:      state,
		now:        time.Now,
		resultChan: make(chan LoginResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *LoginHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the login callback request.
//
// Validates the state parameter, checks the token is present and unexpired,
// and sends the result through the result channel.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.Send(LoginResult{err: shared.ErrStateMismatch})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token := q.Get(TokenParam)
	if token == "" {
		err := fmt.Errorf("%w: login failed: %s", shared.ErrNoCredential, q.Get("error"))
		h.Send(LoginResult{err: err})
		http.Error(w, "Login failed", http.StatusBadRequest)
		return
	}

	if err := shared.CheckSessionToken(token, h.now()); err != nil {
		h.Send(LoginResult{err: err})
		http.Error(w, "Session token rejected", http.StatusBadRequest)
		return
	}

	h.Send(LoginResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	successPage.Execute(w, nil)
}

// Send sends the login result through the channel (only once).
func (h *LoginHandler) Send(result LoginResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving login completion.
//
// Channel will receive exactly one result and then be closed.
func (h *LoginHandler) Result() <-chan LoginResult {
	return h.resultChan
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Signed In</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Signed in to jamroom</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`))
