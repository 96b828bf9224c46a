package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, expires time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestBasicRouter(t *testing.T) {
	t.Run("MethodFiltering", func(t *testing.T) {
		router := NewBasicRouter()
		router.HandleFunc(http.MethodGet, "/ping", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if rec.Header().Get("Allow") != http.MethodGet {
			t.Errorf("expected Allow header GET, got %q", rec.Header().Get("Allow"))
		}
	})

	t.Run("MiddlewareOrder", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter(mark("first"))
		router.Use(mark("second"))
		router.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("LogRequestsOmitsQuery", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		shared.SetLogLevel(logger, log.DebugLevel)

		router := NewBasicRouter(LogRequests(logger))
		router.HandleFunc(http.MethodGet, "/callback", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?auth_token=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "/callback") || !strings.Contains(out, "418") {
			t.Errorf("expected path and status in log, got %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("log leaked the token: %q", out)
		}
	})
}

func TestLoginHandler(t *testing.T) {
	callback := func(h *LoginHandler, query url.Values) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+query.Encode(), nil))
		return rec
	}

	t.Run("Success", func(t *testing.T) {
		h := NewLoginHandler("xyz")
		rec := callback(h, url.Values{"state": {"xyz"}, TokenParam: {"opaque-session"}})

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Signed in") {
			t.Errorf("expected success page, got %q", rec.Body.String())
		}

		result := <-h.Result()
		if result.Error() != nil || result.Token != "opaque-session" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("StateMismatch", func(t *testing.T) {
		h := NewLoginHandler("xyz")
		rec := callback(h, url.Values{"state": {"other"}, TokenParam: {"tok"}})

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrStateMismatch) {
			t.Errorf("expected ErrStateMismatch, got %v", result.Error())
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		h := NewLoginHandler("xyz")
		callback(h, url.Values{"state": {"xyz"}, "error": {"access_denied"}})

		result := <-h.Result()
		if !errors.Is(result.Error(), shared.ErrNoCredential) || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected ErrNoCredential with reason, got %v", result.Error())
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		h := NewLoginHandler("xyz")
		expired := signedToken(t, time.Now().Add(-time.Hour))
		callback(h, url.Values{"state": {"xyz"}, TokenParam: {expired}})

		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", result.Error())
		}
	})

	t.Run("OnlyOnce", func(t *testing.T) {
		h := NewLoginHandler("xyz")
		callback(h, url.Values{"state": {"xyz"}, TokenParam: {"tok"}})
		rec := callback(h, url.Values{"state": {"xyz"}, TokenParam: {"tok2"}})

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
		if result := <-h.Result(); result.Token != "tok" {
			t.Errorf("expected first token, got %q", result.Token)
		}
		if _, ok := <-h.Result(); ok {
			t.Error("result channel should be closed after one result")
		}
	})
}

func TestCallbackServer(t *testing.T) {
	t.Run("DeliversToken", func(t *testing.T) {
		valid := signedToken(t, time.Now().Add(time.Hour))
		srv := &CallbackServer{Addr: "127.0.0.1:0", Timeout: 5 * time.Second, Logger: shared.NewLogger(&bytes.Buffer{})}

		token, err := srv.Run(context.Background(), func(redirect string) error {
			u, err := url.Parse(redirect)
			if err != nil {
				return err
			}
			if u.Path != "/callback" || u.Query().Get("state") == "" {
				t.Errorf("unexpected redirect %q", redirect)
			}
			go func() {
				resp, err := http.Get(redirect + "&" + TokenParam + "=" + valid)
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if token != valid {
			t.Errorf("unexpected token %q", token)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := &CallbackServer{Addr: "127.0.0.1:0", Timeout: 20 * time.Millisecond, Logger: shared.NewLogger(&bytes.Buffer{})}

		_, err := srv.Run(context.Background(), func(string) error { return nil })
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("OpenFailure", func(t *testing.T) {
		srv := &CallbackServer{Addr: "127.0.0.1:0", Logger: shared.NewLogger(&bytes.Buffer{})}
		boom := errors.New("no backend")

		if _, err := srv.Run(context.Background(), func(string) error { return boom }); !errors.Is(err, boom) {
			t.Errorf("expected open error, got %v", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		srv := &CallbackServer{Addr: "127.0.0.1:0", Logger: shared.NewLogger(&bytes.Buffer{})}

		_, err := srv.Run(ctx, func(string) error { cancel(); return nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("ListenFailure", func(t *testing.T) {
		srv := &CallbackServer{Addr: "256.0.0.1:0"}
		if _, err := srv.Run(context.Background(), func(string) error { return nil }); err == nil {
			t.Error("expected listen error")
		}
	})
}
