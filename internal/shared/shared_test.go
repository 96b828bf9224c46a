package shared

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		ms   int
		want string
	}{
		{name: "zero", ms: 0, want: "0:00"},
		{name: "pads seconds", ms: 65_000, want: "1:05"},
		{name: "truncates partial seconds", ms: 59_999, want: "0:59"},
		{name: "long track", ms: 754_000, want: "12:34"},
		{name: "negative clamps", ms: -5, want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.ms); got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.ms, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{-10, 0}, {0, 0}, {55, 55}, {100, 100}, {150, 100}} {
		if got := Clamp(tt.in, 0, 100); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := GenerateState()

	if a == b {
		t.Error("expected distinct states")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("expected url-safe state, got %s", a)
	}
}

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func TestSessionClaims(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Parses Claims Without Verification", func(t *testing.T) {
		tok := signedToken(t, SessionClaims{
			UserID:           "u-1",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		})

		claims, err := ParseSessionClaims(tok)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claims.Identity() != "u-1" {
			t.Errorf("expected identity u-1, got %s", claims.Identity())
		}
		if claims.Expired(now) {
			t.Error("token should not be expired")
		}
	})

	t.Run("Expired Token Fails Precondition", func(t *testing.T) {
		tok := signedToken(t, jwt.RegisteredClaims{Subject: "s", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})

		if err := CheckSessionToken(tok, now); !errors.Is(err, ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Opaque Token Passes", func(t *testing.T) {
		if err := CheckSessionToken("opaque-session-id", now); err != nil {
			t.Errorf("expected opaque token to pass, got %v", err)
		}
	})

	t.Run("Empty Token", func(t *testing.T) {
		if err := CheckSessionToken("", now); !errors.Is(err, ErrNoCredential) {
			t.Errorf("expected ErrNoCredential, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required,max=5"`
		Vote int    `json:"vote" validate:"oneof=1 -1"`
	}

	t.Run("Valid", func(t *testing.T) {
		if err := Validate(payload{Name: "ok", Vote: 1}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Reports Json Field Names", func(t *testing.T) {
		err := Validate(payload{Name: "", Vote: 3})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if !strings.Contains(err.Error(), "name is required") {
			t.Errorf("expected name message, got %v", err)
		}
		if !strings.Contains(err.Error(), "vote must be one of") {
			t.Errorf("expected vote message, got %v", err)
		}
	})
}
