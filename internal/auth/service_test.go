package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/marketchat/internal/store/sqlite"
)

func testJWTConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
}

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewService(st, testJWTConfig())
}

func TestCreateMember_RejectsInvalidNickname(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.CreateMember(ctx, "   ", ""); !errors.Is(err, ErrInvalidNickname) {
		t.Fatalf("expected ErrInvalidNickname, got %v", err)
	}
}

func TestCreateMember_TokenCarriesProfile(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	user, token, err := svc.CreateMember(ctx, " alice ", "https://img.example/a.png")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if user.Nickname != "alice" {
		t.Fatalf("expected trimmed nickname, got %q", user.Nickname)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Nickname != "alice" || claims.Avatar != "https://img.example/a.png" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIssueToken_UnknownUser(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.IssueToken(context.Background(), 42); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestValidateToken_RejectsWrongSecretAndAudience(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateToken(cfg, 7, "bob", "")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	wrongSecret := *cfg
	wrongSecret.Secret = []byte("other")
	if _, err := ValidateToken(&wrongSecret, token); err == nil {
		t.Fatalf("expected signature failure")
	}

	wrongAudience := *cfg
	wrongAudience.Audience = "elsewhere"
	if _, err := ValidateToken(&wrongAudience, token); err == nil {
		t.Fatalf("expected audience failure")
	}
}

func TestParseIdentity(t *testing.T) {
	token, err := GenerateToken(testJWTConfig(), 7, "bob", "https://img.example/b.png")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ParseIdentity(token)
	if err != nil {
		t.Fatalf("ParseIdentity failed: %v", err)
	}
	if claims.UserID != 7 || claims.Nickname != "bob" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"nickname": "x"}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseIdentity(anonymous); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}

	if _, err := ParseIdentity("not-a-token"); err == nil {
		t.Fatalf("expected parse error")
	}
}
