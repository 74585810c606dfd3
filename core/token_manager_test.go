package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenManager_SetTokensReplacesPair(t *testing.T) {
	manager := NewTokenManager(TokenManagerOptions{AccessToken: "stale-access", RefreshToken: "stale-refresh"})
	if manager.State() != AuthStateAuthenticated {
		t.Fatalf("expected restored tokens to start authenticated, got %q", manager.State())
	}

	if err := manager.SetTokens(context.Background(), TokenResponse{
		AccessToken:  "fresh-access",
		RefreshToken: "fresh-refresh",
		ExpiresIn:    3600,
	}); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	snapshot := manager.Snapshot()
	if snapshot.AccessToken != "fresh-access" || snapshot.RefreshToken != "fresh-refresh" {
		t.Fatalf("expected both tokens replaced, got %#v", snapshot)
	}
	if snapshot.Expiry.IsZero() {
		t.Fatalf("expected expiry derived from expires_in")
	}
}

func TestTokenManager_SetTokensKeepsRefreshWhenOmitted(t *testing.T) {
	manager := NewTokenManager(TokenManagerOptions{AccessToken: "a1", RefreshToken: "r1"})
	if err := manager.SetTokens(context.Background(), TokenResponse{AccessToken: "a2"}); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	if manager.RefreshToken() != "r1" {
		t.Fatalf("expected refresh token kept, got %q", manager.RefreshToken())
	}
	if manager.AccessToken() != "a2" {
		t.Fatalf("expected access token replaced, got %q", manager.AccessToken())
	}
}

func TestTokenManager_SetTokensRequiresAccessToken(t *testing.T) {
	manager := NewTokenManager(TokenManagerOptions{})
	if err := manager.SetTokens(context.Background(), TokenResponse{RefreshToken: "r"}); err == nil {
		t.Fatalf("expected error for empty access token")
	}
	if manager.State() != AuthStateUnauthenticated {
		t.Fatalf("expected state unchanged, got %q", manager.State())
	}
}

func TestTokenManager_StateTransitions(t *testing.T) {
	manager := NewTokenManager(TokenManagerOptions{})
	if err := manager.MarkExpired(); !errors.Is(err, ErrInvalidAuthStateTransition) {
		t.Fatalf("expected invalid transition from unauthenticated to expired, got %v", err)
	}
	if err := manager.SetTokens(context.Background(), TokenResponse{AccessToken: "a"}); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	if err := manager.MarkExpired(); err != nil {
		t.Fatalf("mark expired: %v", err)
	}
	if manager.State() != AuthStateExpired {
		t.Fatalf("expected expired, got %q", manager.State())
	}
	if err := manager.Deauthorize(context.Background()); err != nil {
		t.Fatalf("deauthorize: %v", err)
	}
	if manager.State() != AuthStateDeauthorized || manager.AccessToken() != "" || manager.RefreshToken() != "" {
		t.Fatalf("expected wiped deauthorized manager, got %#v", manager.Snapshot())
	}
	if err := manager.MarkExpired(); !errors.Is(err, ErrInvalidAuthStateTransition) {
		t.Fatalf("expected deauthorized to reject expired, got %v", err)
	}
	if err := manager.SetTokens(context.Background(), TokenResponse{AccessToken: "b"}); err != nil {
		t.Fatalf("expected new code exchange to re-authenticate, got %v", err)
	}
}

func TestTokenManager_NotifiesObserversOutsideLock(t *testing.T) {
	manager := NewTokenManager(TokenManagerOptions{})
	events := []TokenEvent{}
	manager.Subscribe(TokenObserverFunc(func(_ context.Context, event TokenEvent, snapshot TokenSnapshot) {
		// reading back through the manager would deadlock if still locked
		if manager.AccessToken() != snapshot.AccessToken {
			t.Errorf("snapshot and manager disagree")
		}
		events = append(events, event)
	}))

	ctx := context.Background()
	if err := manager.SetTokens(ctx, TokenResponse{AccessToken: "a"}); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	manager.MarkInvalid(ctx)
	if err := manager.Deauthorize(ctx); err != nil {
		t.Fatalf("deauthorize: %v", err)
	}
	if err := manager.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	want := []TokenEvent{TokenEventUpdated, TokenEventInvalidAuth, TokenEventDeauthorized}
	if len(events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, events)
		}
	}
}

func TestTokenManager_AuthorizationHeaderScheme(t *testing.T) {
	manager := NewTokenManager(TokenManagerOptions{HeaderScheme: AuthHeaderZohoOAuthToken, AccessToken: "tok"})
	header, ok := manager.AuthorizationHeader()
	if !ok || header != "Zoho-oauthtoken tok" {
		t.Fatalf("unexpected header %q", header)
	}
	empty := NewTokenManager(TokenManagerOptions{})
	if _, ok := empty.AuthorizationHeader(); ok {
		t.Fatalf("expected no header without access token")
	}
	if empty.HeaderScheme() != AuthHeaderBearer {
		t.Fatalf("expected bearer default, got %q", empty.HeaderScheme())
	}
}

func TestTokenManager_RefreshOnlyStartsExpired(t *testing.T) {
	manager := NewTokenManager(TokenManagerOptions{
		RefreshToken: "r",
		Now:          func() time.Time { return time.Unix(0, 0) },
	})
	if manager.State() != AuthStateExpired {
		t.Fatalf("expected expired state with only a refresh token, got %q", manager.State())
	}
}

func TestAuthState_TransitionTable(t *testing.T) {
	if err := ValidateAuthStateTransition(AuthStateUnauthenticated, AuthStateAuthenticated); err != nil {
		t.Fatalf("expected allowed transition: %v", err)
	}
	if err := ValidateAuthStateTransition(AuthStateDeauthorized, AuthStateExpired); err == nil {
		t.Fatalf("expected deauthorized -> expired to be rejected")
	}
	if AuthState("bogus").CanTransitionTo(AuthStateAuthenticated) {
		t.Fatalf("expected unknown state to reject transitions")
	}
}
