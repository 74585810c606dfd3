package devkit

import (
	"context"
	"errors"
	"testing"

	"github.com/lunchpaillola/api-module-library/core"
)

func TestFakeTransportAdapter_ScriptsAndCapturesRequests(t *testing.T) {
	adapter := NewFakeTransportAdapter("rest",
		TransportScript{Response: core.TransportResponse{StatusCode: 429}},
		JSONScript(200, `{"ok":true}`),
	)

	first, err := adapter.Do(context.Background(), core.TransportRequest{
		Method: "GET",
		URL:    "https://api.example.test/items",
	})
	if err != nil {
		t.Fatalf("first fake call: %v", err)
	}
	if first.StatusCode != 429 {
		t.Fatalf("expected first scripted status 429, got %d", first.StatusCode)
	}

	second, err := adapter.Do(context.Background(), core.TransportRequest{
		Method: "POST",
		URL:    "https://api.example.test/items",
		Body:   []byte(`{"name":"x"}`),
	})
	if err != nil {
		t.Fatalf("second fake call: %v", err)
	}
	if second.StatusCode != 200 || string(second.Body) != `{"ok":true}` {
		t.Fatalf("unexpected second response %#v", second)
	}

	third, _ := adapter.Do(context.Background(), core.TransportRequest{URL: "https://api.example.test/again"})
	if third.StatusCode != 200 {
		t.Fatalf("expected last script to repeat, got %d", third.StatusCode)
	}

	requests := adapter.Requests()
	if len(requests) != 3 {
		t.Fatalf("expected three captured requests, got %d", len(requests))
	}
	last, ok := adapter.LastRequest()
	if !ok || last.URL != "https://api.example.test/again" {
		t.Fatalf("unexpected last request %#v", last)
	}
	if string(requests[1].Body) != `{"name":"x"}` {
		t.Fatalf("expected request body captured, got %q", requests[1].Body)
	}
	if matched := adapter.RequestsTo("/items"); len(matched) != 2 || matched[1].Method != "POST" {
		t.Fatalf("expected two /items requests, got %#v", matched)
	}
	requests[1].Body[0] = 'X'
	if again := adapter.Requests(); string(again[1].Body) != `{"name":"x"}` {
		t.Fatalf("expected captured requests to be copies, got %q", again[1].Body)
	}
}

func TestFakeTransportAdapter_ScriptedErrorAndDefault(t *testing.T) {
	boom := errors.New("boom")
	adapter := NewFakeTransportAdapter("REST", TransportScript{Err: boom})
	if adapter.Kind() != "rest" {
		t.Fatalf("expected normalized kind, got %q", adapter.Kind())
	}
	if _, err := adapter.Do(context.Background(), core.TransportRequest{}); !errors.Is(err, boom) {
		t.Fatalf("expected scripted error, got %v", err)
	}

	empty := NewFakeTransportAdapter("rest")
	res, err := empty.Do(context.Background(), core.TransportRequest{})
	if err != nil || res.StatusCode != 200 {
		t.Fatalf("expected default 200, got %d (%v)", res.StatusCode, err)
	}
	if _, ok := NewFakeTransportAdapter("rest").LastRequest(); ok {
		t.Fatalf("expected no last request")
	}
}
