package nexchat

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIErrorMessageExtraction(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"message":"room not found"}`, "room not found"},
		{`{"error":"bad credentials"}`, "bad credentials"},
		{`{"detail":"expired token"}`, "expired token"},
		{`{"message":"wins","error":"loses"}`, "wins"},
		{`"plain string body"`, "plain string body"},
		{`not json at all`, "not json at all"},
		{``, ""},
	}
	for _, c := range cases {
		got := NewAPIError(400, []byte(c.body)).Message
		if got != c.want {
			t.Fatalf("body %q: expected %q, got %q", c.body, c.want, got)
		}
	}
}

func TestAPIErrorFallsBackToSerializedObject(t *testing.T) {
	got := NewAPIError(500, []byte(`{"code":42}`)).Message
	if got != `{"code":42}` {
		t.Fatalf("expected serialized object, got %q", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(nil); got != "Something went wrong. Please try again." {
		t.Fatalf("nil error: got %q", got)
	}
	api := NewAPIError(400, []byte(`{"message":"nope"}`))
	if got := UserMessage(fmt.Errorf("request: %w", api)); got != "nope" {
		t.Fatalf("wrapped api error: got %q", got)
	}
	if got := UserMessage(errors.New("boom")); got != "boom" {
		t.Fatalf("plain error: got %q", got)
	}
}

func TestClientErrorIsMatchesByCode(t *testing.T) {
	err := WrapError(ErrorConnection, "dial failed", errors.New("refused"))
	if !errors.Is(err, NewError(ErrorConnection, "")) {
		t.Fatal("expected code match")
	}
	if errors.Is(err, NewError(ErrorTimeout, "")) {
		t.Fatal("unexpected code match")
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	inner := errors.New("refused")
	err := WrapError(ErrorConnection, "dial failed", inner)
	if !errors.Is(err, inner) {
		t.Fatal("expected unwrap to reach inner error")
	}
}
