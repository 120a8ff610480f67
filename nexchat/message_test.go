package nexchat

import (
	"strings"
	"testing"
)

func TestMessageIDKeys(t *testing.T) {
	if got := ServerID("abc").Key(); got != "srv:abc" {
		t.Fatalf("server id: got %q", got)
	}
	if got := SynthesizedID("r1", 1700000000000).Key(); got != "srv:r1:1700000000000" {
		t.Fatalf("synthesized id: got %q", got)
	}
	if got := SystemID().Key(); !strings.HasPrefix(got, "sys:") {
		t.Fatalf("system id: got %q", got)
	}
}

func TestMessageIDKinds(t *testing.T) {
	if ServerID("a").Kind() != IDServer {
		t.Fatal("expected IDServer")
	}
	if SynthesizedID("r", 1).Kind() != IDSynthesized {
		t.Fatal("expected IDSynthesized")
	}
	if SystemID().Kind() != IDSystem {
		t.Fatal("expected IDSystem")
	}
}

func TestSystemIDsAreUnique(t *testing.T) {
	if SystemID().Key() == SystemID().Key() {
		t.Fatal("expected distinct system ids")
	}
}

func TestMessageIDIsZero(t *testing.T) {
	var id MessageID
	if !id.IsZero() {
		t.Fatal("zero value should report zero")
	}
	if ServerID("a").IsZero() {
		t.Fatal("server id should not report zero")
	}
}

func TestRoomChatIDRoundTrip(t *testing.T) {
	chatID := RoomChatID("r1")
	roomID, ok := RoomIDFromChatID(chatID)
	if !ok || roomID != "r1" {
		t.Fatalf("round trip failed: %q, %v", roomID, ok)
	}
	if _, ok := RoomIDFromChatID("c1"); ok {
		t.Fatal("local chat id should not map to a room")
	}
}
