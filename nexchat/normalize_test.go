package nexchat

import (
	"strconv"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNormalizeOrdersByTimestamp(t *testing.T) {
	n := NewNormalizer("alice")
	events := []ChatEvent{
		{MessageID: "3", RoomID: "r1", Sender: "bob", Content: "third", Type: MessageText, Timestamp: "2024-01-01T00:00:03Z"},
		{MessageID: "1", RoomID: "r1", Sender: "bob", Content: "first", Type: MessageText, Timestamp: "2024-01-01T00:00:01Z"},
		{MessageID: "2", RoomID: "r1", Sender: "bob", Content: "second", Type: MessageText, Timestamp: "2024-01-01T00:00:02Z"},
	}

	msgs := n.Normalize("room:r1", "r1", events)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Text != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, msgs[i].Text)
		}
	}
}

func TestNormalizeStableOnTies(t *testing.T) {
	n := NewNormalizer("alice")
	events := []ChatEvent{
		{MessageID: "a", RoomID: "r1", Sender: "bob", Content: "one", Type: MessageText, Timestamp: "2024-01-01T00:00:01Z"},
		{MessageID: "b", RoomID: "r1", Sender: "bob", Content: "two", Type: MessageText, Timestamp: "2024-01-01T00:00:01Z"},
	}

	msgs := n.Normalize("room:r1", "r1", events)
	if msgs[0].Text != "one" || msgs[1].Text != "two" {
		t.Fatalf("tie order not preserved: %q, %q", msgs[0].Text, msgs[1].Text)
	}
}

func TestResolveOrigin(t *testing.T) {
	n := NewNormalizer("alice")

	cases := []struct {
		sender string
		want   Origin
	}{
		{"alice", OriginMe},
		{"Alice", OriginMe},
		{"  ALICE  ", OriginMe},
		{"bob", OriginOther},
		{"system", OriginSystem},
		{"SYSTEM", OriginSystem},
		{" System ", OriginSystem},
		{"", OriginOther},
	}
	for _, c := range cases {
		msgs := n.Normalize("room:r1", "r1", []ChatEvent{{RoomID: "r1", Sender: c.sender, Content: "x", Type: MessageText}})
		if msgs[0].From != c.want {
			t.Fatalf("sender %q: expected %q, got %q", c.sender, c.want, msgs[0].From)
		}
	}
}

func TestResolveOriginSystemBeatsCurrentUser(t *testing.T) {
	n := NewNormalizer("system")
	msgs := n.Normalize("room:r1", "r1", []ChatEvent{{RoomID: "r1", Sender: "system", Content: "x", Type: MessageText}})
	if msgs[0].From != OriginSystem {
		t.Fatalf("expected system, got %q", msgs[0].From)
	}
}

func TestNormalizeTimestampFallback(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	n := NewNormalizer("alice", WithClock(fixedClock(now)))

	for _, ts := range []string{"", "not-a-date"} {
		msgs := n.Normalize("room:r1", "r1", []ChatEvent{{RoomID: "r1", Sender: "bob", Content: "x", Type: MessageText, Timestamp: ts}})
		if msgs[0].CreatedAt != now.UnixMilli() {
			t.Fatalf("timestamp %q: expected fallback %d, got %d", ts, now.UnixMilli(), msgs[0].CreatedAt)
		}
	}
}

func TestNormalizeLocalDateTime(t *testing.T) {
	n := NewNormalizer("alice")
	msgs := n.Normalize("room:r1", "r1", []ChatEvent{{RoomID: "r1", Sender: "bob", Content: "x", Type: MessageText, Timestamp: "2024-01-02T03:04:05"}})

	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local).UnixMilli()
	if msgs[0].CreatedAt != want {
		t.Fatalf("expected %d, got %d", want, msgs[0].CreatedAt)
	}
}

func TestNormalizeIDDerivation(t *testing.T) {
	n := NewNormalizer("alice")

	withID := n.Normalize("room:r1", "r1", []ChatEvent{{MessageID: "m-7", RoomID: "r1", Sender: "bob", Type: MessageText, Timestamp: "2024-01-01T00:00:00Z"}})
	if got := withID[0].ID.Key(); got != "srv:m-7" {
		t.Fatalf("expected srv:m-7, got %q", got)
	}

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	withoutID := n.Normalize("room:r1", "r1", []ChatEvent{{RoomID: "r1", Sender: "bob", Type: MessageText, Timestamp: "2024-01-01T00:00:00Z"}})
	if got, want := withoutID[0].ID.Key(), "srv:r1:"+itoa(ts); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalizeAttachment(t *testing.T) {
	n := NewNormalizer("alice")
	events := []ChatEvent{{
		MessageID: "f1",
		RoomID:    "r1",
		Sender:    "bob",
		Type:      MessageFile,
		File: &FileMeta{
			OriginalName: "report.pdf",
			StoredName:   "abc123.pdf",
			DownloadURL:  "http://files/abc123.pdf",
			MimeType:     "application/pdf",
			Size:         2048,
		},
		Timestamp: "2024-01-01T00:00:00Z",
	}}

	msgs := n.Normalize("room:r1", "r1", events)
	a := msgs[0].Attachment
	if a == nil {
		t.Fatal("expected attachment")
	}
	if a.Name != "report.pdf" || a.Size != 2048 || a.MimeType != "application/pdf" {
		t.Fatalf("unexpected attachment: %+v", a)
	}
	if msgs[0].Text != "" {
		t.Fatalf("expected empty text, got %q", msgs[0].Text)
	}
}

func TestNormalizeAttachmentNameFallback(t *testing.T) {
	n := NewNormalizer("alice")
	msgs := n.Normalize("room:r1", "r1", []ChatEvent{{
		MessageID: "f1", RoomID: "r1", Sender: "bob", Type: MessageFile,
		File: &FileMeta{StoredName: "stored.bin"},
	}})
	if msgs[0].Attachment.Name != "stored.bin" {
		t.Fatalf("expected stored name fallback, got %q", msgs[0].Attachment.Name)
	}

	msgs = n.Normalize("room:r1", "r1", []ChatEvent{{
		MessageID: "f2", RoomID: "r1", Sender: "bob", Type: MessageFile,
		File: &FileMeta{},
	}})
	if msgs[0].Attachment.Name != "Attachment" {
		t.Fatalf("expected generic fallback, got %q", msgs[0].Attachment.Name)
	}
}

func TestNormalizeWireMalformed(t *testing.T) {
	n := NewNormalizer("alice")

	for _, body := range []string{"not json", `"just a string"`, "null", "[1,2,3]"} {
		msgs := n.NormalizeWire("room:r1", "r1", []byte(body))
		if len(msgs) != 1 {
			t.Fatalf("body %q: expected 1 message, got %d", body, len(msgs))
		}
		if msgs[0].From != OriginSystem {
			t.Fatalf("body %q: expected system message, got %q", body, msgs[0].From)
		}
	}
}

func TestNormalizeWireValid(t *testing.T) {
	n := NewNormalizer("alice")
	body := []byte(`{"messageId":"1","roomId":"r1","sender":"bob","content":"hi","type":"TEXT","timestamp":"2024-01-01T00:00:00Z"}`)

	msgs := n.NormalizeWire("room:r1", "r1", body)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].From != OriginOther || msgs[0].Text != "hi" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
