package utils

import (
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	s, err := EncodeCursor(at, "abc")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	c, err := DecodeCursor(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !c.At.Equal(at) || c.ID != "abc" {
		t.Fatalf("got %+v", c)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, in := range []string{"", "%%%", "e30"} { // e30 = "{}"
		if _, err := DecodeCursor(in); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("%q: expected ErrInvalidCursor, got %v", in, err)
		}
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("5f0c7a5e-3c1f-4b8e-9d6a-2f1e0b7c9a11") {
		t.Fatalf("expected valid uuid")
	}
	if IsUUID("nope") {
		t.Fatalf("expected invalid uuid")
	}
}
