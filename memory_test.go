package edgewasm

import "testing"

func TestMemory_Uint32RoundTrip(t *testing.T) {
	m := &Memory{ByteMemory(make([]byte, 16))}

	m.PutUint32(0xdeadbeef, 4)
	if got := m.Uint32(4); got != 0xdeadbeef {
		t.Errorf("expected 0xdeadbeef, got 0x%x", got)
	}
}

// A cursor out-slot is documented as a 4-byte i32, not an 8-byte i64 — writing past that
// boundary would clobber whatever the guest placed immediately after it.
func TestMemory_PutInt32WritesExactlyFourBytes(t *testing.T) {
	buf := []byte{0xaa, 0xaa, 0, 0, 0, 0, 0xaa, 0xaa}
	m := &Memory{ByteMemory(buf)}

	m.PutInt32(-1, 2)

	want := []byte{0xaa, 0xaa, 0xff, 0xff, 0xff, 0xff, 0xaa, 0xaa}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d: expected 0x%x, got 0x%x", i, want[i], buf[i])
		}
	}

	if m.Uint32(2) != 0xffffffff {
		t.Errorf("expected all-ones at offset 2, got 0x%x", m.Uint32(2))
	}
}

func TestMemory_WriteAtTruncatesToDestinationLength(t *testing.T) {
	buf := make([]byte, 4)
	m := &Memory{ByteMemory(buf)}

	n := m.WriteAt([]byte("hello world"), 0)
	if n != 4 {
		t.Fatalf("expected truncated write of 4 bytes, got %d", n)
	}
	if string(buf) != "hell" {
		t.Errorf("expected %q, got %q", "hell", string(buf))
	}
}

func TestMemory_String(t *testing.T) {
	buf := []byte("GET /foo HTTP/1.1")
	m := &Memory{ByteMemory(buf)}

	if got := m.String(4, 4); got != "/foo" {
		t.Errorf("expected %q, got %q", "/foo", got)
	}
}
