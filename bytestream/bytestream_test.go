package bytestream

import (
	"bytes"
	"testing"
)

func TestByteStreamCapacity(t *testing.T) {
	bs := New(5)
	if n := bs.Write([]byte("abcdefg")); n != 5 {
		t.Fatalf("write accepted %d, want 5", n)
	}
	if bs.RemainingCapacity() != 0 {
		t.Fatalf("remaining=%d", bs.RemainingCapacity())
	}
	if n := bs.Write([]byte("x")); n != 0 {
		t.Fatalf("write on full stream accepted %d", n)
	}
	got := bs.Read(2)
	if string(got) != "ab" {
		t.Fatalf("read %q", got)
	}
	if n := bs.Write([]byte("fgh")); n != 2 {
		t.Fatalf("write accepted %d, want 2", n)
	}
	got = bs.Read(100)
	if string(got) != "cdefg" {
		t.Fatalf("read %q", got)
	}
	if bs.BytesWritten() != 7 || bs.BytesRead() != 7 {
		t.Fatalf("written=%d read=%d", bs.BytesWritten(), bs.BytesRead())
	}
}

func TestByteStreamEOF(t *testing.T) {
	bs := New(16)
	bs.Write([]byte("hello"))
	bs.EndInput()
	if bs.EOF() {
		t.Fatal("EOF before draining")
	}
	if n := bs.Write([]byte("more")); n != 0 {
		t.Fatal("write after EndInput accepted")
	}
	bs.Read(5)
	if !bs.EOF() || !bs.InputEnded() {
		t.Fatal("expected EOF after draining")
	}
	if got := bs.Read(1); got != nil {
		t.Fatalf("read on empty stream returned %q", got)
	}
}

func TestByteStreamWraparound(t *testing.T) {
	bs := New(7)
	var want, got bytes.Buffer
	for i := 0; i < 100; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i%26)}, 1+i%5)
		n := bs.Write(chunk)
		want.Write(chunk[:n])
		got.Write(bs.Read(1 + i%3))
	}
	got.Write(bs.Read(bs.BufferSize()))
	if !bytes.Equal(want.Bytes(), got.Bytes()) {
		t.Fatalf("stream reordered data:\nwant %q\ngot  %q", want.Bytes(), got.Bytes())
	}
}

func TestByteStreamZeroCapacity(t *testing.T) {
	bs := New(0)
	if bs.Write([]byte("a")) != 0 || !bs.BufferEmpty() {
		t.Fatal("zero capacity stream accepted data")
	}
	bs.SetError()
	if !bs.Error() {
		t.Fatal("error flag not set")
	}
}
