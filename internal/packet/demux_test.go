package packet

import (
	"errors"
	"math"
	"testing"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

func collect(it *Iterator) []contracts.Message {
	var out []contracts.Message
	for {
		m, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, m)
	}
}

func TestDemux_Counts(t *testing.T) {
	msgs := []contracts.Message{
		{Status: 0x90, Data1: 60, Data2: 100},
		{Status: 0x80, Data1: 60, Data2: 0},
		{Status: 0xB3, Data1: 7, Data2: 127},
		{Status: 0xC0, Data1: 5, Data2: 0},
	}
	for n := 0; n <= len(msgs); n++ {
		buf, count := Pack(msgs[:n]...)
		it, err := Demux(buf, count)
		if err != nil {
			t.Fatalf("n=%d: Demux error: %v", n, err)
		}
		if it.Len() != n {
			t.Fatalf("n=%d: Len=%d", n, it.Len())
		}
		got := collect(it)
		if len(got) != n {
			t.Fatalf("n=%d: got %d messages", n, len(got))
		}
		for i := range got {
			if got[i] != msgs[i] {
				t.Fatalf("n=%d: message %d = %+v, want %+v", n, i, got[i], msgs[i])
			}
		}
	}
}

func TestDemux_EmptyBuffer(t *testing.T) {
	for _, buf := range [][]byte{nil, {}} {
		it, err := Demux(buf, 0)
		if err != nil {
			t.Fatalf("Demux(%v, 0) error: %v", buf, err)
		}
		if _, ok := it.Next(); ok {
			t.Fatal("expected empty sequence")
		}
	}
}

func TestDemux_CountBoundsTheSequence(t *testing.T) {
	buf := []byte{0x90, 1, 2, 0x90, 3, 4, 0x90, 5, 6}
	it, err := Demux(buf, 2)
	if err != nil {
		t.Fatal(err)
	}
	got := collect(it)
	if len(got) != 2 || got[1].Data1 != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestDemux_ShortBuffer(t *testing.T) {
	_, err := Demux([]byte{0x90, 60}, 1)
	if !errors.Is(err, ErrIncompletePacket) {
		t.Fatalf("err=%v, want ErrIncompletePacket", err)
	}
	if _, err := Demux(nil, -1); !errors.Is(err, ErrIncompletePacket) {
		t.Fatalf("negative count: err=%v", err)
	}
}

func TestDemux_HugeCount(t *testing.T) {
	for _, count := range []int{math.MaxInt/RecordSize + 1, math.MaxInt, 2} {
		if _, err := Demux([]byte{0x90, 60, 100}, count); !errors.Is(err, ErrIncompletePacket) {
			t.Fatalf("count=%d: err=%v, want ErrIncompletePacket", count, err)
		}
	}
}

func TestDemux_DoesNotRetainBuffer(t *testing.T) {
	buf, count := Pack(contracts.Message{Status: 0x90, Data1: 64, Data2: 90})
	it, err := Demux(buf, count)
	if err != nil {
		t.Fatal(err)
	}
	for i := range buf {
		buf[i] = 0
	}
	m, _ := it.Next()
	if m.Status != 0x90 || m.Data1 != 64 || m.Data2 != 90 {
		t.Fatalf("message changed with buffer: %+v", m)
	}
}

func TestDemux_NotRestartable(t *testing.T) {
	buf, count := Pack(contracts.Message{Status: 0x90, Data1: 1, Data2: 1})
	it, _ := Demux(buf, count)
	collect(it)
	if _, ok := it.Next(); ok {
		t.Fatal("iterator yielded after exhaustion")
	}
}
