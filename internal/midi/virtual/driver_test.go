package virtual

import (
	"errors"
	"testing"

	"github.com/leandrodaf/midisynth/internal/packet"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

func TestDriver_SourcesAndDescribe(t *testing.T) {
	d := New()
	srcs, err := d.Sources()
	if err != nil || len(srcs) != 0 {
		t.Fatalf("empty driver: srcs=%v err=%v", srcs, err)
	}

	a := d.Add(contracts.DeviceInfo{Name: "Keys"})
	b := d.Add(contracts.DeviceInfo{Name: "Pads", Offline: true})
	srcs, _ = d.Sources()
	if len(srcs) != 2 || srcs[0] != a || srcs[1] != b {
		t.Fatalf("srcs=%v", srcs)
	}
	info, err := d.Describe(b)
	if err != nil || info.Name != "Pads" || !info.Offline {
		t.Fatalf("info=%+v err=%v", info, err)
	}

	d.Remove(a)
	srcs, _ = d.Sources()
	if len(srcs) != 1 || srcs[0] != b {
		t.Fatalf("after remove srcs=%v", srcs)
	}
	if _, err := d.Describe(a); !errors.Is(err, ErrUnknownEndpoint) {
		t.Fatalf("err=%v", err)
	}
}

func TestDriver_ListenAndStop(t *testing.T) {
	d := New()
	ep := d.Add(contracts.DeviceInfo{Name: "Keys"})

	var packets int
	stop, err := d.Listen(ep, func(buf []byte, count int) {
		if _, err := packet.Demux(buf, count); err != nil {
			t.Errorf("bad packet: %v", err)
		}
		packets++
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Send(ep, contracts.Message{Status: 0x90, Data1: 60, Data2: 1}); err != nil {
		t.Fatal(err)
	}
	if err := d.SendRaw(ep, []byte{0x80, 60}); err != nil {
		t.Fatal(err)
	}
	if err := d.SendRaw(ep, []byte{0}); err != nil {
		t.Fatal(err)
	}
	if packets != 2 {
		t.Fatalf("packets=%d, want 2", packets)
	}

	if err := stop(); err != nil {
		t.Fatal(err)
	}
	_ = stop()
	_ = d.Send(ep, contracts.Message{Status: 0x90, Data1: 61, Data2: 1})
	if packets != 2 {
		t.Fatalf("delivery after stop: packets=%d", packets)
	}
}

func TestDriver_ListenUnknownAndClosed(t *testing.T) {
	d := New()
	if _, err := d.Listen(42, func([]byte, int) {}); !errors.Is(err, ErrUnknownEndpoint) {
		t.Fatalf("err=%v", err)
	}
	ep := d.Add(contracts.DeviceInfo{})
	_ = d.Close()
	if _, err := d.Listen(ep, func([]byte, int) {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("err=%v", err)
	}
}
