package midi

import (
	"errors"
	"testing"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

type recorder struct {
	msgs []contracts.Message
}

func (r *recorder) Receive(status, data1, data2 byte) {
	r.msgs = append(r.msgs, contracts.Message{Status: status, Data1: data1, Data2: data2})
}

func TestAssignProgram_Order(t *testing.T) {
	rec := &recorder{}
	if err := AssignProgram(rec, 1, 7, 121, 0); err != nil {
		t.Fatal(err)
	}
	want := []contracts.Message{
		{Status: 0xC1, Data1: 7, Data2: 0},
		{Status: 0xB1, Data1: 0, Data2: 121},
		{Status: 0xB1, Data1: 0x20, Data2: 0},
	}
	if len(rec.msgs) != len(want) {
		t.Fatalf("got %+v", rec.msgs)
	}
	for i := range want {
		if rec.msgs[i] != want[i] {
			t.Fatalf("message %d = %+v, want %+v", i, rec.msgs[i], want[i])
		}
	}
}

func TestAssignProgram_Bounds(t *testing.T) {
	tests := []struct {
		name               string
		ch, prog, msb, lsb byte
		want               error
	}{
		{"channel 15 ok", 15, 127, 127, 127, nil},
		{"channel 16", 16, 0, 0, 0, ErrInvalidChannel},
		{"program 128", 0, 128, 0, 0, ErrInvalidDataByte},
		{"bank msb 200", 0, 0, 200, 0, ErrInvalidDataByte},
		{"bank lsb 255", 0, 0, 0, 255, ErrInvalidDataByte},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			err := AssignProgram(rec, tt.ch, tt.prog, tt.msb, tt.lsb)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err=%v, want %v", err, tt.want)
			}
			if tt.want != nil && len(rec.msgs) != 0 {
				t.Fatalf("sent %d messages on invalid input", len(rec.msgs))
			}
		})
	}
}
