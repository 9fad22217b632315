package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

func TestLoad_Basics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "midisynth.yaml")
	data := []byte(`
soundfont: /tmp/GeneralUser.sf2
sample_rate: 48000
reverb: true
buffer: 20ms
log_level: debug
channel: 1
program: 7
bank_msb: 121
sources:
  - keystation
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f.SoundFont != "/tmp/GeneralUser.sf2" || f.SampleRate != 48000 || !f.Reverb {
		t.Fatalf("synth settings: %+v", f)
	}
	if f.BlockSize != 512 || f.Polyphony != 64 {
		t.Fatalf("defaults lost: %+v", f)
	}
	if f.Channel != 1 || f.Program != 7 || f.BankMSB != 121 || f.BankLSB != 0 {
		t.Fatalf("program settings: %+v", f)
	}

	var opts contracts.ClientOptions
	for _, o := range f.Options() {
		o(&opts)
	}
	if opts.LogLevel != contracts.DebugLevel {
		t.Fatalf("log level=%v", opts.LogLevel)
	}
	if opts.SynthConfig.BufferSize.Milliseconds() != 20 {
		t.Fatalf("buffer=%v", opts.SynthConfig.BufferSize)
	}
	if p := opts.Program; p.Channel != 1 || p.Program != 7 || p.BankMSB != 121 {
		t.Fatalf("program=%+v", p)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"channel":   "channel: 16\n",
		"program":   "program: 128\n",
		"bank":      "bank_lsb: -1\n",
		"buffer":    "buffer: soon\n",
		"log level": "log_level: loud\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err=%v, want ErrInvalid", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "midisynth.yaml")
	f := Default()
	f.SoundFont = "a.sf2"
	f.Sources = []string{"pads"}
	if err := Save(path, f); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SoundFont != "a.sf2" || len(got.Sources) != 1 || got.Sources[0] != "pads" {
		t.Fatalf("got %+v", got)
	}
}

func TestMatchSource(t *testing.T) {
	f := Default()
	if !f.MatchSource(contracts.DeviceInfo{Name: "anything"}) {
		t.Fatal("empty filter must match")
	}
	f.Sources = []string{"KeyStation"}
	if !f.MatchSource(contracts.DeviceInfo{Name: "Keystation 49 MK3"}) {
		t.Fatal("case-insensitive substring should match")
	}
	if f.MatchSource(contracts.DeviceInfo{Name: "nanoPAD"}) {
		t.Fatal("unexpected match")
	}
}
