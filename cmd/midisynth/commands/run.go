package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/leandrodaf/midisynth/internal/midi/virtual"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"github.com/leandrodaf/midisynth/sdk/midi"
	"github.com/spf13/cobra"
)

var (
	soundFont   string
	useVirtual  bool
	demoTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the synthesizer and connect all MIDI sources (default)",
	RunE:  runSynth,
}

func init() {
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&soundFont, "soundfont", "", "SoundFont (.sf2) file, overrides the config")
	cmd.Flags().BoolVar(&useVirtual, "virtual", false, "use an in-process source that plays a demo phrase")
	cmd.Flags().DurationVar(&demoTimeout, "demo-timeout", 0, "exit after this long (0 waits for a signal)")
}

func runSynth(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := cfg.Options()
	var demo *virtual.Driver
	var demoEP contracts.Endpoint
	if useVirtual {
		demo = virtual.New()
		demoEP = demo.Add(contracts.DeviceInfo{Name: "Virtual Keyboard", Manufacturer: appName})
		opts = append(opts, contracts.WithDriver(demo))
	}

	router, err := midi.NewRouter(opts...)
	if err != nil {
		return err
	}
	defer router.Stop()

	recv := router.Start()
	if err := router.GraphErr(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: audio output unavailable, running silent: %v\n", err)
	}

	conns, err := router.ConnectAll(recv, cfg.MatchSource)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connected %d MIDI source(s). Press Ctrl+C to exit.\n", len(conns))

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if demoTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, demoTimeout)
		defer cancelTimeout()
	}

	if demo != nil {
		go playDemo(ctx, demo, demoEP, byte(cfg.Channel))
	}

	<-ctx.Done()
	return router.Stop()
}

// playDemo sends a C major arpeggio through the virtual source.
func playDemo(ctx context.Context, d *virtual.Driver, ep contracts.Endpoint, channel byte) {
	notes := []byte{60, 64, 67, 72}
	for _, n := range notes {
		_ = d.Send(ep, contracts.Message{Status: byte(contracts.NoteOn) | channel, Data1: n, Data2: 100})
		select {
		case <-ctx.Done():
			return
		case <-time.After(300 * time.Millisecond):
		}
		_ = d.Send(ep, contracts.Message{Status: byte(contracts.NoteOff) | channel, Data1: n})
	}
}
