// Command midisynth plays every connected MIDI input through a SoundFont
// synthesizer on the default audio output.
//
// Usage:
//
//	midisynth [--config file] [run] [--soundfont file.sf2] [--virtual]
//	midisynth sources
//	midisynth config init|show
package main

import (
	"fmt"
	"os"

	"github.com/leandrodaf/midisynth/cmd/midisynth/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
