package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/leandrodaf/midisynth/sdk/midi"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available MIDI input sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		router, err := midi.NewRouter(cfg.Options()...)
		if err != nil {
			return err
		}
		defer router.Stop()

		eps, err := router.Sources()
		if err != nil {
			return err
		}
		if len(eps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no MIDI sources)")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ENDPOINT\tNAME\tMANUFACTURER\tENTITY\tSTATUS\tSELECTED")
		for _, ep := range eps {
			info, err := router.Describe(ep)
			if err != nil {
				fmt.Fprintf(w, "%d\t?\t\t\t\t\n", ep)
				continue
			}
			status := "online"
			if info.Offline {
				status = "offline"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n",
				ep, info.Name, info.Manufacturer, info.EntityName, status, cfg.MatchSource(info))
		}
		return w.Flush()
	},
}
