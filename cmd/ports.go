package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Lists MIDI ports",
	Long:  `Lists the available MIDI input and output ports with the indexes used by 'solobass live'.`,
	Run: func(cmd *cobra.Command, args []string) {
		defer gomidi.CloseDriver()

		fmt.Println("Input ports:")
		for i, in := range gomidi.GetInPorts() {
			fmt.Printf("  %d: %s\n", i, in.String())
		}
		fmt.Println("Output ports:")
		for i, out := range gomidi.GetOutPorts() {
			fmt.Printf("  %d: %s\n", i, out.String())
		}
	},
}
