package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"github.com/hitoshitoshi/SoloBass/ai"
	"github.com/hitoshitoshi/SoloBass/constants"
	"github.com/hitoshitoshi/SoloBass/engine"
	"github.com/hitoshitoshi/SoloBass/pitch"
	"github.com/hitoshitoshi/SoloBass/quantize"
	"github.com/hitoshitoshi/SoloBass/runner"
	"github.com/hitoshitoshi/SoloBass/synth"
)

var (
	liveTemperature float64
	liveWeights     string
	liveServer      string
	liveMidiPort    int
	liveOutPort     int
	liveSoundfont   string
	liveBPM         float64
)

func init() {
	liveCmd.Flags().Float64Var(&liveTemperature, "temperature", 1.0, "sampling temperature, must be > 0")
	liveCmd.Flags().StringVar(&liveWeights, "weights", constants.GetWeightsPath(), "model weights path (local or s3://)")
	liveCmd.Flags().StringVar(&liveServer, "server", constants.GetModelServerAddr(), "model server address")
	liveCmd.Flags().IntVar(&liveMidiPort, "midi-port", 0, "MIDI input port index, see 'solobass ports'")
	liveCmd.Flags().IntVar(&liveOutPort, "out-port", -1, "MIDI output port index; when set, plays there instead of fluidsynth")
	liveCmd.Flags().StringVar(&liveSoundfont, "soundfont", constants.GetSoundfontPath(), "soundfont for fluidsynth output")
	liveCmd.Flags().Float64Var(&liveBPM, "bpm", constants.DefaultBPM, "tempo of the generation grid")
	rootCmd.AddCommand(liveCmd)
}

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Plays bass along with a live MIDI controller",
	Long:  `Listens to guitar chords on a MIDI input port and plays a generated bass line in real time, one note per grid step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer gomidi.CloseDriver()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		weights, err := ai.ResolveWeights(liveWeights)
		if err != nil {
			return err
		}
		client := ai.NewClient(liveServer)
		defer client.Close()
		if err := client.Load(ctx, weights); err != nil {
			return err
		}

		bassEnc, err := pitch.NewEncoder(pitch.Range{Low: constants.BassLowestPitch, High: constants.BassHighestPitch})
		if err != nil {
			return err
		}
		guitarEnc, err := pitch.NewEncoder(pitch.Range{Low: constants.GuitarLowestPitch, High: constants.GuitarHighestPitch})
		if err != nil {
			return err
		}

		var out synth.Synth
		if liveOutPort >= 0 {
			out, err = synth.NewMidiPort(liveOutPort, constants.BassChannel)
		} else {
			out, err = synth.NewFluidSynth(liveSoundfont)
		}
		if err != nil {
			return err
		}
		defer out.Close()

		eng, err := engine.New(client, liveTemperature, bassEnc.Rest())
		if err != nil {
			return err
		}

		g := quantize.Grid{BPM: liveBPM, StepsPerQuarter: constants.StepsPerQuarter}
		rt := runner.NewRealTime(eng, bassEnc, guitarEnc, g, out)
		return rt.Run(ctx, liveMidiPort)
	},
}
