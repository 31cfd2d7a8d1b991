package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hitoshitoshi/SoloBass/ai"
	"github.com/hitoshitoshi/SoloBass/constants"
	"github.com/hitoshitoshi/SoloBass/runner"
)

var (
	generateTemperature float64
	generateWeights     string
	generateServer      string
)

func init() {
	generateCmd.Flags().Float64Var(&generateTemperature, "temperature", 1.0, "sampling temperature, must be > 0")
	generateCmd.Flags().StringVar(&generateWeights, "weights", constants.GetWeightsPath(), "model weights path (local or s3://)")
	generateCmd.Flags().StringVar(&generateServer, "server", constants.GetModelServerAddr(), "model server address")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate IN.mid OUT.mid",
	Short: "Generates a bass track for a MIDI file",
	Long:  `Reads the guitar chords of IN.mid, generates a bass line over them, and writes OUT.mid with the original tracks plus the generated bass.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		weights, err := ai.ResolveWeights(generateWeights)
		if err != nil {
			return err
		}
		client := ai.NewClient(generateServer)
		defer client.Close()
		if err := client.Load(ctx, weights); err != nil {
			return err
		}

		return runner.GenerateFile(ctx, client, generateTemperature, args[0], args[1])
	},
}
