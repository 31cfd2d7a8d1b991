package cmd

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hitoshitoshi/SoloBass/ai"
	"github.com/hitoshitoshi/SoloBass/constants"
	"github.com/hitoshitoshi/SoloBass/pitch"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8808", "listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs a stub model server",
	Long:  `Serves the model contract with a uniform stub, for running the pipeline without the trained model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bassEnc, err := pitch.NewEncoder(pitch.Range{Low: constants.BassLowestPitch, High: constants.BassHighestPitch})
		if err != nil {
			return err
		}
		srv := ai.NewServer(ai.NewStub(bassEnc.VocabSize()))
		log.Infof("Stub model server listening on %v", serveAddr)
		return http.ListenAndServe(serveAddr, srv.Handler())
	},
}
