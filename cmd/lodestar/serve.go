package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/lodestar-vc/lodestar/internal/auth"
	"github.com/lodestar-vc/lodestar/internal/protocol"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the repository over HTTP for fetching clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}

			var verifier auth.Verifier = &auth.NoneVerifier{}
			if token := os.Getenv("LODESTAR_SERVE_TOKEN"); token != "" {
				verifier = &auth.TokenVerifier{Token: token}
			}

			server := protocol.NewServer(repo.Store(), repo, verifier)

			infoColor.Printf("Serving %s on %s\n", repo.Root, addr)
			return http.ListenAndServe(addr, server)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":7420", "listen address")

	return cmd
}
