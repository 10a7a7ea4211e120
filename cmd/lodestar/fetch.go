package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lodestar-vc/lodestar/internal/auth"
	"github.com/lodestar-vc/lodestar/internal/protocol"
	"github.com/lodestar-vc/lodestar/internal/remote"
	"github.com/lodestar-vc/lodestar/internal/transfer"
)

// newAuthenticator picks credentials from the environment; a token beats
// basic auth, absence means anonymous
func newAuthenticator() auth.Authenticator {
	if token := os.Getenv("LODESTAR_TOKEN"); token != "" {
		return &auth.TokenAuth{Token: token}
	}
	if user := os.Getenv("LODESTAR_USER"); user != "" {
		return &auth.BasicAuth{
			Username: user,
			Password: os.Getenv("LODESTAR_PASSWORD"),
		}
	}
	return &auth.NoneAuth{}
}

func newLsRemoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls-remote <remote>",
		Short: "List references advertised by a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}

			rem, err := remote.GetRemote(repo.Root, args[0])
			if err != nil {
				return err
			}

			client := protocol.NewClient(rem.FetchURL, newAuthenticator())
			heads, err := client.ListRefs()
			if err != nil {
				return err
			}

			for _, head := range heads {
				fmt.Printf("%s\t%s\n", head.RemoteOID, head.Name)
			}
			return nil
		},
	}
}

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <remote>",
		Short: "Download new history from a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}

			rem, err := remote.GetRemote(repo.Root, args[0])
			if err != nil {
				return err
			}

			spec, err := rem.FetchRefspec()
			if err != nil {
				return err
			}

			client := protocol.NewClient(rem.FetchURL, newAuthenticator())
			wants, err := transfer.Fetch(repo, rem, client)
			if err != nil {
				return err
			}

			if len(wants) == 0 {
				infoColor.Println("Already up to date")
				return nil
			}

			infoColor.Printf("From %s\n", rem.FetchURL)
			for _, head := range wants {
				local, err := spec.Transform(head.Name)
				if err != nil {
					return err
				}
				if head.HasLocal {
					fmt.Printf("  %s..%s  %s -> %s\n",
						head.LocalOID.Short(), head.RemoteOID.Short(), head.Name, local)
				} else {
					fmt.Printf("  * [new] %s  %s -> %s\n",
						head.RemoteOID.Short(), head.Name, local)
				}
			}
			return nil
		},
	}
}
