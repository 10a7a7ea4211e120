package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lodestar-vc/lodestar/internal/remote"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage the set of tracked remotes",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name> <url>",
			Short: "Add a remote",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, err := openRepo()
				if err != nil {
					return err
				}

				if err := remote.AddRemote(repo.Root, args[0], args[1]); err != nil {
					return err
				}

				successColor.Printf("Added remote %s (%s)\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a remote",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, err := openRepo()
				if err != nil {
					return err
				}

				if err := remote.RemoveRemote(repo.Root, args[0]); err != nil {
					return err
				}

				successColor.Printf("Removed remote %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List configured remotes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, err := openRepo()
				if err != nil {
					return err
				}

				remotes, err := remote.ListRemotes(repo.Root)
				if err != nil {
					return err
				}

				for _, r := range remotes {
					fmt.Printf("%s\t%s\n", r.Name, r.URL)
				}
				return nil
			},
		},
	)

	return cmd
}
