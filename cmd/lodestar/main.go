package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lodestar-vc/lodestar/internal/repository"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
)

func main() {
	root := &cobra.Command{
		Use:           "lodestar",
		Short:         "A content-addressed version control system",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInitCmd(),
		newSaveCmd(),
		newRemoteCmd(),
		newLsRemoteCmd(),
		newFetchCmd(),
		newServeCmd(),
	)

	if err := root.Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openRepo locates and opens the repository enclosing the working directory
func openRepo() (*repository.Repository, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	rootPath, err := repository.FindRoot(wd)
	if err != nil {
		return nil, err
	}

	return repository.Open(rootPath)
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize a new repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}

			repo, err := repository.Init(path)
			if err != nil {
				return err
			}

			successColor.Printf("Initialized empty repository in %s\n", repo.LdsPath())
			return nil
		},
	}
}

func newSaveCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "save [files...]",
		Short: "Record a snapshot of the working directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}

			hash, err := repo.Save(args, message)
			if err != nil {
				return err
			}

			branch, err := repo.GetCurrentBranch()
			if err != nil {
				branch = "HEAD"
			}

			successColor.Printf("[%s %s] %s\n", branch, hash.Short(), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.MarkFlagRequired("message")

	return cmd
}
