package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/capazme/lexspace/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:           "lexspace",
		Short:         "Legal research workspace over a VisuaLex-compatible backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, _ := cmd.Flags().GetString("env")
			return runServe(env)
		},
	}
	serve.Flags().String("env", "", "config environment (default: ENV variable or \"local\")")

	ver := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lexspace %s (%s)\n", version.Version, version.Commit)
		},
	}

	root.AddCommand(serve, ver)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
