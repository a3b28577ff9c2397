package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "recipe-admin",
		Short:         "Admin gateway for the recipe platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), routesCmd(), hashCmd())
	// Bare invocation serves, matching how the container runs it.
	root.RunE = serveCmd().RunE

	if err := root.Execute(); err != nil {
		log.Printf("recipe-admin: %v", err)
		os.Exit(1)
	}
}
