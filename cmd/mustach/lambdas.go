package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// lambdasCmd is the parent command for lambda introspection. Lambdas
// are Go closures bound at library-embedding time (spec.md §4.7), so
// there is nothing for a standalone CLI process to bind on its own —
// this exists to document the namespace and give embedders a place to
// hang a "list what I bound" subcommand if they wire mustach into
// their own cobra tree.
var lambdasCmd = &cobra.Command{
	Use:   "lambdas",
	Short: "Describe the lambda registry namespace",
	Long: `Lambdas are Go closures registered via lambda.Registry.Bind, invoked
when the dialect encounters the "(=>)" sentinel string under a bound
name (spec.md §3, §4.7). A standalone CLI process has no lambdas of
its own to list; this subcommand exists for embedders that wire
mustach's registry into their own process and want a uniform
'lambdas list' entry point, by calling Registry.Lambdas.Names().`,
}

func init() {
	lambdasCmd.AddCommand(lambdasListCmd)
}

var lambdasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lambda names (none, outside of an embedding host)",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("No lambdas registered. The CLI renders templates standalone;")
		fmt.Println("lambdas are bound programmatically by a host embedding package mustach.")
		return nil
	},
}
