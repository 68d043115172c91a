package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "orders-service",
	Short: "Bakery order management service",
	Long: `Order service for the bakehouse: order records, derived pending and
delivered views, two-tap delivery confirmation and the delivered-order
search index.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}
