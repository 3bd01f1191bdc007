// Command notifier runs the supplement cycle reminder service.
package main

import (
	"fmt"
	"os"

	_ "time/tzdata" // IANA zones even on hosts without a zoneinfo database

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Supplement cycle tracker and reminder service",
	Long: `notifier tracks on/off supplement cycles and remaining supply.

It sends an e-mail and Telegram message the evening before a cycle
switches phase, and answers /summary requests from linked Telegram chats.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runOnceCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(supplementCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
