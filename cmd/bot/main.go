package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env необязателен; переменные окружения важнее
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "crm-bot",
		Short:         "Telegram CRM bot for leads and tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}
	rootCmd.AddCommand(newProfileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
