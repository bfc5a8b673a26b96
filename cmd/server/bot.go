package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/rice-leaf-api/internal/telegram"
)

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Answer leaf photos sent to a Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Telegram.Token == "" {
				return errors.New("telegram.token (or TELEGRAM_TOKEN) is required")
			}

			app, classifier, err := loadApp()
			if err != nil {
				return err
			}
			defer classifier.Close()

			api, err := telegram.Connect(cfg.Telegram.Token)
			if err != nil {
				return err
			}

			bot := telegram.NewBot(api, app.Diagnosis, app.Languages, logger.With("component", "telegram"))
			return bot.Run(cmd.Context(), api)
		},
	}
}
