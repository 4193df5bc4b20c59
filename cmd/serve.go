package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetpulse/internal/bot"
)

var (
	serveWebhookURL string
	serveListen     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Run the Telegram bot. Updates are received by long polling unless a webhook URL
is configured (webhook_url or --webhook-url), in which case an HTTP server listens on
webhook_listen and also answers GET /healthz.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, log, err := setup(ctx, os.Stdout)
		if err != nil {
			return err
		}
		if cfg.TelegramToken == "" {
			return errors.New("telegram_token is not set (config, SHEETPULSE_TELEGRAM_TOKEN or TELEGRAM_BOT_TOKEN)")
		}
		if cmd.Flags().Changed("webhook-url") {
			cfg.WebhookURL = serveWebhookURL
		}
		if cmd.Flags().Changed("listen") {
			cfg.WebhookListen = serveListen
		}

		api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("connect to telegram: %w", err)
		}
		api.Debug = debug
		log.WithField("bot", api.Self.UserName).Info("authorized")

		b := bot.New(api, p,
			bot.WithLogger(log),
			bot.WithSendRate(cfg.SendRatePerSec),
			bot.WithExportFormat(p.Config().ExportFormat),
		)
		if cfg.WebhookURL != "" {
			fmt.Printf("✓ Serving webhook on %s\n", cfg.WebhookListen)
			return b.ServeWebhook(ctx, api, cfg.WebhookURL, cfg.WebhookListen)
		}
		// A registered webhook blocks getUpdates.
		if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: failed to delete webhook: %v\n", err)
		}
		fmt.Println("✓ Bot started (long polling). Press Ctrl+C to stop.")
		return b.Poll(ctx, api)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveWebhookURL, "webhook-url", "", "public https URL Telegram posts updates to (overrides config)")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address the webhook server listens on (overrides config)")
}
