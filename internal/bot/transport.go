package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Poller receives updates by long polling. *tgbotapi.BotAPI satisfies it.
type Poller interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Requester performs non-message API calls. *tgbotapi.BotAPI satisfies it.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Poll handles updates until ctx is cancelled or the update channel closes.
// Each update runs on its own goroutine; Poll waits for them before returning.
func (b *Bot) Poll(ctx context.Context, api Poller) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	var wg sync.WaitGroup
	defer wg.Wait()
	b.log.Info("polling for updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// Router serves the webhook endpoint at path and a health check at /healthz.
// Updates are acknowledged immediately and handled in the background under ctx.
func (b *Bot) Router(ctx context.Context, path string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Post(path, func(w http.ResponseWriter, req *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20)).Decode(&update); err != nil {
			b.log.WithError(err).Warn("invalid webhook payload")
			http.Error(w, "invalid update", http.StatusBadRequest)
			return
		}
		go b.HandleUpdate(ctx, update)
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// WebhookPath returns the path component of a webhook URL.
func WebhookPath(webhookURL string) (string, error) {
	u, err := url.Parse(webhookURL)
	if err != nil {
		return "", fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Scheme != "https" {
		return "", fmt.Errorf("webhook url must use https: %s", webhookURL)
	}
	if u.Path == "" {
		return "/", nil
	}
	return u.Path, nil
}

// ServeWebhook registers webhookURL with Telegram and serves updates on listen
// until ctx is cancelled.
func (b *Bot) ServeWebhook(ctx context.Context, api Requester, webhookURL, listen string) error {
	path, err := WebhookPath(webhookURL)
	if err != nil {
		return err
	}
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("webhook config: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           b.Router(ctx, path),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	b.log.WithFields(logrus.Fields{"listen": listen, "path": path}).Info("serving webhook")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook server: %w", err)
	}
	return nil
}
