package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dove-unipi/dove/internal/bot"
	appLog "github.com/dove-unipi/dove/internal/log"
	"github.com/dove-unipi/dove/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the JSON API",
	Long: `Run the Telegram bot together with the HTTP server.

The bot uses long polling unless telegram.webhook_url is set, in which case
Telegram posts updates to <webhook_url>/telegram/<secret> on this server.
Without telegram.token only the JSON API is served.

The room document is reloaded on the refresh cron schedule (default every
30 minutes); with --download it is also fetched again from data.url.`,
	RunE:        runServe,
	Annotations: map[string]string{needsCalendar: "yes"},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "listen address (default server.listen from config)")
	serveCmd.Flags().Bool("download", false, "download the room document from data.url on every refresh")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := server.NewRateLimiter(0, 0)
	opts := server.Options{Lookup: svc, Limiter: limiter}

	var api *tgbotapi.BotAPI
	polling := false
	if token := cfg.Telegram.Token; token != "" {
		var err error
		api, err = tgbotapi.NewBotAPI(token)
		if err != nil {
			return fmt.Errorf("telegram login failed: %w", err)
		}
		api.Debug = cfg.Telegram.Debug
		b := bot.New(api, svc)

		webhook := ""
		if cfg.Telegram.WebhookURL != "" {
			opts.Bot = b
			opts.WebhookSecret = server.WebhookSecret(token)
			webhook = strings.TrimSuffix(cfg.Telegram.WebhookURL, "/") + server.WebhookPath(opts.WebhookSecret)
		}
		if err := bot.SetWebhook(api, webhook); err != nil {
			return fmt.Errorf("configuring telegram webhook: %w", err)
		}

		if webhook == "" {
			polling = true
			u := tgbotapi.NewUpdate(0)
			u.Timeout = 60
			go b.Run(ctx, api.GetUpdatesChan(u))
		}
		appLog.Info("telegram bot ready", "user", api.Self.UserName, "polling", polling)
	} else {
		appLog.Info("telegram.token not set, serving the JSON API only")
	}

	download, _ := cmd.Flags().GetBool("download")
	c := cron.New()
	if _, err := c.AddFunc(cfg.Refresh, func() { refresh(ctx, limiter, download) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", cfg.Refresh, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           server.New(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	appLog.Info("http server listening", "addr", cfg.Server.Listen)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	appLog.Info("shutting down")
	if polling {
		api.StopReceivingUpdates()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// refresh runs on the cron schedule: reload the room document and drop
// expired days and idle rate-limit buckets.
func refresh(ctx context.Context, limiter *server.RateLimiter, download bool) {
	if download {
		if err := downloadDocument(ctx, cfg.Data.URL, cfg.Data.Document); err != nil {
			appLog.Error("refreshing room document", err, "url", cfg.Data.URL)
		}
	}
	docs.Invalidate()
	rooms := len(svc.Directory().CampusRooms(""))

	appLog.Debug("refresh done",
		"rooms", rooms,
		"days_purged", store.Purge(),
		"buckets_swept", limiter.Sweep())
}
