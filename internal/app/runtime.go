// Package app wires configuration into sources, channels and pollers.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amishk599/jobdigest/internal/adapter"
	"github.com/amishk599/jobdigest/internal/browser"
	"github.com/amishk599/jobdigest/internal/config"
	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/filter"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/notifier"
	"github.com/amishk599/jobdigest/internal/poller"
	"github.com/amishk599/jobdigest/internal/ratelimit"
	"github.com/amishk599/jobdigest/internal/store"
)

// Bot API allows about 30 messages per second across all chats.
const telegramGlobalPerSecond = 30

// Options tune how a Runtime is opened.
type Options struct {
	// DryRun logs digests instead of sending them and records nothing.
	DryRun bool
	// EnvFile is loaded into the environment before secrets are read.
	EnvFile string
	// TelegramEndpoint overrides the Bot API endpoint ("https://host/bot%s/%s").
	TelegramEndpoint string
	// HTTPClient is used for Bot API calls. When nil a client bounded by the
	// configured http_timeout is used.
	HTTPClient *http.Client
}

// Runtime is the process-wide state shared by every source run: the
// configuration, the message ledger and one resolved channel per chat.
type Runtime struct {
	Config  *config.Config
	Sources []config.SourceConfig

	logger   *slog.Logger
	ledger   model.MessageLedger
	closers  []func() error
	channels map[string]model.Channel // by source name
	launch   func() (browser.Renderer, error)
}

// Open validates credentials and resolves every destination chat of sources.
// Any failure is returned as a *model.StartupError and nothing has been
// fetched yet.
func Open(cfg *config.Config, sources []config.SourceConfig, opts Options, logger *slog.Logger) (*Runtime, error) {
	if len(sources) == 0 {
		return nil, &model.StartupError{Err: fmt.Errorf("no sources selected")}
	}

	secrets, err := config.LoadSecrets(opts.EnvFile)
	if err != nil {
		return nil, &model.StartupError{Err: err}
	}

	rt := &Runtime{
		Config:   cfg,
		Sources:  sources,
		logger:   logger,
		channels: make(map[string]model.Channel, len(sources)),
		launch:   BrowserLauncher(cfg),
	}

	if opts.DryRun {
		logger.Info("dry-run mode enabled, digests are logged and nothing is recorded")
		rt.ledger = store.NewNopLedger()
		for _, s := range sources {
			rt.channels[s.Name] = notifier.NewLogChannel(s.Name, logger)
		}
		return rt, nil
	}

	if err := cfg.ApplySecrets(secrets); err != nil {
		return nil, &model.StartupError{Err: err}
	}

	ledger, err := store.NewSQLiteLedger(cfg.LedgerPath)
	if err != nil {
		return nil, &model.StartupError{Err: fmt.Errorf("opening message ledger: %w", err)}
	}
	rt.ledger = ledger
	rt.closers = append(rt.closers, ledger.Close)

	if err := rt.setupChannels(secrets.TelegramBotToken, opts); err != nil {
		rt.Close()
		return nil, &model.StartupError{Err: err}
	}
	return rt, nil
}

func (rt *Runtime) setupChannels(token string, opts Options) error {
	cfg := rt.Config
	if cfg.Notification.Type == config.NotifyLog {
		for _, s := range rt.Sources {
			rt.channels[s.Name] = notifier.NewLogChannel(s.Name, rt.logger)
		}
		return nil
	}

	endpoint := opts.TelegramEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client, err := notifier.NewTelegramClientWithEndpoint(token, endpoint, botHTTPClient(opts, cfg), rt.logger)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewChannelLimiter(cfg.Notification.MinInterval, telegramGlobalPerSecond)
	byChat := make(map[string]model.Channel)
	for _, s := range rt.Sources {
		chatID := cfg.ChatIDFor(s)
		ch, ok := byChat[chatID]
		if !ok {
			tc, err := client.Channel(chatID)
			if err != nil {
				return fmt.Errorf("source %s: %w", s.Name, err)
			}
			rt.logger.Info("telegram channel resolved", "source", s.Name, "chat", tc.Title())
			ch = ratelimit.NewLimitedChannel(tc, limiter, chatID)
			byChat[chatID] = ch
		}
		rt.channels[s.Name] = ch
	}
	return nil
}

func botHTTPClient(opts Options, cfg *config.Config) *http.Client {
	if opts.HTTPClient != nil {
		return opts.HTTPClient
	}
	return &http.Client{Timeout: cfg.HTTPTimeout}
}

// Channel returns the resolved channel of a source.
func (rt *Runtime) Channel(source string) (model.Channel, bool) {
	ch, ok := rt.channels[source]
	return ch, ok
}

// Pollers builds one poller per selected source.
func (rt *Runtime) Pollers() ([]*poller.SourcePoller, error) {
	cfg := rt.Config
	pollers := make([]*poller.SourcePoller, 0, len(rt.Sources))
	for _, sc := range rt.Sources {
		src, renderer, err := NewSource(sc, cfg, rt.launch)
		if err != nil {
			return nil, err
		}
		kf := filter.NewKeywordFilter(sc.Keywords)
		p := poller.NewSourcePoller(
			src,
			kf,
			renderer,
			rt.channels[sc.Name],
			rt.ledger,
			poller.Settings{
				MaxPages:       sc.MaxPages,
				InterPageDelay: cfg.InterPageDelay,
				BatchSize:      cfg.JobsPerMessage,
				Retention:      cfg.Retention,
			},
			rt.logger,
		)
		pollers = append(pollers, p)
		rt.logger.Info("registered source",
			"source", sc.Name,
			"provider", sc.Provider,
			"max_pages", sc.MaxPages,
			"keywords", strings.Join(kf.Keywords(), ","),
		)
	}
	return pollers, nil
}

// Close releases the ledger.
func (rt *Runtime) Close() error {
	var firstErr error
	for _, c := range rt.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	rt.closers = nil
	return firstErr
}

// BrowserLauncher returns a factory that starts a Chromium configured by cfg.
func BrowserLauncher(cfg *config.Config) func() (browser.Renderer, error) {
	return func() (browser.Renderer, error) {
		return browser.Launch(browser.Options{
			Headless:          cfg.Browser.Headless,
			NavigationTimeout: cfg.HTTPTimeout,
		})
	}
}

// NewSource creates the source for sc along with the renderer for its
// digests. Each call gets its own HTTP session; browser-rendered sources
// launch a browser through launch on their first fetch.
func NewSource(sc config.SourceConfig, cfg *config.Config, launch func() (browser.Renderer, error)) (model.Source, digest.Renderer, error) {
	switch sc.Provider {
	case config.Provider104:
		src := adapter.NewJob104Adapter(sc.Name, sc.URL, sc.Params, sc.Headers, adapter.NewSessionClient(cfg.HTTPTimeout))
		return src, renderer(sc, "104", digest.Layout{Location: true}), nil
	case config.ProviderCake:
		src := adapter.NewCakeAdapter(sc.Name, sc.URL, sc.BaseURL, sc.Params, sc.Headers, adapter.NewSessionClient(cfg.HTTPTimeout))
		return src, renderer(sc, "", digest.Layout{URL: true}), nil
	case config.ProviderYourator:
		src := adapter.NewYouratorAdapter(sc.Name, sc.URL, sc.BaseURL, sc.Params, launch, cfg.Browser.WaitTimeout)
		return src, renderer(sc, "Yourator", digest.Layout{Location: true}), nil
	default:
		return nil, digest.Renderer{}, fmt.Errorf("source %s: unsupported provider %q", sc.Name, sc.Provider)
	}
}

func renderer(sc config.SourceConfig, defaultLabel string, layout digest.Layout) digest.Renderer {
	label := sc.Label
	if label == "" {
		label = defaultLabel
	}
	return digest.Renderer{Label: label, Layout: layout}
}
