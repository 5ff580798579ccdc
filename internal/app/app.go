// Package app assembles the bridge: settings, logging, the background
// queue, the service client, and the event orchestrators, wired to a
// dispatcher the host editor drives.
package app

import (
	"context"
	"io"
	"time"

	"github.com/dshills/codelens/internal/config"
	"github.com/dshills/codelens/internal/intel"
	"github.com/dshills/codelens/internal/task"
)

// Options configure app construction.
type Options struct {
	// ConfigPath is the settings TOML file; empty uses defaults.
	ConfigPath string

	// ServiceURL overrides the configured service URL when non-empty.
	ServiceURL string

	// LogLevel overrides the configured log level when non-empty.
	LogLevel string

	// LogOutput overrides the log destination (tests); nil means stderr.
	LogOutput io.Writer

	// Opener handles popup navigation; nil ignores navigation.
	Opener intel.LinkOpener
}

// App owns one instance of every orchestrator, constructed at startup and
// torn down at shutdown. No process-wide singletons.
type App struct {
	log   *Logger
	store *config.Store

	client *intel.Client
	queue  *task.Queue

	dispatcher  *intel.Dispatcher
	completions *intel.Completions
	signatures  *intel.Signatures
	hover       *intel.Hover
	status      *intel.Status

	sub        *config.Subscription
	watchStop  context.CancelFunc
	configPath string

	// opener is non-nil when navigation is forwarded over the stream.
	opener *streamOpener
}

// New builds a fully wired App.
func New(opts Options) (*App, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.ServiceURL != "" {
		settings.ServiceURL = opts.ServiceURL
	}
	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}

	log := NewLogger(LoggerConfig{
		Level:  ParseLogLevel(settings.LogLevel),
		Output: opts.LogOutput,
		Prefix: "codelens",
	})

	store := config.NewStore(settings)

	client := intel.NewClient(intel.ClientConfig{
		BaseURL: settings.ServiceURL,
		Timeout: time.Duration(settings.RequestTimeoutMS) * time.Millisecond,
	})

	queue := task.New(task.WithPanicHandler(func(id, name string, v any, stack []byte) {
		log.Error("task %s (%s) panicked: %v\n%s", name, id, v, stack)
	}))
	if err := queue.Start(); err != nil {
		return nil, err
	}

	iopts := intel.Options{
		Editor:    settings.Editor,
		SizeLimit: settings.MaxFileSize,
	}

	opener := opts.Opener
	var forwarding *streamOpener
	if opener == nil {
		forwarding = &streamOpener{}
		opener = forwarding
	}

	completions := intel.NewCompletions(client, queue, withLogger(iopts, log.WithComponent("completions")))
	signatures := intel.NewSignatures(client, queue, store, opener, withLogger(iopts, log.WithComponent("signatures")))
	hover := intel.NewHover(client, queue, opener, withLogger(iopts, log.WithComponent("hover")))
	status := intel.NewStatus(client, queue, withLogger(iopts, log.WithComponent("status")))
	recorder := intel.NewRecorder(client, queue, withLogger(iopts, log.WithComponent("recorder")))
	watcher := intel.NewWatcher(completions, signatures, withLogger(iopts, log.WithComponent("watcher")))

	dispatcher := intel.NewDispatcher(log.WithComponent("dispatcher"))
	dispatcher.Register(recorder)
	dispatcher.Register(watcher)
	dispatcher.Register(status)
	dispatcher.Register(hover)

	a := &App{
		log:         log,
		store:       store,
		client:      client,
		queue:       queue,
		dispatcher:  dispatcher,
		completions: completions,
		signatures:  signatures,
		hover:       hover,
		status:      status,
		configPath:  opts.ConfigPath,
		opener:      forwarding,
	}

	// Settings-driven re-render: flipping either display toggle (or a file
	// reload) re-renders the active signature popup without a new fetch.
	a.sub = store.Subscribe(func(ch config.Change) {
		switch {
		case ch.Type == config.ChangeReload:
			signatures.Rerender()
		case ch.Key == config.KeyShowPopularPatterns, ch.Key == config.KeyShowKeywordArguments:
			signatures.Rerender()
		}
	})

	return a, nil
}

func withLogger(opts intel.Options, log *Logger) intel.Options {
	opts.Logger = log
	return opts
}

// Dispatcher returns the event router the host editor drives.
func (a *App) Dispatcher() *intel.Dispatcher { return a.dispatcher }

// Completions returns the completions orchestrator, for the editor's
// native completion re-query path.
func (a *App) Completions() *intel.Completions { return a.completions }

// Signatures returns the signatures orchestrator.
func (a *App) Signatures() *intel.Signatures { return a.signatures }

// Store returns the live settings store.
func (a *App) Store() *config.Store { return a.store }

// Logger returns the application logger.
func (a *App) Logger() *Logger { return a.log }

// TogglePopularPatterns flips the popular-patterns display setting. The
// store observer re-renders the active popup.
func (a *App) TogglePopularPatterns() {
	a.store.SetShowPopularPatterns(!a.store.ShowPopularPatterns())
}

// ToggleKeywordArguments flips the keyword-arguments display setting.
func (a *App) ToggleKeywordArguments() {
	a.store.SetShowKeywordArguments(!a.store.ShowKeywordArguments())
}

// WatchConfig starts live reload of the settings file. No-op without a
// configured path.
func (a *App) WatchConfig(ctx context.Context) {
	if a.configPath == "" {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	a.watchStop = cancel

	watcher := config.NewWatcher(a.store, a.configPath, func(err error) {
		a.log.Warn("config reload failed: %v", err)
	})
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn("config watcher stopped: %v", err)
		}
	}()
}

// Shutdown tears the app down: stops watching, drains the queue, and
// closes the client.
func (a *App) Shutdown() {
	if a.watchStop != nil {
		a.watchStop()
	}
	if a.sub != nil {
		a.sub.Unsubscribe()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.queue.Stop(ctx); err != nil {
		a.log.Warn("queue shutdown: %v", err)
	}

	a.client.Close()
}
