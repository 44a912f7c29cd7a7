package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mibandtool/wftool/internal/config"
	"github.com/mibandtool/wftool/internal/crypto"
	"github.com/mibandtool/wftool/internal/logging"
	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/render"
	"github.com/mibandtool/wftool/internal/service"
	"github.com/mibandtool/wftool/internal/storage"
	"github.com/mibandtool/wftool/internal/storage/bolt"
	"github.com/mibandtool/wftool/internal/wfclient"
)

// notifier forwards service notifications to whatever surface is active:
// stderr for one-shot commands, the status line while browsing.
type notifier struct {
	mu       sync.Mutex
	target   service.Notifier
	notified bool
}

func (n *notifier) Notify(msg string) {
	n.mu.Lock()
	t := n.target
	n.notified = true
	n.mu.Unlock()
	if t != nil {
		t.Notify(msg)
	}
}

// told reports whether the user has already been shown a message.
func (n *notifier) told() bool {
	if n == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notified
}

func (n *notifier) set(t service.Notifier) {
	n.mu.Lock()
	n.target = t
	n.mu.Unlock()
}

func writerNotifier(w io.Writer) service.Notifier {
	return service.NotifierFunc(func(msg string) { fmt.Fprintln(w, msg) })
}

// app holds the services of one command invocation.
type app struct {
	cfg      *config.Config
	logs     *logging.Result
	logger   zerolog.Logger
	notifier *notifier
	store    storage.Store
	client   *wfclient.Client

	listing    *service.ListingService
	devices    *service.DeviceService
	sessions   *service.SessionService
	comments   *service.CommentService
	watchfaces *service.WatchfaceService
	resources  *service.ResourceService
	uploads    *service.UploadService
	prefs      *service.PreferenceService

	printer *render.Printer
}

// open loads configuration and wires every service.
func (a *app) open(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	if opts.debug {
		logCfg = logging.Config{Level: "debug", Format: logging.FormatConsole}
	}
	logs, err := logging.New(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logs = logs
	a.logger = logging.Component(logs.Logger, "cli")
	cmd.SetContext(a.logger.WithContext(cmd.Context()))

	a.notifier = &notifier{target: writerNotifier(cmd.ErrOrStderr())}

	store, err := bolt.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = store

	did := strings.TrimSpace(cfg.API.DeviceID)
	if did == "" {
		did = crypto.DeviceID(crypto.MachineSeed())
	}
	client, err := wfclient.New(cfg.API.BaseURL, cfg.API.RequestTimeout,
		wfclient.WithLogger(logging.Component(logs.Logger, "wfclient")),
		wfclient.WithIdentity(cfg.API.ClientVersion, did),
	)
	if err != nil {
		return fmt.Errorf("init client: %w", err)
	}
	a.client = client

	catalog, err := service.LoadCatalog(cfg.Devices.File)
	if err != nil {
		return err
	}

	svcLog := logging.Component(logs.Logger, "service")
	n := a.notifier
	a.prefs = service.NewPreferenceService(store)

	ctx := cmd.Context()
	// The device filter starts from the persisted selection.
	probe := service.NewDeviceService(store, catalog, cfg.Listing.DefaultDevice, nil, nil, svcLog)
	device, err := probe.Current(ctx)
	if err != nil {
		return err
	}
	a.listing = service.NewListingService(client, n, svcLog, model.ListingFilter{Device: device}, cfg.Listing.PageSize)
	a.devices = service.NewDeviceService(store, catalog, cfg.Listing.DefaultDevice, a.listing, n, svcLog)

	a.sessions, err = service.NewSessionService(store, client, wfclient.AuthorizeConfig{
		URL:         cfg.OAuth.AuthorizeURL,
		ClientID:    cfg.OAuth.ClientID,
		RedirectURI: cfg.OAuth.RedirectURI,
		Scope:       cfg.OAuth.Scope,
	}, cfg.OAuth.StateSecret, n, svcLog)
	if err != nil {
		return err
	}
	a.comments = service.NewCommentService(client, a.sessions, n, svcLog)
	a.watchfaces = service.NewWatchfaceService(client, a.comments, n, svcLog)
	a.resources = service.NewResourceService(client, a.sessions, n, svcLog)
	a.uploads = service.NewUploadService(client, a.sessions, a.resources, n, svcLog)

	format, err := render.ParseFormat(opts.output)
	if err != nil {
		return err
	}
	theme, err := a.prefs.Theme(ctx)
	if err != nil {
		return err
	}
	a.printer = render.NewPrinter(cmd.OutOrStdout(), format, theme)

	a.logger.Debug().Str("command", cmd.CommandPath()).Str("device", device).Msg("command started")
	return nil
}

// close releases the store and the log file. It is safe to call twice.
func (a *app) close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
		a.logs = nil
	}
	return errors.Join(errs...)
}

// restoreListing loads the listing saved by the previous command. A snapshot
// for another device is ignored.
func (a *app) restoreListing(ctx context.Context) (bool, error) {
	var state model.ListingState
	err := storage.GetJSON(ctx, a.store, storage.Temp, storage.KeyListing, &state)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		a.logger.Warn().Err(err).Msg("discarding unreadable listing snapshot")
		return false, nil
	}
	if state.Filter.Device != a.listing.Snapshot().Filter.Device {
		return false, nil
	}
	return a.listing.Restore(state), nil
}

// saveListing persists the listing so the next command can continue it.
func (a *app) saveListing(ctx context.Context) error {
	return storage.SetJSON(ctx, a.store, storage.Temp, storage.KeyListing, a.listing.Snapshot())
}

// findWatchface looks an id up in the saved listing, then in the user's own
// uploads. The service has no lookup by id.
func (a *app) findWatchface(ctx context.Context, id model.ID) (model.Watchface, error) {
	if ok, err := a.restoreListing(ctx); err != nil {
		return model.Watchface{}, err
	} else if ok {
		for _, wf := range a.listing.Snapshot().Items {
			if wf.ID == id {
				return wf, nil
			}
		}
	}
	sess, err := a.sessions.Current(ctx)
	if err != nil {
		return model.Watchface{}, err
	}
	if sess != nil {
		if wf, err := a.resources.Find(ctx, id); err == nil {
			return *wf, nil
		}
	}
	return model.Watchface{}, fmt.Errorf("%w: %s，请先运行 list 或 search", service.ErrResourceNotFound, id)
}
