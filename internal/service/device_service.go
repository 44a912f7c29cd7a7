package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/storage"
)

//go:embed devices.json
var defaultCatalog []byte

// Catalog maps model ids to device codenames and display names.
type Catalog map[string]model.DeviceModel

// LoadCatalog reads a catalog file, or the built-in one when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	raw := defaultCatalog
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read device catalog: %w", err)
		}
		raw = data
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode device catalog: %w", err)
	}
	return c, nil
}

// Codenames groups the catalog by codename. The display name of a codename is
// the one of its lowest model id.
func (c Catalog) Codenames() map[string]string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make(map[string]string)
	for _, id := range ids {
		dev := c[id]
		if _, ok := out[dev.Codename]; !ok {
			out[dev.Codename] = dev.Name
		}
	}
	return out
}

// DeviceService tracks the selected device and performs device switches.
type DeviceService struct {
	store         storage.Store
	names         map[string]string
	defaultDevice string
	listing       *ListingService
	notifier      Notifier
	logger        zerolog.Logger
}

// NewDeviceService constructs DeviceService. listing may be nil when no
// listing needs reloading after a switch.
func NewDeviceService(store storage.Store, catalog Catalog, defaultDevice string, listing *ListingService, notifier Notifier, logger zerolog.Logger) *DeviceService {
	if defaultDevice == "" {
		defaultDevice = model.DefaultDevice
	}
	return &DeviceService{
		store:         store,
		names:         catalog.Codenames(),
		defaultDevice: defaultDevice,
		listing:       listing,
		notifier:      orDiscard(notifier),
		logger:        logger,
	}
}

// Current returns the selected device codename.
func (s *DeviceService) Current(ctx context.Context) (string, error) {
	return storage.GetOr(ctx, s.store, storage.Durable, storage.KeySelectedDevice, s.defaultDevice)
}

// Name returns the display name of a codename, or the codename itself.
func (s *DeviceService) Name(codename string) string {
	if name, ok := s.names[codename]; ok {
		return name
	}
	return codename
}

// Known reports whether the codename is in the catalog.
func (s *DeviceService) Known(codename string) bool {
	_, ok := s.names[codename]
	return ok
}

// Devices lists every codename, sorted, with the selected one marked.
func (s *DeviceService) Devices(ctx context.Context) ([]model.Device, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Device, 0, len(s.names))
	for codename, name := range s.names {
		out = append(out, model.Device{Codename: codename, Name: name, Active: codename == current})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codename < out[j].Codename })
	return out, nil
}

// Switch selects another device. Caches are dropped so nothing fetched for the
// previous device stays visible, then the listing reloads from page 1.
// Selecting the current device only notifies and reports false.
func (s *DeviceService) Switch(ctx context.Context, codename string) (bool, error) {
	if !s.Known(codename) {
		return false, fmt.Errorf("%w: %s", ErrUnknownDevice, codename)
	}
	current, err := s.Current(ctx)
	if err != nil {
		return false, err
	}
	if codename == current {
		s.notifier.Notify("当前已经是 " + s.Name(codename))
		return false, nil
	}

	if err := s.ClearCaches(ctx); err != nil {
		return false, err
	}
	if err := s.store.Set(ctx, storage.Durable, storage.KeySelectedDevice, codename); err != nil {
		return false, err
	}
	s.logger.Info().Str("from", current).Str("to", codename).Msg("device switched")
	s.notifier.Notify("已切换到 " + s.Name(codename))

	if s.listing != nil {
		if _, err := s.listing.SetDevice(ctx, codename); err != nil {
			return true, err
		}
	}
	return true, nil
}

// ClearCaches removes every durable key outside the allow-list and empties the
// temporary bucket.
func (s *DeviceService) ClearCaches(ctx context.Context) error {
	keys, err := s.store.Keys(ctx, storage.Durable)
	if err != nil {
		return err
	}
	var drop []string
	for _, k := range keys {
		if !slices.Contains(storage.DeviceSwitchKeep, k) {
			drop = append(drop, k)
		}
	}
	if len(drop) > 0 {
		if err := s.store.Delete(ctx, storage.Durable, drop...); err != nil {
			return err
		}
	}
	if err := s.store.Clear(ctx, storage.Temp); err != nil {
		return err
	}
	s.logger.Debug().Strs("dropped", drop).Msg("caches cleared")
	return nil
}
