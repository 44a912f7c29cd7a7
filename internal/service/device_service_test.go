package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/storage"
)

func TestLoadCatalogBuiltin(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	names := c.Codenames()
	assert.Contains(t, names, "o66")
	assert.Contains(t, names, "n66")
}

func TestLoadCatalogFileAndGrouping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"b2": {"codename": "x1", "name": "Later"},
		"a1": {"codename": "x1", "name": "Band X"},
		"c3": {"codename": "y1", "name": "Band Y"}
	}`), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x1": "Band X", "y1": "Band Y"}, c.Codenames())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func testCatalog() Catalog {
	return Catalog{
		"1": {Codename: "o66", Name: "Band 8"},
		"2": {Codename: "n66", Name: "Band 9"},
	}
}

func TestDeviceSwitchClearsCachesAndReloads(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	n := &recordingNotifier{}
	f := newFakeFetcher(3)
	listing := newListing(f, nil)
	devices := NewDeviceService(store, testCatalog(), "", listing, n, zerolog.Nop())

	cur, err := devices.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDevice, cur)

	login(t, store)
	require.NoError(t, store.Set(ctx, storage.Durable, storage.KeyTheme, "dark"))
	require.NoError(t, store.Set(ctx, storage.Durable, "cachedPreview", "x"))
	require.NoError(t, store.Set(ctx, storage.Temp, storage.KeyListing, "{}"))

	switched, err := devices.Switch(ctx, "n66")
	require.NoError(t, err)
	assert.True(t, switched)

	cur, err = devices.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "n66", cur)

	keys, err := store.Keys(ctx, storage.Durable)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		storage.KeySelectedDevice, storage.KeyTheme,
		storage.KeyOpenID, storage.KeyValidToken, storage.KeyNickname,
	}, keys)

	temp, err := store.Keys(ctx, storage.Temp)
	require.NoError(t, err)
	assert.Empty(t, temp)

	assert.Equal(t, fetchCall{device: "n66", page: 1, size: 20}, f.lastCall())
	assert.Len(t, listing.Snapshot().Items, 3)
	assert.Equal(t, []string{"已切换到 Band 9"}, n.all())
}

func TestDeviceSwitchSameOrUnknown(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	n := &recordingNotifier{}
	f := newFakeFetcher(1)
	devices := NewDeviceService(store, testCatalog(), "o66", newListing(f, nil), n, zerolog.Nop())

	switched, err := devices.Switch(ctx, "o66")
	require.NoError(t, err)
	assert.False(t, switched)
	assert.Equal(t, []string{"当前已经是 Band 8"}, n.all())

	_, err = devices.Switch(ctx, "zz")
	assert.ErrorIs(t, err, ErrUnknownDevice)
	assert.Equal(t, 0, f.callCount())
}

func TestDevicesMarksActive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	devices := NewDeviceService(store, testCatalog(), "o66", nil, nil, zerolog.Nop())
	require.NoError(t, store.Set(ctx, storage.Durable, storage.KeySelectedDevice, "n66"))

	list, err := devices.Devices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Device{
		{Codename: "n66", Name: "Band 9", Active: true},
		{Codename: "o66", Name: "Band 8"},
	}, list)
	assert.Equal(t, "unknown", devices.Name("unknown"))
}

func TestThemeToggle(t *testing.T) {
	ctx := context.Background()
	prefs := NewPreferenceService(newTestStore(t))

	theme, err := prefs.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)

	theme, err = prefs.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	theme, err = prefs.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)

	assert.Error(t, prefs.SetTheme(ctx, "sepia"))
}
