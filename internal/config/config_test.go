package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOTEL_BOT_TOKEN", "123:abc")

	path := writeFile(t, dir, "config.yaml", `
database:
  path: `+filepath.Join(dir, "db", "hotel.db")+`
telegram:
  bot_token: ${HOTEL_BOT_TOKEN}
  admin_chat_ids: [10, 20]
notifications:
  max_retries: 3
  retry_delay_ms: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, []int64{10, 20}, cfg.Telegram.AdminChatIDs)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 256, cfg.Notifications.QueueSize)
	assert.Equal(t, "configs/rooms.yaml", cfg.Seed.RoomsFile)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 24*time.Hour, cfg.Backup.Interval())
	assert.Equal(t,
		[]time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond},
		cfg.Notifications.RetryDelays())

	_, err = os.Stat(filepath.Join(dir, "db"))
	assert.NoError(t, err, "database directory is created")
}

func TestLoadRoomsConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, dir, "rooms.yaml", `
rooms:
  - name: Deluxe Room
    price: "150.00"
  - name: Closed Room
    price: "90.5"
    available: false
`)
		cfg, err := LoadRoomsConfig(path)
		require.NoError(t, err)

		rooms, err := cfg.Models()
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, int64(15000), rooms[0].PriceCents)
		assert.True(t, rooms[0].Available)
		assert.Equal(t, int64(9050), rooms[1].PriceCents)
		assert.False(t, rooms[1].Available)
	})

	tests := []struct {
		name string
		body string
	}{
		{"duplicate name", "rooms:\n  - {name: A, price: \"1\"}\n  - {name: A, price: \"2\"}\n"},
		{"zero price", "rooms:\n  - {name: A, price: \"0\"}\n"},
		{"bad price", "rooms:\n  - {name: A, price: \"ten\"}\n"},
		{"missing name", "rooms:\n  - {price: \"10\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.yaml", tt.body)
			_, err := LoadRoomsConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestDefaultRoomsAreValid(t *testing.T) {
	cfg := DefaultRooms()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Rooms, 9)
}

func TestRoomsWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rooms.yaml", "rooms:\n  - {name: A, price: \"10\"}\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zerolog.New(io.Discard)
	updates := make(chan *RoomsConfig, 4)
	w := NewRoomsWatcher(path, 10*time.Millisecond, &logger)
	require.NoError(t, w.Start(ctx, func(c *RoomsConfig) { updates <- c }))

	first := <-updates
	require.Len(t, first.Rooms, 1)

	writeFile(t, dir, "rooms.yaml", "rooms:\n  - {name: A, price: \"10\"}\n  - {name: B, price: \"20\"}\n")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case next := <-updates:
		assert.Len(t, next.Rooms, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("rooms config was not reloaded")
	}
}

func TestRoomsWatcherSkipsInvalidRevision(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rooms.yaml", "rooms:\n  - {name: A, price: \"10\"}\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zerolog.New(io.Discard)
	updates := make(chan *RoomsConfig, 4)
	w := NewRoomsWatcher(path, 10*time.Millisecond, &logger)
	require.NoError(t, w.Start(ctx, func(c *RoomsConfig) { updates <- c }))
	<-updates

	writeFile(t, dir, "rooms.yaml", "rooms:\n  - {name: A, price: \"1.5x\"}\n")
	bad := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, bad, bad))

	select {
	case <-updates:
		t.Fatal("invalid catalogue must not be applied")
	case <-time.After(100 * time.Millisecond):
	}

	writeFile(t, dir, "rooms.yaml", "rooms:\n  - {name: A, price: \"15\"}\n  - {name: C, price: \"30\"}\n")
	good := bad.Add(time.Minute)
	require.NoError(t, os.Chtimes(path, good, good))

	select {
	case next := <-updates:
		assert.Len(t, next.Rooms, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("rooms config was not reloaded")
	}
}

func TestRoomsWatcherMissingFile(t *testing.T) {
	logger := zerolog.New(io.Discard)
	w := NewRoomsWatcher(filepath.Join(t.TempDir(), "absent.yaml"), time.Second, &logger)
	assert.Error(t, w.Start(context.Background(), func(*RoomsConfig) {}))
}
