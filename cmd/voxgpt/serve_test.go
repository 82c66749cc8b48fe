package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/config"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/device/sim"
	"github.com/samaysahu/Vox-GPT/pkg/server"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, deviceURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Device.URL = deviceURL
	cfg.Oracle.Provider = config.ProviderNone
	cfg.Journal.Path = filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunServe_RequiresSignalDeps(t *testing.T) {
	err := runServe(context.Background(), config.Default(), testLogger(), serveDeps{})
	assert.EqualError(t, err, "missing signal dependency")
}

func TestBuildHTTPServer_UsesAddress(t *testing.T) {
	srv := buildHTTPServer("127.0.0.1:9999", http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:9999", srv.Addr)
	assert.Positive(t, srv.ReadHeaderTimeout)
}

func TestBuildApp_EndToEnd(t *testing.T) {
	controller := sim.New(testLogger())
	dev := httptest.NewServer(controller)
	defer dev.Close()

	a, err := buildApp(context.Background(), testConfig(t, dev.URL), testLogger())
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.journal)

	ts := httptest.NewServer(a.server.Handler())
	defer ts.Close()
	client := server.NewClient(ts.URL, 5*time.Second)

	reply, err := client.Chat(context.Background(), "move base to 100 degrees")
	require.NoError(t, err)
	assert.Equal(t, "✅ Moved base to 100 degrees", reply)
	assert.Equal(t, []device.Command{device.WaistRight, device.WaistRight}, controller.Received())

	state, err := client.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, state.Angles["base"])

	entries, err := a.journal.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "move base to 100 degrees", entries[0].Message)
	assert.Equal(t, 2, entries[0].Applied)
}

func TestBuildApp_RejectsBadLimits(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Joints = map[string]arm.Limits{"gripper": {Min: 0, Max: 1}}
	_, err := buildApp(context.Background(), cfg, testLogger())
	assert.ErrorContains(t, err, "joints.gripper")
}

func TestRunServe_StopsOnSignal(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.Journal.Path = ""

	stopped := false
	done := make(chan error, 1)
	go func() {
		done <- runServe(context.Background(), cfg, testLogger(), serveDeps{
			signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
				go func() { c <- os.Interrupt }()
			},
			signalStop: func(chan<- os.Signal) { stopped = true },
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, stopped)
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not stop")
	}
}

func TestRunServe_StopsOnContext(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.ListenAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runServe(ctx, cfg, testLogger(), defaultServeDeps())
	assert.NoError(t, err)
}
