package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandptel/trawl/config"
	"github.com/sandptel/trawl/metric"
	"github.com/sandptel/trawl/natsclient"
)

func TestNewResourceService_Validation(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	_, err = NewResourceService(nil, client)
	assert.Error(t, err, "nil config should be rejected")

	_, err = NewResourceService(config.Defaults(), nil)
	assert.Error(t, err, "nil client should be rejected")

	svc, err := NewResourceService(config.Defaults(), client)
	require.NoError(t, err)
	assert.NotNil(t, svc.Store())
	assert.Equal(t, StatusStopped, svc.Status())
}

func TestResourceService_SubjectPrefix(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.Service.SubjectPrefix = "resman"

	svc, err := NewResourceService(cfg, client)
	require.NoError(t, err)

	assert.Equal(t, "resman.cmd.load", svc.subject(SuffixCmdLoad))
	assert.Equal(t, "resman.event.resources_changed", svc.subject(SuffixEventResourcesChanged))
}

// request performs a round trip against the service and decodes the
// response envelope
func request(t *testing.T, client *natsclient.Client, subject string, payload any) OpResponse {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
	defer cancel()

	msg, err := client.Request(ctx, subject, data)
	require.NoError(t, err, "request on %s", subject)

	var resp OpResponse
	require.NoError(t, json.Unmarshal(msg.Data, &resp))
	return resp
}

func writeResourceFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "resources.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResourceService_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tc := natsclient.NewTestClient(t)

	cfg := config.Defaults()
	// cat stands in for cpp so the test has no toolchain dependency
	cfg.Preprocessor.Command = "cat"
	cfg.Bootstrap.File = writeResourceFile(t, "boot.key: from-bootstrap\n")

	svc, err := NewResourceService(cfg, tc.Client, WithMetrics(metric.NewMetrics()))
	require.NoError(t, err)

	var events atomic.Int64
	require.NoError(t, tc.Client.Subscribe(svc.subject(SuffixEventResourcesChanged), func(_ *nats.Msg) {
		events.Add(1)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, svc.Start(ctx))
	defer func() { _ = svc.Stop(2 * time.Second) }()

	waitForEvents := func(want int64) {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) && events.Load() < want {
			time.Sleep(10 * time.Millisecond)
		}
		assert.Equal(t, want, events.Load())
	}

	t.Run("bootstrap file is loaded before handlers answer", func(t *testing.T) {
		resp := request(t, tc.Client, svc.subject(SuffixQueryGet), GetRequest{Key: "boot.key"})
		assert.Empty(t, resp.Error)
		assert.Equal(t, "from-bootstrap", resp.Data)
	})

	t.Run("load inserts without overwriting", func(t *testing.T) {
		path := writeResourceFile(t, "boot.key: changed\nload.key: loaded\n")
		resp := request(t, tc.Client, svc.subject(SuffixCmdLoad), LoadRequest{Path: path, NoPreprocess: true})
		assert.Empty(t, resp.Error)

		resp = request(t, tc.Client, svc.subject(SuffixQueryGet), GetRequest{Key: "boot.key"})
		assert.Equal(t, "from-bootstrap", resp.Data, "load must not overwrite")

		resp = request(t, tc.Client, svc.subject(SuffixQueryGet), GetRequest{Key: "load.key"})
		assert.Equal(t, "loaded", resp.Data)
	})

	t.Run("merge overwrites", func(t *testing.T) {
		path := writeResourceFile(t, "boot.key: merged\n")
		resp := request(t, tc.Client, svc.subject(SuffixCmdMerge), LoadRequest{Path: path, NoPreprocess: true})
		assert.Empty(t, resp.Error)

		resp = request(t, tc.Client, svc.subject(SuffixQueryGet), GetRequest{Key: "boot.key"})
		assert.Equal(t, "merged", resp.Data)
	})

	t.Run("load_cpp runs the named command", func(t *testing.T) {
		path := writeResourceFile(t, "cpp.key: piped\n")
		resp := request(t, tc.Client, svc.subject(SuffixCmdLoadCpp), LoadCppRequest{Path: path, Command: "cat"})
		assert.Empty(t, resp.Error)

		resp = request(t, tc.Client, svc.subject(SuffixQueryGet), GetRequest{Key: "cpp.key"})
		assert.Equal(t, "piped", resp.Data)
	})

	t.Run("load with missing file reports error", func(t *testing.T) {
		resp := request(t, tc.Client, svc.subject(SuffixCmdLoad), LoadRequest{Path: "/nonexistent/path.conf", NoPreprocess: true})
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("set add and get", func(t *testing.T) {
		resp := request(t, tc.Client, svc.subject(SuffixCmdSet), SetRequest{Key: "color.fg", Value: "#ffffff"})
		assert.Empty(t, resp.Error)

		resp = request(t, tc.Client, svc.subject(SuffixCmdAdd), SetRequest{Key: "color.fg", Value: "#000000"})
		assert.Empty(t, resp.Error)

		resp = request(t, tc.Client, svc.subject(SuffixQueryGet), GetRequest{Key: "color.fg"})
		assert.Equal(t, "#ffffff", resp.Data, "add must not overwrite")

		resp = request(t, tc.Client, svc.subject(SuffixQueryGet), GetRequest{Key: "missing"})
		assert.Equal(t, "", resp.Data)
	})

	t.Run("match renders sorted listing", func(t *testing.T) {
		resp := request(t, tc.Client, svc.subject(SuffixQueryMatch), MatchRequest{Match: "color"})
		assert.Empty(t, resp.Error)
		assert.Equal(t, "color.fg :\t#ffffff", resp.Data)
	})

	t.Run("remove_one returns the removed pair", func(t *testing.T) {
		resp := request(t, tc.Client, svc.subject(SuffixCmdRemoveOne), RemoveRequest{Key: "color.fg"})
		assert.Empty(t, resp.Error)

		pair, ok := resp.Data.(map[string]any)
		require.True(t, ok, "removed pair should decode as an object")
		assert.Equal(t, "color.fg", pair["key"])
		assert.Equal(t, "#ffffff", pair["value"])

		resp = request(t, tc.Client, svc.subject(SuffixCmdRemoveOne), RemoveRequest{Key: "color.fg"})
		assert.Empty(t, resp.Error, "removing an absent key is not an error")
		assert.Nil(t, resp.Data, "removing an absent key yields an empty result")
	})

	t.Run("resources returns the snapshot", func(t *testing.T) {
		resp := request(t, tc.Client, svc.subject(SuffixQueryResources), struct{}{})
		assert.Empty(t, resp.Error)

		snapshot, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "merged", snapshot["boot.key"])
	})

	t.Run("remove_all clears and notifies", func(t *testing.T) {
		// Let events from earlier mutations drain first
		time.Sleep(100 * time.Millisecond)
		before := events.Load()

		resp := request(t, tc.Client, svc.subject(SuffixCmdRemoveAll), struct{}{})
		assert.Empty(t, resp.Error)

		resp = request(t, tc.Client, svc.subject(SuffixQueryResources), struct{}{})
		snapshot, ok := resp.Data.(map[string]any)
		if ok {
			assert.Empty(t, snapshot)
		} else {
			assert.Nil(t, resp.Data)
		}

		waitForEvents(before + 1)

		// Clearing an already empty table is silent
		resp = request(t, tc.Client, svc.subject(SuffixCmdRemoveAll), struct{}{})
		assert.Empty(t, resp.Error)
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, before+1, events.Load())
	})

	t.Run("malformed payload reports error", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
		defer cancel()

		msg, err := tc.Client.Request(ctx, svc.subject(SuffixCmdSet), []byte("{not json"))
		require.NoError(t, err)

		var resp OpResponse
		require.NoError(t, json.Unmarshal(msg.Data, &resp))
		assert.NotEmpty(t, resp.Error)
	})
}
