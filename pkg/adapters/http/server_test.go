package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/processes"
	"github.com/aretw0/flume/pkg/registry"
)

func buildPipeline(t *testing.T, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	r := registry.NewRegistry()
	require.NoError(t, r.Load(processes.Module))

	p := pipeline.New(append([]pipeline.Option{pipeline.WithID("test")}, opts...)...)
	nums, err := r.Create(processes.TypeNumbers, "nums", config.FromMap(map[string]string{"end": "3"}))
	require.NoError(t, err)
	mul, err := r.Create(processes.TypeMultiplierCluster, "mul", config.FromMap(map[string]string{"factor": "2"}))
	require.NoError(t, err)
	out, err := r.Create(processes.TypePrintNumber, "print", nil)
	require.NoError(t, err)

	require.NoError(t, p.AddProcess(nums))
	require.NoError(t, p.AddProcess(mul))
	require.NoError(t, p.AddProcess(out))
	require.NoError(t, p.Connect("nums", "number", "mul", "factor"))
	require.NoError(t, p.Connect("mul", "product", "print", "number"))
	return p
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServer_HealthAndInfo(t *testing.T) {
	h := NewHandler(buildPipeline(t), WithVersion("1.2.3\n"))

	w := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	info := decode[map[string]string](t, get(t, h, "/info"))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "test", info["pipeline"])
}

func TestServer_Status(t *testing.T) {
	p := buildPipeline(t)
	h := NewHandler(p)

	st := decode[StatusView](t, get(t, h, "/status"))
	assert.Equal(t, "unconfigured", st.State)
	assert.Equal(t, 4, st.Processes)
	assert.Equal(t, 1, st.Clusters)
	assert.Empty(t, st.Order)

	require.NoError(t, p.SetupPipeline())
	st = decode[StatusView](t, get(t, h, "/status"))
	assert.Equal(t, "setup", st.State)
	require.Len(t, st.Order, 4)
	assert.Equal(t, "print", st.Order[3])
}

func TestServer_Processes(t *testing.T) {
	h := NewHandler(buildPipeline(t))

	list := decode[[]ProcessView](t, get(t, h, "/processes"))
	assert.Len(t, list, 4)

	pv := decode[ProcessView](t, get(t, h, "/processes/mul_multiplication"))
	assert.Equal(t, processes.TypeMultiplication, pv.Type)
	assert.Equal(t, "mul", pv.Cluster)
	require.Len(t, pv.Inputs, 2)
	assert.Equal(t, "_required", pv.Inputs[0].Flags)

	w := get(t, h, "/processes/ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "ghost")
}

func TestServer_Navigation(t *testing.T) {
	h := NewHandler(buildPipeline(t))

	up := decode[[]string](t, get(t, h, "/processes/print/upstream"))
	assert.Equal(t, []string{"mul_multiplication"}, up)

	down := decode[[]string](t, get(t, h, "/processes/nums/downstream"))
	assert.Equal(t, []string{"mul_multiplication"}, down)

	none := decode[[]string](t, get(t, h, "/processes/nums/upstream"))
	assert.Empty(t, none)

	sender := decode[domain.Address](t, get(t, h, "/ports/print/number/sender"))
	assert.Equal(t, domain.Address{Process: "mul_multiplication", Port: "product"}, sender)

	recv := decode[[]domain.Address](t, get(t, h, "/ports/nums/number/receivers"))
	assert.Equal(t, []domain.Address{{Process: "mul_multiplication", Port: "factor2"}}, recv)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/ports/nums/nope/receivers").Code)
}

func TestServer_Clusters(t *testing.T) {
	h := NewHandler(buildPipeline(t))

	list := decode[[]ClusterView](t, get(t, h, "/clusters"))
	require.Len(t, list, 1)

	cv := decode[ClusterView](t, get(t, h, "/clusters/mul"))
	assert.Equal(t, processes.TypeMultiplierCluster, cv.Type)
	assert.ElementsMatch(t, []string{"mul_const", "mul_multiplication"}, cv.Members)
	assert.Equal(t, []string{"mul_multiplication.factor2"}, cv.InputMap["factor"])
	assert.Equal(t, "mul_multiplication.product", cv.OutputMap["product"])

	assert.Equal(t, http.StatusNotFound, get(t, h, "/clusters/nums").Code)
}

func TestServer_EdgesAndGraph(t *testing.T) {
	h := NewHandler(buildPipeline(t))

	edges := decode[[]EdgeView](t, get(t, h, "/edges"))
	assert.Len(t, edges, 3)

	w := get(t, h, "/graph")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph LR"))
	assert.Contains(t, w.Body.String(), "subgraph mul")
}

func TestServer_Metrics(t *testing.T) {
	h := NewHandler(buildPipeline(t))
	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)

	h = NewHandler(buildPipeline(t), WithMetricsHandler(promhttp.Handler()))
	w := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestServer_CORS(t *testing.T) {
	h := NewHandler(buildPipeline(t))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/processes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	streams := NewStreamManager(discardLogger())
	p := buildPipeline(t, pipeline.WithHooks(streams.Hooks()))
	srv := httptest.NewServer(NewHandler(p, WithStreams(streams)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events?watch=lifecycle", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	require.Eventually(t, func() bool { return streams.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	// Structural events are filtered out by the watch list.
	require.NoError(t, p.Disconnect("mul", "product", "print", "number"))
	require.NoError(t, p.Connect("mul", "product", "print", "number"))
	require.NoError(t, p.SetupPipeline())

	var event, data string
	for lines.Scan() {
		line := lines.Text()
		if after, ok := strings.CutPrefix(line, "event: "); ok && after != "ping" {
			event = after
		}
		if after, ok := strings.CutPrefix(line, "data: "); ok && event != "" {
			data = after
			break
		}
	}
	assert.Equal(t, "lifecycle", event)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &payload))
	assert.Equal(t, "setup", payload["type"])
	assert.Equal(t, true, payload["success"])
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(discardLogger())
	ch, cancel := sm.Subscribe()

	for range cap(ch) + 5 {
		sm.Broadcast(Message{Kind: "graph", Data: "{}"})
	}
	assert.Len(t, ch, cap(ch))

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
