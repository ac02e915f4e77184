package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flume/internal/presentation/tui"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/process"
)

func TestDescribeMarkdown(t *testing.T) {
	p := pipeline.New(pipeline.WithID("demo"))
	require.NoError(t, p.AddProcess(process.New("src", "numbers", nil).
		WithOutput(process.PortInfo{Name: "number", Type: "integer"})))

	c := process.NewCluster("wrap", "wrapper", nil)
	require.NoError(t, c.AddMember(process.New("print", "print_number", nil).
		WithInput(process.PortInfo{Name: "number", Type: "integer", Flags: process.Required})))
	require.NoError(t, c.MapInput("in", domain.Address{Process: "print", Port: "number"}))
	require.NoError(t, p.AddCluster(c))
	require.NoError(t, p.Connect("src", "number", "wrap", "in"))
	require.NoError(t, p.SetupPipeline())

	md := tui.DescribeMarkdown("Doubler", p)

	for _, want := range []string{
		"# Doubler",
		"Pipeline `demo`: 2 processes, 1 clusters, 1 connections.",
		"| src | numbers | - | `number` (integer) |",
		"| print | print_number | `number` (integer) _required | - |",
		"### wrap (wrapper)",
		"- input `in` → `print.number`",
		"- `src.number` → `print.number`",
		"1. src\n2. print",
	} {
		assert.Contains(t, md, want)
	}
}

func TestDescribeMarkdown_NotSetUp(t *testing.T) {
	md := tui.DescribeMarkdown("Empty", pipeline.New())
	assert.NotContains(t, md, "## Execution order")
	assert.NotContains(t, md, "## Clusters")
}

func TestBannerAndStyles(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Greater(t, strings.Count(buf.String(), "\n"), 5)

	assert.Contains(t, tui.Success("ok"), "ok")
	assert.Contains(t, tui.Failure("bad"), "bad")
	assert.Contains(t, tui.Muted("meh"), "meh")
}

func TestRenderer_PassThroughWhenNotTerminal(t *testing.T) {
	// go test does not attach stdout to a terminal.
	render := tui.NewRenderer()
	out, err := render("# Title")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}
