package processes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/process"
	"github.com/aretw0/flume/pkg/registry"
)

// fakeIO queues input data per port and records output data per port.
type fakeIO struct {
	in  map[string][]edge.Datum
	out map[string][]edge.Datum
}

func newFakeIO() *fakeIO {
	return &fakeIO{in: make(map[string][]edge.Datum), out: make(map[string][]edge.Datum)}
}

func (f *fakeIO) feed(port string, data ...edge.Datum) { f.in[port] = append(f.in[port], data...) }

func (f *fakeIO) Receive(_ context.Context, port string) (edge.Datum, error) {
	q := f.in[port]
	if len(q) == 0 {
		return edge.Complete(), nil
	}
	f.in[port] = q[1:]
	return q[0], nil
}

func (f *fakeIO) Send(_ context.Context, port string, d edge.Datum) error {
	f.out[port] = append(f.out[port], d)
	return nil
}

func (f *fakeIO) values(port string) []int64 {
	var out []int64
	for _, d := range f.out[port] {
		out = append(out, d.Value.(int64))
	}
	return out
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.NewRegistry()
	require.NoError(t, r.Load(Module))
	return r
}

func create(t *testing.T, r *registry.Registry, typ, name string, kv map[string]string) process.Process {
	t.Helper()
	p, err := r.Create(typ, name, config.FromMap(kv))
	require.NoError(t, err)
	if c, ok := p.(process.Configurable); ok {
		require.NoError(t, c.Configure())
	}
	return p
}

func steps(t *testing.T, p process.Process, io process.PortIO, n int) error {
	t.Helper()
	st := p.(process.Steppable)
	for range n {
		if err := st.Step(context.Background(), io); err != nil {
			return err
		}
	}
	return nil
}

func TestRegister_Types(t *testing.T) {
	r := newRegistry(t)
	assert.Equal(t, []string{
		TypeConstNumber, TypeMultiplication, TypeMultiplierCluster,
		TypeNumbers, TypePrintNumber, TypeSink,
	}, r.Types())
	assert.True(t, r.IsModuleLoaded("examples"))
}

func TestNumbers(t *testing.T) {
	r := newRegistry(t)
	p := create(t, r, TypeNumbers, "n", map[string]string{"start": "3", "end": "6"})

	io := newFakeIO()
	err := steps(t, p, io, 10)
	assert.ErrorIs(t, err, process.ErrComplete)
	assert.Equal(t, []int64{3, 4, 5}, io.values("number"))
}

func TestNumbers_Defaults(t *testing.T) {
	r := newRegistry(t)
	p := create(t, r, TypeNumbers, "n", nil)

	io := newFakeIO()
	assert.ErrorIs(t, steps(t, p, io, 200), process.ErrComplete)
	assert.Len(t, io.values("number"), 100)
}

func TestNumbers_BadRange(t *testing.T) {
	r := newRegistry(t)
	p, err := r.Create(TypeNumbers, "n", config.FromMap(map[string]string{"start": "5", "end": "1"}))
	require.NoError(t, err)
	assert.Error(t, p.(process.Configurable).Configure())

	_, err = r.Create(TypeNumbers, "n", config.FromMap(map[string]string{"start": "five"}))
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestConstNumber(t *testing.T) {
	r := newRegistry(t)
	p := create(t, r, TypeConstNumber, "c", map[string]string{"value": "7"})

	io := newFakeIO()
	require.NoError(t, steps(t, p, io, 3))
	assert.Equal(t, []int64{7, 7, 7}, io.values("number"))

	c := p.(*ConstNumber)
	require.NoError(t, c.Reconfigure(config.FromMap(map[string]string{"value": "9"})))
	assert.Equal(t, int64(9), c.Value())
	require.NoError(t, c.Reconfigure(config.Empty()))
	assert.Equal(t, int64(9), c.Value(), "missing key keeps the current value")
	assert.Error(t, c.Reconfigure(config.FromMap(map[string]string{"value": "x"})))
}

func TestMultiplication(t *testing.T) {
	r := newRegistry(t)
	p := create(t, r, TypeMultiplication, "m", nil)

	io := newFakeIO()
	io.feed("factor1", edge.Data(int64(2)), edge.Empty(), edge.Data(int64(3)))
	io.feed("factor2", edge.Data(int64(5)), edge.Data(int64(4)))

	assert.ErrorIs(t, steps(t, p, io, 5), process.ErrComplete)
	assert.Equal(t, []int64{10, 12}, io.values("product"))

	ports := p.InputPorts()
	require.Len(t, ports, 2)
	assert.True(t, ports[0].Flags.Has(process.Required))
}

func TestMultiplication_ErrorDatum(t *testing.T) {
	r := newRegistry(t)
	p := create(t, r, TypeMultiplication, "m", nil)

	io := newFakeIO()
	io.feed("factor1", edge.Error(assert.AnError))
	err := steps(t, p, io, 1)
	assert.ErrorIs(t, err, assert.AnError)

	io.feed("factor1", edge.Data("two"))
	assert.Error(t, steps(t, p, io, 1))
}

func TestPrintNumber(t *testing.T) {
	r := newRegistry(t)
	path := filepath.Join(t.TempDir(), "out.txt")
	p := create(t, r, TypePrintNumber, "print", map[string]string{"output": path})
	assert.Equal(t, path, p.(*PrintNumber).Output())

	io := newFakeIO()
	io.feed("number", edge.Data(int64(1)), edge.Data(int64(2)))
	assert.ErrorIs(t, steps(t, p, io, 5), process.ErrComplete)
	require.NoError(t, p.(*PrintNumber).Close())
	require.NoError(t, p.(*PrintNumber).Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", string(data))
}

func TestPrintNumber_Discard(t *testing.T) {
	r := newRegistry(t)
	p := create(t, r, TypePrintNumber, "print", nil)

	io := newFakeIO()
	io.feed("number", edge.Data(int64(1)))
	assert.ErrorIs(t, steps(t, p, io, 3), process.ErrComplete)
	assert.NoError(t, p.(*PrintNumber).Close())
}

func TestSink(t *testing.T) {
	r := newRegistry(t)
	p := create(t, r, TypeSink, "sink", nil)

	io := newFakeIO()
	io.feed("sink", edge.Data("anything"), edge.Empty(), edge.Data(42))
	assert.ErrorIs(t, steps(t, p, io, 10), process.ErrComplete)
	assert.Equal(t, 2, p.(*Sink).Received())

	in, ok := process.InputPort(p, "sink")
	require.True(t, ok)
	assert.Equal(t, process.TypeAny, in.Type)
}

func TestMultiplierCluster(t *testing.T) {
	r := newRegistry(t)
	p, err := r.Create(TypeMultiplierCluster, "times3", config.FromMap(map[string]string{"factor": "3"}))
	require.NoError(t, err)

	c, ok := p.(*process.Cluster)
	require.True(t, ok)
	assert.Len(t, c.Members(), 2)

	target, ok := c.Mapping(process.Input, "factor")
	require.True(t, ok)
	assert.Equal(t, domain.Address{Process: "times3_multiplication", Port: "factor2"}, target)

	conns := c.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "times3_const.number -> times3_multiplication.factor1", conns[0].String())

	member, ok := c.Member("times3_const")
	require.True(t, ok)
	assert.Equal(t, "3", member.Config().ValueOr("value", ""))

	_, err = r.Create(TypeMultiplierCluster, "bad", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}
