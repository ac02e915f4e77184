package pipeline_test

import (
	"testing"

	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCluster_RegistersMembers(t *testing.T) {
	p := pipeline.New()
	c := multiplierCluster(t, "mc")
	require.NoError(t, p.AddCluster(c))

	assert.Equal(t, []string{"mc"}, p.ClusterNames())
	assert.Equal(t, []string{"mc_const", "mc_mult"}, p.ProcessNames())

	got, err := p.ClusterByName("mc")
	require.NoError(t, err)
	assert.Same(t, c, got)

	owner, ok := p.ClusterOf("mc_mult")
	assert.True(t, ok)
	assert.Equal(t, "mc", owner)

	// Internal connection is a real edge between members.
	from, err := p.ConnectionToAddr("mc_mult", "factor1")
	require.NoError(t, err)
	assert.Equal(t, domain.Address{Process: "mc_const", Port: "number"}, from)

	_, err = p.ProcessByName("mc")
	assert.ErrorIs(t, err, domain.ErrNoSuchProcess, "clusters are not processes")
}

func TestAddProcess_AcceptsCluster(t *testing.T) {
	p := pipeline.New()
	require.NoError(t, p.AddProcess(multiplierCluster(t, "mc")))
	assert.Equal(t, []string{"mc"}, p.ClusterNames())
	assert.Len(t, p.ProcessNames(), 2)
}

func TestAddCluster_Failures(t *testing.T) {
	t.Run("duplicate cluster name", func(t *testing.T) {
		p := pipeline.New()
		addAll(t, p, numbers("mc"))
		assert.ErrorIs(t, p.AddCluster(multiplierCluster(t, "mc")), domain.ErrDuplicateName)
		assert.Empty(t, p.ClusterNames())
	})

	t.Run("duplicate member name", func(t *testing.T) {
		p := pipeline.New()
		addAll(t, p, numbers("mc_mult"))
		assert.ErrorIs(t, p.AddCluster(multiplierCluster(t, "mc")), domain.ErrDuplicateName)
		assert.Empty(t, p.ClusterNames())
		assert.Equal(t, []string{"mc_mult"}, p.ProcessNames())
	})

	t.Run("name repeated across nesting levels", func(t *testing.T) {
		inner := process.NewCluster("inner", "x", nil)
		require.NoError(t, inner.AddMember(numbers("dup")))
		outer := process.NewCluster("outer", "y", nil)
		require.NoError(t, outer.AddMember(inner))
		require.NoError(t, outer.AddMember(numbers("dup")))

		p := pipeline.New()
		assert.ErrorIs(t, p.AddCluster(outer), domain.ErrDuplicateName)
		assert.Empty(t, p.ProcessNames())
	})

	t.Run("mapping to unknown process", func(t *testing.T) {
		c := process.NewCluster("c", "x", nil)
		require.NoError(t, c.AddMember(numbers("src")))
		require.NoError(t, c.MapOutput("out", domain.Address{Process: "ghost", Port: "number"}))

		p := pipeline.New()
		assert.ErrorIs(t, p.AddCluster(c), domain.ErrUnknownProcess)
		assert.Empty(t, p.ProcessNames())
	})

	t.Run("mapping to process outside the cluster", func(t *testing.T) {
		p := pipeline.New()
		addAll(t, p, numbers("outside"))

		c := process.NewCluster("c", "x", nil)
		require.NoError(t, c.AddMember(numbers("src")))
		require.NoError(t, c.MapOutput("out", domain.Address{Process: "outside", Port: "number"}))
		assert.ErrorIs(t, p.AddCluster(c), domain.ErrUnknownProcess)
	})

	t.Run("mapping to missing port", func(t *testing.T) {
		c := process.NewCluster("c", "x", nil)
		require.NoError(t, c.AddMember(numbers("src")))
		require.NoError(t, c.MapOutput("out", domain.Address{Process: "src", Port: "nope"}))

		p := pipeline.New()
		assert.ErrorIs(t, p.AddCluster(c), domain.ErrNoSuchPort)
	})

	t.Run("mapping in the wrong direction", func(t *testing.T) {
		c := process.NewCluster("c", "x", nil)
		require.NoError(t, c.AddMember(numbers("src")))
		require.NoError(t, c.MapInput("in", domain.Address{Process: "src", Port: "number"}))

		p := pipeline.New()
		assert.ErrorIs(t, p.AddCluster(c), domain.ErrWrongDirection)
	})

	t.Run("empty cluster", func(t *testing.T) {
		p := pipeline.New()
		assert.ErrorIs(t, p.AddCluster(process.NewCluster("c", "x", nil)), domain.ErrInvalidConfiguration)
	})

	t.Run("bad internal connection rolls back", func(t *testing.T) {
		c := process.NewCluster("c", "x", nil)
		require.NoError(t, c.AddMember(texts("txt")))
		require.NoError(t, c.AddMember(numbers("num")))
		require.NoError(t, c.AddMember(multiplier("mult")))
		c.Connect(domain.Address{Process: "num", Port: "number"}, domain.Address{Process: "mult", Port: "factor1"})
		c.Connect(domain.Address{Process: "txt", Port: "text"}, domain.Address{Process: "mult", Port: "factor2"})

		p := pipeline.New()
		addAll(t, p, numbers("keep"))
		assert.ErrorIs(t, p.AddCluster(c), domain.ErrPortTypeMismatch)

		assert.Equal(t, []string{"keep"}, p.ProcessNames())
		assert.Empty(t, p.ClusterNames())
		assert.Empty(t, p.Edges(), "edges made before the failure are rolled back")
		_, ok := p.ClusterOf("num")
		assert.False(t, ok)

		// The names are free again.
		addAll(t, p, numbers("num"))
	})

	t.Run("internal connection leaving the cluster", func(t *testing.T) {
		c := process.NewCluster("c", "x", nil)
		require.NoError(t, c.AddMember(numbers("num")))
		c.Connect(domain.Address{Process: "num", Port: "number"}, domain.Address{Process: "outside", Port: "number"})

		p := pipeline.New()
		addAll(t, p, printer("outside"))
		assert.ErrorIs(t, p.AddCluster(c), domain.ErrUnknownProcess)
		assert.Empty(t, p.Edges())
	})
}

func TestConnect_ThroughClusterPorts(t *testing.T) {
	p := pipeline.New()
	addAll(t, p, numbers("src"), printer("snk"))
	require.NoError(t, p.AddCluster(multiplierCluster(t, "mc")))

	require.NoError(t, p.Connect("src", "number", "mc", "factor"))
	require.NoError(t, p.Connect("mc", "product", "snk", "number"))

	// Edges hold member addresses, never cluster addresses.
	for _, c := range p.Connections() {
		assert.NotEqual(t, "mc", c.From.Process)
		assert.NotEqual(t, "mc", c.To.Process)
	}

	from, err := p.ConnectionToAddr("mc_mult", "factor2")
	require.NoError(t, err)
	assert.Equal(t, domain.Address{Process: "src", Port: "number"}, from)

	// Port queries accept cluster addresses.
	from, err = p.ConnectionToAddr("mc", "factor")
	require.NoError(t, err)
	assert.Equal(t, "src", from.Process)

	to, err := p.ConnectionsFromAddr("mc", "product")
	require.NoError(t, err)
	assert.Equal(t, []domain.Address{{Process: "snk", Port: "number"}}, to)

	_, err = p.EdgeForConnection("src", "number", "mc", "factor")
	require.NoError(t, err)

	assert.ErrorIs(t, p.Connect("src", "number", "mc", "product"), domain.ErrWrongDirection)
	assert.ErrorIs(t, p.Connect("src", "number", "mc", "nope"), domain.ErrNoSuchPort)

	require.NoError(t, p.SetupPipeline())
}

func TestNestedClusters(t *testing.T) {
	inner := multiplierCluster(t, "inner")
	outer := process.NewCluster("outer", "wrapper", nil)
	require.NoError(t, outer.AddMember(inner))
	require.NoError(t, outer.AddMember(numbers("seed")))
	require.NoError(t, outer.MapOutput("result", domain.Address{Process: "inner", Port: "product"}))
	outer.Connect(domain.Address{Process: "seed", Port: "number"}, domain.Address{Process: "inner", Port: "factor"})

	p := pipeline.New()
	require.NoError(t, p.AddCluster(outer))
	addAll(t, p, printer("snk"))

	assert.Equal(t, []string{"outer", "inner"}, p.ClusterNames())
	assert.Equal(t, []string{"inner_const", "inner_mult", "seed", "snk"}, p.ProcessNames())

	require.NoError(t, p.Connect("outer", "result", "snk", "number"))
	from, err := p.ConnectionToAddr("snk", "number")
	require.NoError(t, err)
	assert.Equal(t, domain.Address{Process: "inner_mult", Port: "product"}, from)

	seedTo, err := p.ConnectionToAddr("inner_mult", "factor2")
	require.NoError(t, err)
	assert.Equal(t, "seed", seedTo.Process)

	assert.ErrorIs(t, p.RemoveCluster("inner"), domain.ErrClusterMember)
	assert.ErrorIs(t, p.RemoveProcess("inner"), domain.ErrClusterMember)

	require.NoError(t, p.RemoveCluster("outer"))
	assert.Empty(t, p.ClusterNames())
	assert.Equal(t, []string{"snk"}, p.ProcessNames())
	assert.Empty(t, p.Edges())
}

func TestRemoveProcess_ClusterMember(t *testing.T) {
	p := pipeline.New()
	require.NoError(t, p.AddCluster(multiplierCluster(t, "mc")))

	err := p.RemoveProcess("mc_mult")
	assert.ErrorIs(t, err, domain.ErrClusterMember)
	assert.Equal(t, []string{"mc_const", "mc_mult"}, p.ProcessNames())
	assert.Len(t, p.Edges(), 1)
}

func TestRemoveProcess_ByClusterName(t *testing.T) {
	p := pipeline.New()
	addAll(t, p, numbers("src"), printer("snk"))
	require.NoError(t, p.AddCluster(multiplierCluster(t, "mc")))
	require.NoError(t, p.Connect("src", "number", "mc", "factor"))
	require.NoError(t, p.Connect("mc", "product", "snk", "number"))

	require.NoError(t, p.RemoveProcess("mc"))

	assert.Empty(t, p.ClusterNames())
	assert.Equal(t, []string{"src", "snk"}, p.ProcessNames())
	assert.Empty(t, p.Edges())
}

func TestRemoveCluster_Missing(t *testing.T) {
	p := pipeline.New()
	addAll(t, p, numbers("src"))
	assert.ErrorIs(t, p.RemoveCluster("src"), domain.ErrNoSuchCluster)
	assert.ErrorIs(t, p.RemoveCluster("ghost"), domain.ErrNoSuchCluster)
}
