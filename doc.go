/*
Package flume builds and runs dataflow pipelines.

A pipeline is a graph of processes. Each process declares typed input and
output ports; an output port feeds any number of inputs (fan-out) while an
input is fed by at most one output. Clusters group processes behind ports of
their own and are flattened when added, so the graph only ever contains leaf
processes. Once every required input is connected and the graph is acyclic,
setup freezes the topology and a scheduler can drive data through it.

# Blueprints

Pipelines are usually described in YAML:

	name: doubler
	processes:
	  - {name: src, type: numbers, config: {end: "10"}}
	  - {name: print, type: print_number}
	clusters:
	  - name: times2
	    type: multiplier_cluster
	    processes:
	      - {name: two, type: const_number, config: {value: "2"}}
	      - {name: mult, type: multiplication}
	    inputs:  [{port: factor, to: mult.factor2}]
	    outputs: [{port: product, to: mult.product}]
	    connections: [{from: two.number, to: mult.factor1}]
	connections:
	  - {from: src.number, to: times2.factor}
	  - {from: times2.product, to: print.number}

# Usage

	eng, err := flume.New(flume.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	bp, p, err := eng.Load("doubler.yaml")
	if err != nil {
		log.Fatal(err)
	}

	steps, err := eng.Run(ctx, p)

The lower-level packages can be used directly: pkg/pipeline holds the graph
and its setup state machine, pkg/registry creates processes by type,
pkg/scheduler runs a set-up pipeline and pkg/adapters exposes pipelines over
HTTP and MCP or stores blueprints in files and redis.
*/
package flume
