/*
Package pipeline holds the process graph: processes and clusters, the edges
between their ports, and the setup state machine that turns a described graph
into one whose edges can carry data.

# Building

Processes and clusters are added by name, then wired with Connect. Every
Connect checks that both ends exist, that the output is not connected to
that input already, that the port types agree (or one side is polymorphic)
and that the port flags are compatible. An output may feed several inputs;
each input accepts a single sender. Connecting to a cluster port resolves
through the cluster's port mappings to the member that really owns it.

# Setup

	Unconfigured --SetupPipeline--> SetUp
	             \---------------> SetupFailed
	SetUp / SetupFailed --Reset--> Unconfigured

SetupPipeline checks that every required input is connected and that the
graph has no cycles unless they are allowed, configures each process and
freezes every edge. A failure leaves the pipeline in
SetupFailed with the cause available from SetupError. The graph cannot be
changed once setup has been attempted; Reset clears it.

# Queries

Navigation answers which address feeds a port, which addresses a port
feeds, and which processes sit up or downstream of a process, looking
through clusters to the leaf processes.
*/
package pipeline
