/*
Package domain contains the shared vocabulary of the flume pipeline engine.

It is kept free of I/O and of the graph implementation itself so that
adapters, presentation code and the core can all depend on it.

# Key Entities

  - Address: a (process, port) pair identifying one endpoint.
  - Connection: a source/destination pair of addresses.
  - Error: the typed failure returned by every graph operation. Its Kind is
    one of the Err* sentinels, matched with errors.Is.
  - LifecycleHooks: optional callbacks fired on graph and lifecycle changes.
*/
package domain
