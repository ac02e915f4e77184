/*
Package ports defines the driven ports (interfaces) flume talks to outside
the pipeline core.

# Key Interfaces

  - BlueprintStore: persists named pipeline blueprints (memory, file, Redis).
  - DistributedLocker: lets several flume instances agree on who runs a stored
    blueprint.

RunBlueprintStoreContract is a reusable test suite every store adapter runs.
*/
package ports
