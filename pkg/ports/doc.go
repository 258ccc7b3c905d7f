/*
Package ports defines the driven ports (interfaces) of the arbor editor.

These interfaces decouple editing sessions from the way they are stored and
coordinated, so the same session manager can run over memory, a local
directory, or Redis.

# Key Interfaces

  - SessionStore: persists and loads SessionRecord values (document plus undo/redo stacks).
  - DistributedLocker: provides distributed locking for handling concurrent session access.
*/
package ports
