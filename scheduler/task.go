package scheduler

// ReadFunc runs during the read-parallel phase of a tick. Many read tasks
// may run concurrently; a read task must not mutate shared world state
// directly and instead enqueues a WriteFunc for the mutation it wants
// applied.
type ReadFunc func()

// WriteFunc runs during the single-threaded write phase of a tick, in the
// order it was enqueued relative to other write tasks.
type WriteFunc func()

// RenderFunc runs on the main thread, drained explicitly via
// TaskScheduler.HandleRenderTasks rather than from the tick loop.
type RenderFunc func()
