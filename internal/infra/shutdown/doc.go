// Package shutdown coordinates graceful process termination.
//
// Components register named hooks as they start. When the process receives
// SIGINT or SIGTERM, or the run context is cancelled, hooks execute in
// reverse registration order under a shared deadline, so listeners stop
// before the stores they depend on are closed.
package shutdown
