// Package registry provides the central "glue" for the module system.
//
// The Registry stores two things: the Go functions that modules register
// under a handler name (e.g., "OnRunTokenize"), and the tasks the planner
// searches over. Tasks arrive either from Go code through BeginTask or from
// HCL manifests, whose `handler` attribute names the function to call.
//
// During application startup, the registry is populated and then validated to
// ensure that the Go code and the manifests are in sync, so that a plan never
// reaches a task with nothing to run.
package registry
