// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the subcommands that load tasks and tables,
// plan, and execute, decoupled from any specific entrypoint like a CLI.
package app
