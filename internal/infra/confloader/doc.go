// Package confloader loads configuration with koanf.
//
// Sources are applied in order, later ones overriding earlier ones:
// struct defaults, a YAML file, then VAULTLINK_-prefixed environment
// variables. Watcher reports changes to the config file so that runtime
// settings such as the log level can be reloaded without a restart.
package confloader
