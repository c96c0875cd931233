// Package config provides environment-based configuration.
//
// Maps environment variables to the Config struct via caarlos0/env
// struct tags. Command line flags for host and port are applied on top
// by the entrypoint before validation.
package config
