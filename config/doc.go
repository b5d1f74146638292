// Package config loads modelstore settings from defaults, an optional YAML
// file and MODELSTORE_ environment variables, later sources overriding
// earlier ones.
//
// Environment variables follow the YAML structure, for example
// MODELSTORE_ENGINE_PATH, MODELSTORE_CACHE_BOUNDED_CAPACITY and
// MODELSTORE_REPOSITORY_RETRY_ATTEMPTS.
package config
