// Package infra holds the adapters behind the core interfaces: the sqlite
// trip store, zerolog, prometheus and influx sinks, the MQTT alert publisher
// and Sentry. Core packages never import infra.
package infra
