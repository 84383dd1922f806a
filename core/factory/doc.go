// Package factory provides a small generic registry used to build pluggable
// modules (metrics sinks, resolvers) from configuration.
//
// A module is described by a ModuleConfig:
//
//	sinks:
//	  - type: prometheus
//	  - type: influx
//	    conf:
//	      url: http://localhost:8086
//
// Implementations register a Factory under their type name, usually from an
// init function in the infra packages.
package factory
