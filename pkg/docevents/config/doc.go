/*
Package config loads docevents runtime settings.

# Overview

Settings covers the logger, the close orchestrator, the usage report store,
trace export, and free-form per-product option blocks. Files are YAML or
JSON; environment variables prefixed with DOCEVENTS_ override file values.

	log:
	  level: debug
	  format: json
	close:
	  parallel_phases: true
	store:
	  driver: sqlite
	  path: ./usage.db
	tracing:
	  endpoint: http://localhost:4318
	products:
	  docevents-core:
	    ignore_types: [close-document-event]

Load a file:

	s, err := config.Load("docevents.yaml")
	if err != nil {
	    log.Fatal(err)
	}

Environment overrides use the nested field path:

	DOCEVENTS_LOG_LEVEL=warn
	DOCEVENTS_STORE_DRIVER=sqlite
	DOCEVENTS_STORE_PATH=/var/lib/docevents/usage.db
	DOCEVENTS_CLOSE_PARALLEL_PHASES=true
	DOCEVENTS_TRACING_ENDPOINT=http://collector:4318

# Product Options

Per-product blocks are read through Values, whose getters fall back to a
default on missing keys or mismatched types:

	opts := s.Product("docevents-core")
	ignored := opts.StringSlice("ignore_types", nil)
*/
package config
