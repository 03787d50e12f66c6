// Package config provides layered configuration for docio.
//
// Values are resolved from three sources, lowest priority first:
//
//  1. Built-in defaults
//  2. A configuration file (TOML, YAML, or JSON with comments)
//  3. Environment variables with the DOCIO_ prefix
//
// Settings are addressed by dot-separated paths such as "io.chunk_size".
// Typed snapshots of each section are available through accessors:
//
//	cfg := config.New(config.WithFile(config.DefaultPath()))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	chunk := cfg.IO().ChunkSize
//
// Accessors never fail. A value of the wrong type falls back to the default
// and is recorded; call ConfigErrors after loading to surface such mistakes.
package config
