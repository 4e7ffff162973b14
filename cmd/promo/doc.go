// Package main hosts the promo CLI entrypoint and command graph.
//
// The cobra command tree resolves configuration once per invocation, applies
// flag overrides, and hands off to the pipeline (buckets, pairs) or the HTTP
// API (serve). Keep this package lean: behavior belongs in internal packages.
package main
