// Package redis is a Redis-backed registry.Store, for a fast, optionally
// TTL'd signature cache shared across interpreter processes — handy when
// signatures are expensive to derive (e.g. fetched from an OCI registry at
// the outer layer) and worth caching with automatic expiry.
package redis
