// Package catalog is the template registry: the set of blueprints
// environments can be created from.
//
// The registry starts from a built-in seed set and layers persisted
// definitions from the config directory on top. Registered templates are
// validated once, at registration; environments already built from a
// template are never invalidated by later catalog changes. A filesystem
// watcher picks up definition files edited while the server runs.
package catalog
