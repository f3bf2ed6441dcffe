// Package config holds habitat's runtime configuration: resource limits,
// control-loop intervals, cost rates, and the YAML storage used to persist
// dynamic entities such as environment templates.
//
// Configuration is loaded from a single YAML file (habitat.yaml in the config
// directory) with every field optional; DefaultConfig supplies the values the
// original deployment shipped with. Validation helpers in this package are
// shared by the template catalog for definition validation.
package config
