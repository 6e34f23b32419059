// Package config defines the format-agnostic model of an operator network
// definition, along with the normalization and validation rules every loader
// funnels its output through.
//
// Format-specific parsing lives in the yamlcfg and hclcfg packages; the
// engine only ever sees the types declared here.
package config
