// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file discovery, parsing, expression
// evaluation and the translation of decoded blocks into config.Fragments.
package hcl
