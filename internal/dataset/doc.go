// Package dataset reads legend datasets from disk: base legends (met.no
// legends.json, row JSON or legend.csv), provider patch files (JSON or YAML,
// validated against an embedded JSON schema) and icon asset manifests.
package dataset
