// Package output provides output formatting for simsync-cli.
//
// Supported formats:
//   - table: aligned columns via text/tabwriter (default)
//   - json: indented JSON
//   - yaml: YAML via gopkg.in/yaml.v3, keyed like the JSON form
package output
