// Package tree provides the generic value model shared by profiles, recipes
// and rendered templates.
//
// A tree is built from *Map (an insertion-ordered string map), []any and
// scalars. The package offers:
//
//   - YAML parsing and dumping that keeps key order and octal file modes
//   - Merge, the deep merge used throughout rigger
//   - Transform, a leaf visitor that tracks the dotted path of every value
//   - Lookup and Unset for dotted-path access
//
// # Merge
//
//	base:    {a: 1, b: {x: 1}, ports: [80, 443]}
//	overlay: {b: {y: 2}, ports: [8080]}
//	result:  {a: 1, b: {x: 1, y: 2}, ports: [8080]}
package tree
