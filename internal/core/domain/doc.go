// Package domain defines the core entities for docugraph.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Space, Page: transient results of a wiki crawl
//   - IndexedNode: the unit written into the graph store
//   - IndexProfile: a label plus its vector and keyword index names
//   - Settings: the explicit configuration object passed to constructors
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
