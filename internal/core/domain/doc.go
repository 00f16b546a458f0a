// Package domain defines the core business entities for refshelf.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ContentRecord: An ingested file with its extracted text and tags
//   - Tag / Vocabulary: The closed set of category labels
//   - HierarchyMap: Leaf to parent tag expansion
//   - PostRef / PostContext: Carousel grouping parsed from file names
//   - Settings: Runtime configuration
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
