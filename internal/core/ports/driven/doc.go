// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RecordStore: ContentRecord persistence and ranked queries
//   - HashStore: Dedup index persistence
//   - PostContextStore: Carousel cache persistence
//   - TextExtractor: Per-kind raw text extraction (PDF, OCR, plain text)
//   - PerceptualHasher: Image fingerprinting for dedup
//   - ImagePreparer: Image payload encoding and dimension probing
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - VisionModel: Classification service. Without it every file is stored
//     with the UNCATEGORIZED tag.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or extractor package
package driven
