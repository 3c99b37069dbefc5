// Package memory provides an in-memory GraphStore.
//
// It follows the semantics the pipeline relies on from Neo4j: index
// creation is IF NOT EXISTS, pending-embedding batches are filled up to the
// limit, vector scores are cosine similarity mapped to [0,1], and keyword
// matching is by lower-cased term. It backs the service tests and the
// --store=memory mode.
package memory
