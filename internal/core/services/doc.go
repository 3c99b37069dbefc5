// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The wiki pipeline is Crawler (spaces, pages, children) feeding
// IndexStore.FullRefresh. Relational rows enter through IngestService and
// get their embeddings from IndexStore.Backfill. SearchService queries the
// resulting indexes.
package services
