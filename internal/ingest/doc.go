// Package ingest turns scraper output into catalog records.
//
// The flow is:
//
//	scraper JSON → RawWork → Metadata() → catalog.WorkMetadata → Store.UpsertWork
//
// Each batch gets a uuid batch id that ties the archived raw payload to the
// per-work audit events it produced. Voice actors scraped without an id get a
// stable id derived from their name (VoiceActorID).
package ingest
