// Package repo provides the repository facades consumed by
// presentation-layer view models.
//
// Three repositories cover the journal's entities:
//
//   - IdentityRepository: the single account identity — profile,
//     preferences, premium status, statistics counters, and the
//     identity-wide cascade delete
//   - PersonaRepository: authoring contexts with the default-persona
//     invariant, case-insensitive name uniqueness and tier limits
//   - PostRepository: journal entries with media, search, memory-recall
//     queries, statistics and bulk deletes
//
// Every repository takes a *store.Engine at construction; nothing
// bypasses the engine. Repository methods may issue several sequential
// engine calls (composite search, per-persona tallies) with no internal
// parallelism — results are consistent as of each individual call.
//
// Media attachments have no repository of their own: they are created
// inside PostRepository.Create and removed only when their post is
// deleted.
//
// Errors: store.ErrNotFound when an update/delete target is missing,
// ErrPersonaNotFound when a post references a nonexistent persona,
// model.ErrInvalidData for domain constraint violations. Failures
// surface synchronously; there is no retry logic.
package repo
