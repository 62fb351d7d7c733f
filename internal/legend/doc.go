// Package legend resolves weather symbol identifiers from different forecast
// providers to a single canonical icon legend.
//
// A base Store is loaded once from the base legend dataset. Each provider that
// uses its own identifier scheme gets an augmented Store, produced by applying
// that provider's Patch to the base. Stores are immutable once built and may be
// shared by any number of goroutines without locking.
//
// Three identifier schemes co-exist: the legend code (icon file name, e.g.
// "clearsky_day"), the legacy numeric id used by the previous icon set, and the
// provider-facing symbol id (plus aliases added by patches).
package legend
