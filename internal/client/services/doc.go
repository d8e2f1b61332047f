// Package services holds the application services of the vault: account
// management with on-demand code generation, the PIN gate, and the sync
// reconciliation primitives used by a device-to-device transport.
//
// Every service works through store.Store, so all calls are serialized by the
// store lock. Services never log seeds, PINs or session tokens.
package services
