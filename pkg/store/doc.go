// Package store provides the durable record store for the team dashboard.
//
// # Overview
//
// The store is a read-through/write-through cache of whole record collections,
// one blob per collection kind. It sits on top of a Medium: a small key/value
// blob interface with three implementations:
//
//   - RedisMedium: a Redis string per collection (shared across processes)
//   - FileMedium: one JSON file per collection, written atomically
//   - MemoryMedium: process-local map, used for ephemeral sessions and tests
//
// The store keeps no cache of its own. Every Load re-reads the medium.
//
// # Namespacing
//
// All keys and channels are namespaced by instance name so several dashboards
// can share one Redis server without interference.
//
// Collections: teamboard:{instance_name}:collection:{kind}
// Notifications channel: teamboard:{instance_name}:notifications
//
// # Usage Example
//
//	medium := store.NewRedisMedium(&redis.Options{Addr: "localhost:6379"})
//	s, err := store.New(medium, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	tasks, err := s.Load(ctx, record.KindTasks)
//	if store.IsNotFound(err) {
//		// cold start: hydrate from the external source
//	}
//
//	// Confirmed single-field update
//	err = s.UpsertField(ctx, record.KindTasks, "1", record.FieldStatus, "Done")
package store
