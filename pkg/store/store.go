package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dyluth/teamboard/pkg/record"
)

// Store persists whole record collections, one per kind, into a Medium.
// It is safe for concurrent use if the medium is.
type Store struct {
	medium       Medium
	instanceName string
}

// New creates a store for the specified instance.
// Returns an error if instanceName is empty or medium is nil.
func New(medium Medium, instanceName string) (*Store, error) {
	if medium == nil {
		return nil, fmt.Errorf("storage medium cannot be nil")
	}
	if strings.TrimSpace(instanceName) == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Store{
		medium:       medium,
		instanceName: instanceName,
	}, nil
}

// InstanceName returns the namespace the store writes under.
func (s *Store) InstanceName() string {
	return s.instanceName
}

// Medium returns the underlying medium.
func (s *Store) Medium() Medium {
	return s.medium
}

// Ping verifies the medium is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.medium.Ping(ctx)
}

// Close closes the medium. Implements io.Closer.
func (s *Store) Close() error {
	return s.medium.Close()
}

// Load reads the persisted collection for kind.
// Returns (nil, ErrNotFound) on a cold start. Use IsNotFound() to check.
func (s *Store) Load(ctx context.Context, kind record.Kind) (record.Collection, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	data, err := s.medium.Get(ctx, CollectionKey(s.instanceName, kind))
	if err != nil {
		return nil, err
	}

	coll, err := decodeCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize %s: %w", kind, err)
	}

	return coll, nil
}

// Save validates and persists the full collection, replacing any prior value.
func (s *Store) Save(ctx context.Context, kind record.Kind, coll record.Collection) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if err := coll.Validate(); err != nil {
		return fmt.Errorf("invalid %s collection: %w", kind, err)
	}

	data, err := encodeCollection(coll)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", kind, err)
	}

	if err := s.medium.Set(ctx, CollectionKey(s.instanceName, kind), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", kind, err)
	}

	return nil
}

// UpsertField sets one field on the record with matching id and persists the collection.
// It is a no-op if the collection or the record is absent.
func (s *Store) UpsertField(ctx context.Context, kind record.Kind, id, field string, value any) error {
	return s.UpsertFields(ctx, kind, id, map[string]any{field: value})
}

// UpsertFields sets several fields on one record in a single atomic read-modify-write.
// It is a no-op if the collection or the record is absent.
func (s *Store) UpsertFields(ctx context.Context, kind record.Kind, id string, fields map[string]any) error {
	if err := kind.Validate(); err != nil {
		return err
	}

	err := s.medium.Update(ctx, CollectionKey(s.instanceName, kind), func(current []byte) ([]byte, error) {
		coll, err := decodeCollection(current)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize %s: %w", kind, err)
		}

		i := coll.Index(id)
		if i < 0 {
			return nil, nil
		}
		coll[i] = coll[i].With(fields)

		return encodeCollection(coll)
	})
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", kind, id, err)
	}

	return nil
}

// Clear removes persisted collections so the next Load is a cold start.
// With no kinds given, every known kind is cleared.
func (s *Store) Clear(ctx context.Context, kinds ...record.Kind) error {
	if len(kinds) == 0 {
		kinds = record.Kinds()
	}

	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		if err := kind.Validate(); err != nil {
			return err
		}
		keys = append(keys, CollectionKey(s.instanceName, kind))
	}

	if err := s.medium.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear collections: %w", err)
	}

	return nil
}

func encodeCollection(coll record.Collection) ([]byte, error) {
	if coll == nil {
		coll = record.Collection{}
	}
	return json.Marshal(coll)
}

func decodeCollection(data []byte) (record.Collection, error) {
	var coll record.Collection
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, err
	}
	if coll == nil {
		coll = record.Collection{}
	}
	if err := coll.Validate(); err != nil {
		return nil, err
	}
	return coll, nil
}
