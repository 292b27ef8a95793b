// Package episodic implements memory.EpisodicStore on top of Redis. Key
// TTLs give eviction of un-promoted entries for free, a direct expression
// of spec.md's episodic_ttl_ticks rule. Grounded on the teacher pack's
// itsneelabh-gomind/ui/session_redis.go, which uses the same
// redis.ParseURL + redis.Client shape for a TTL-backed store.
package episodic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arth-22/nexuscortex/core/latent"
	"github.com/arth-22/nexuscortex/core/memory"
)

const keyPrefix = "nexuscortex:episodic:"

// Store is a Redis-backed memory.EpisodicStore.
type Store struct {
	client *redis.Client
}

// New dials Redis at redisURL (e.g. "redis://localhost:6379/0") and
// verifies connectivity before returning.
func New(ctx context.Context, redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("episodic store: invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("episodic store: redis ping: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Put(ctx context.Context, entry memory.EpisodicEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("episodic store: marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+entry.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("episodic store: set: %w", err)
	}
	return s.client.SAdd(ctx, subjectIndexKey(entry.Claim.Subject), entry.ID).Err()
}

func (s *Store) GetBySubject(ctx context.Context, subject memory.EntityId) ([]memory.EpisodicEntry, error) {
	ids, err := s.client.SMembers(ctx, subjectIndexKey(subject)).Result()
	if err != nil {
		return nil, fmt.Errorf("episodic store: smembers: %w", err)
	}
	var out []memory.EpisodicEntry
	for _, id := range ids {
		entry, ok, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

// TopK scans all live entries and ranks by cosine similarity. Redis has no
// native vector index here; this is a linear scan appropriate for the
// bounded working-set sizes this kernel deals with (the durable, larger
// corpus lives in the semantic store, which is expected to scale further).
func (s *Store) TopK(ctx context.Context, queryEmbedding []float32, k int) ([]memory.EpisodicEntry, error) {
	var cursor uint64
	var candidates []memory.EpisodicEntry
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("episodic store: scan: %w", err)
		}
		for _, key := range keys {
			raw, err := s.client.Get(ctx, key).Bytes()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("episodic store: get: %w", err)
			}
			var entry memory.EpisodicEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				continue
			}
			candidates = append(candidates, entry)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sortByCosineSimilarity(candidates, queryEmbedding)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}

func (s *Store) get(ctx context.Context, id string) (memory.EpisodicEntry, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return memory.EpisodicEntry{}, false, nil
	}
	if err != nil {
		return memory.EpisodicEntry{}, false, fmt.Errorf("episodic store: get: %w", err)
	}
	var entry memory.EpisodicEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return memory.EpisodicEntry{}, false, fmt.Errorf("episodic store: unmarshal: %w", err)
	}
	return entry, true, nil
}

func subjectIndexKey(subject memory.EntityId) string {
	return keyPrefix + "by-subject:" + string(subject)
}

func sortByCosineSimilarity(entries []memory.EpisodicEntry, query []float32) {
	scores := make([]float32, len(entries))
	for i, e := range entries {
		scores[i] = latent.CosineSimilarity(e.Claim.Embedding, query)
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && scores[j] > scores[j-1]; j-- {
			scores[j], scores[j-1] = scores[j-1], scores[j]
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
