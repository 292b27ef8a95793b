// Package semantic implements memory.SemanticStore on top of Dgraph,
// giving the durable tier real persistence across restarts. Adapted from
// the teacher's core/persistence.DgraphClient, which already wraps the
// dgo/v230 client with a retrying connect and mutate/query helpers; this package
// only adds the Claim<->node mapping spec.md's store contract needs.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/dgo/v230/protos/api"

	"github.com/arth-22/nexuscortex/core/clock"
	"github.com/arth-22/nexuscortex/core/latent"
	"github.com/arth-22/nexuscortex/core/memory"
	"github.com/arth-22/nexuscortex/core/persistence"
)

const schema = `
subject: string @index(exact) .
predicate: string .
claim_type: string .
stable_since: int .
embedding: float .
`

// Store is a Dgraph-backed memory.SemanticStore.
type Store struct {
	client *persistence.DgraphClient
}

// New connects to Dgraph and ensures the schema used by Put/GetBySubject
// is present.
func New(cfg *persistence.DgraphConfig) (*Store, error) {
	client, err := persistence.NewDgraphClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("semantic store: %w", err)
	}
	if err := client.SetSchema(schema); err != nil {
		return nil, fmt.Errorf("semantic store: schema: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error { return s.client.Close() }

type node struct {
	UID         string            `json:"uid,omitempty"`
	Subject     string            `json:"subject"`
	Predicate   string            `json:"predicate"`
	ObjectKind  memory.ValueKind  `json:"object_kind"`
	ObjectText  string            `json:"object_text,omitempty"`
	ObjectNum   float64           `json:"object_num,omitempty"`
	ObjectRef   string            `json:"object_ref,omitempty"`
	ClaimType   string            `json:"claim_type"`
	FirstSeen   uint64            `json:"first_seen"`
	StableSince uint64            `json:"stable_since"`
	Occurrences int               `json:"occurrences"`
	Embedding   []float32         `json:"embedding,omitempty"`
}

func toNode(e memory.SemanticEntry) node {
	return node{
		Subject:     string(e.Claim.Subject),
		Predicate:   e.Claim.Predicate,
		ObjectKind:  e.Claim.Object.Kind,
		ObjectText:  e.Claim.Object.Text,
		ObjectNum:   e.Claim.Object.Number,
		ObjectRef:   string(e.Claim.Object.EntityRef),
		ClaimType:   e.Claim.Modality.String(),
		FirstSeen:   uint64(e.FirstSeen),
		StableSince: uint64(e.StableSince),
		Occurrences: e.Occurrences,
		Embedding:   e.Claim.Embedding,
	}
}

func fromNode(n node) memory.SemanticEntry {
	modality := memory.Asserted
	switch n.ClaimType {
	case "inferred":
		modality = memory.Inferred
	case "observed":
		modality = memory.Observed
	}
	claim := memory.Claim{
		Subject:   memory.EntityId(n.Subject),
		Predicate: n.Predicate,
		Modality:  modality,
		FirstSeen: clock.Tick(n.FirstSeen),
		Embedding: n.Embedding,
		Intensity: memory.MaxPromotedIntensity,
	}
	switch n.ObjectKind {
	case memory.ValueNumber:
		claim.Object = memory.NumberValue(n.ObjectNum)
	case memory.ValueEntityRef:
		claim.Object = memory.RefValue(memory.EntityId(n.ObjectRef))
	default:
		claim.Object = memory.TextValue(n.ObjectText)
	}
	return memory.SemanticEntry{
		EpisodicEntry: memory.EpisodicEntry{
			Candidate: memory.Candidate{
				ID:        n.Subject + "\x00" + n.Predicate,
				Claim:     claim,
				FirstSeen: clock.Tick(n.FirstSeen),
			},
			Occurrences: n.Occurrences,
		},
		StableSince: clock.Tick(n.StableSince),
	}
}

func (s *Store) Put(ctx context.Context, entry memory.SemanticEntry) error {
	payload, err := json.Marshal(toNode(entry))
	if err != nil {
		return fmt.Errorf("semantic store: marshal: %w", err)
	}
	_, err = s.client.Mutate(ctx, &api.Mutation{SetJson: payload, CommitNow: true})
	if err != nil {
		return fmt.Errorf("semantic store: mutate: %w", err)
	}
	return nil
}

func (s *Store) GetBySubject(ctx context.Context, subject memory.EntityId) ([]memory.SemanticEntry, error) {
	q := `query q($subject: string) {
		entries(func: eq(subject, $subject)) {
			uid subject predicate object_kind object_text object_num object_ref
			claim_type first_seen stable_since occurrences embedding
		}
	}`
	resp, err := s.client.Query(ctx, q, map[string]string{"$subject": string(subject)})
	if err != nil {
		return nil, fmt.Errorf("semantic store: query: %w", err)
	}
	var parsed struct {
		Entries []node `json:"entries"`
	}
	if err := json.Unmarshal(resp.GetJson(), &parsed); err != nil {
		return nil, fmt.Errorf("semantic store: unmarshal: %w", err)
	}
	out := make([]memory.SemanticEntry, 0, len(parsed.Entries))
	for _, n := range parsed.Entries {
		out = append(out, fromNode(n))
	}
	return out, nil
}

// TopK pulls every entry and ranks by cosine similarity client-side. Dgraph
// has no native vector index in the schema declared above; a production
// deployment would add one (or a side HNSW index), but the core's contract
// only requires the put/get_by_subject/top_k surface be correct, not that
// it be index-accelerated.
func (s *Store) TopK(ctx context.Context, queryEmbedding []float32, k int) ([]memory.SemanticEntry, error) {
	q := `{
		entries(func: has(subject)) {
			uid subject predicate object_kind object_text object_num object_ref
			claim_type first_seen stable_since occurrences embedding
		}
	}`
	resp, err := s.client.Query(ctx, q, nil)
	if err != nil {
		return nil, fmt.Errorf("semantic store: query: %w", err)
	}
	var parsed struct {
		Entries []node `json:"entries"`
	}
	if err := json.Unmarshal(resp.GetJson(), &parsed); err != nil {
		return nil, fmt.Errorf("semantic store: unmarshal: %w", err)
	}
	entries := make([]memory.SemanticEntry, 0, len(parsed.Entries))
	for _, n := range parsed.Entries {
		entries = append(entries, fromNode(n))
	}
	rankByCosine(entries, queryEmbedding)
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries, nil
}

func rankByCosine(entries []memory.SemanticEntry, query []float32) {
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
