// Package memory implements the three-tier claim pipeline described in
// spec.md §4.6: an Observer synthesizes Claims from perception into a
// bounded working set, a Consolidator promotes them through Episodic and
// Semantic tiers, and two Store implementations (episodic/, semantic/)
// back the tiers with Redis and Dgraph respectively. The interfaces here
// mirror the teacher's CognitiveMemory abstraction in this same file,
// narrowed to the put/get_by_subject/top_k surface spec.md requires.
package memory

import (
	"context"
	"time"

	"github.com/arth-22/nexuscortex/core/clock"
)

// EntityId names the subject of a Claim.
type EntityId string

// ClaimModality classifies how a Claim came to be known.
type ClaimModality int

const (
	Asserted ClaimModality = iota
	Inferred
	Observed
)

func (m ClaimModality) String() string {
	switch m {
	case Asserted:
		return "asserted"
	case Inferred:
		return "inferred"
	case Observed:
		return "observed"
	default:
		return "unknown"
	}
}

// ValueKind discriminates ClaimValue's payload.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueNumber
	ValueEntityRef
)

// ClaimValue is the object half of a (subject, predicate, object) Claim.
// Exactly one of Text/Number/EntityRef is meaningful, selected by Kind.
type ClaimValue struct {
	Kind      ValueKind
	Text      string
	Number    float64
	EntityRef EntityId
}

func TextValue(s string) ClaimValue    { return ClaimValue{Kind: ValueText, Text: s} }
func NumberValue(n float64) ClaimValue { return ClaimValue{Kind: ValueNumber, Number: n} }
func RefValue(e EntityId) ClaimValue   { return ClaimValue{Kind: ValueEntityRef, EntityRef: e} }

// Claim is the atomic memory unit: a single (subject, predicate, object)
// fact with provenance.
type Claim struct {
	Subject   EntityId
	Predicate string
	Object    ClaimValue
	Modality  ClaimModality
	FirstSeen clock.Tick
	Intensity float32
	Embedding []float32 // populated by the observer for top_k search
}

// maxIntensityNorm is the intensity at which derived confidence saturates
// to 1.0. It equals the working->episodic intensity promotion threshold,
// so a candidate that would already promote on intensity alone also reads
// as maximally confident.
const maxIntensityNorm = 3.0

// MaxPromotedIntensity is the intensity recorded for entries reconstructed
// from a store that does not round-trip intensity itself (e.g. the
// semantic tier, which only needs Confidence() to stay above its
// promotion floor once restored).
const MaxPromotedIntensity = maxIntensityNorm

// Confidence derives a [0,1] confidence score from accumulated intensity.
// spec.md's Episodic->Semantic rule references "confidence" without
// defining it in terms of the Claim fields it specifies; this is the
// documented resolution (see DESIGN.md).
func (c Claim) Confidence() float32 {
	v := c.Intensity / maxIntensityNorm
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// candidateID derives a stable dedup key for a (subject, predicate) pair
// so reinforcing observations increment the same working-set entry rather
// than appending duplicates.
func candidateID(subject EntityId, predicate string) string {
	return string(subject) + "\x00" + predicate
}

// Candidate is a Claim awaiting promotion, held in SharedState's bounded
// working set.
type Candidate struct {
	ID        string
	Claim     Claim
	FirstSeen clock.Tick
	LastSeen  clock.Tick
}

// NewCandidate seeds a fresh working-set entry with full reinforcement
// intensity, per spec.md's Observer rule.
func NewCandidate(claim Claim, now clock.Tick) Candidate {
	claim.Intensity = 1.0
	claim.FirstSeen = now
	return Candidate{
		ID:        candidateID(claim.Subject, claim.Predicate),
		Claim:     claim,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// Reinforce increments a candidate's intensity by the fixed per-tick
// reinforcement step and advances LastSeen.
func (c Candidate) Reinforce(now clock.Tick) Candidate {
	next := c
	next.Claim.Intensity += 0.5
	next.LastSeen = now
	return next
}

// EpisodicEntry is a Candidate promoted into the episodic tier. It carries
// an explicit occurrence count distinct from intensity reinforcement,
// since an entry can be reinforced many times within a single occurrence
// window.
type EpisodicEntry struct {
	Candidate
	Occurrences int
}

// PromoteToEpisodic lifts a working-set candidate into the episodic tier.
func PromoteToEpisodic(c Candidate) EpisodicEntry {
	return EpisodicEntry{Candidate: c, Occurrences: 1}
}

// SemanticEntry is an EpisodicEntry promoted into durable, long-lived
// memory. StableSince records the tick at which it crossed the promotion
// threshold. The embedded EpisodicEntry is carried over whole; nothing is
// filtered out by intensity at this tier.
type SemanticEntry struct {
	EpisodicEntry
	StableSince clock.Tick
}

// PromoteToSemantic lifts an episodic entry into the semantic tier
// unchanged, stamping StableSince with now. It drops no evidence.
func PromoteToSemantic(e EpisodicEntry, now clock.Tick) SemanticEntry {
	return SemanticEntry{EpisodicEntry: e, StableSince: now}
}

// EpisodicStore is the in-memory (here: Redis-backed) tier. TTL eviction
// implements spec.md's episodic_ttl_ticks demotion rule: entries that are
// never promoted simply expire.
type EpisodicStore interface {
	Put(ctx context.Context, entry EpisodicEntry, ttl time.Duration) error
	GetBySubject(ctx context.Context, subject EntityId) ([]EpisodicEntry, error)
	TopK(ctx context.Context, queryEmbedding []float32, k int) ([]EpisodicEntry, error)
	Delete(ctx context.Context, id string) error
}

// SemanticStore is the durable tier (here: Dgraph-backed).
type SemanticStore interface {
	Put(ctx context.Context, entry SemanticEntry) error
	GetBySubject(ctx context.Context, subject EntityId) ([]SemanticEntry, error)
	TopK(ctx context.Context, queryEmbedding []float32, k int) ([]SemanticEntry, error)
}
