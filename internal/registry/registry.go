// Package registry holds per-participant analysis weights, ranks, and the
// primary-ICP designation for one study. A registry is constructed per study
// and handed to the orchestrator and aggregator; it is never shared across
// studies.
package registry

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ErrInvalidWeight is returned when a non-positive weight is supplied.
var ErrInvalidWeight = errors.New("weight must be strictly positive")

// Entry is one participant's weight configuration. Rank 0 means unranked.
type Entry struct {
	ParticipantID string  `json:"participant_id"`
	Weight        float64 `json:"weight"`
	Rank          int     `json:"rank,omitempty"`
	PrimaryICP    bool    `json:"is_primary_icp"`
	Notes         string  `json:"notes,omitempty"`
}

// Registry stores weight entries in insertion order. All mutation happens
// before a session starts; during a session the registry is read-only.
type Registry struct {
	mu       sync.RWMutex
	entries  []Entry
	weighted bool
}

// New creates an empty registry. When weighted is false, AnalysisWeights
// returns 1.0 for every participant regardless of configured weights.
func New(weighted bool) *Registry {
	return &Registry{weighted: weighted}
}

// FromEntries builds a registry from a caller-supplied entry list, keeping
// the entries verbatim. The result may be invalid; run Validate before
// starting a session.
func FromEntries(weighted bool, entries []Entry) *Registry {
	r := New(weighted)
	r.entries = make([]Entry, len(entries))
	copy(r.entries, entries)
	return r
}

// SetWeight creates or updates a participant's entry. A PrimaryICP entry
// clears the flag on every other entry in the same critical section, so no
// reader can observe two primaries.
func (r *Registry) SetWeight(participantID string, weight float64, rank int, primaryICP bool, notes string) error {
	if weight <= 0 {
		return fmt.Errorf("participant %s: %w (got %g)", participantID, ErrInvalidWeight, weight)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if primaryICP {
		for i := range r.entries {
			r.entries[i].PrimaryICP = false
		}
	}

	for i := range r.entries {
		if r.entries[i].ParticipantID == participantID {
			r.entries[i].Weight = weight
			r.entries[i].Rank = rank
			r.entries[i].PrimaryICP = primaryICP
			r.entries[i].Notes = notes
			return nil
		}
	}

	r.entries = append(r.entries, Entry{
		ParticipantID: participantID,
		Weight:        weight,
		Rank:          rank,
		PrimaryICP:    primaryICP,
		Notes:         notes,
	})
	return nil
}

// SetPrimaryICP designates an existing participant as the primary ICP,
// clearing the flag elsewhere atomically. Returns false if the participant
// has no entry.
func (r *Registry) SetPrimaryICP(participantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.entries {
		if r.entries[i].ParticipantID == participantID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	for i := range r.entries {
		r.entries[i].PrimaryICP = i == idx
	}
	return true
}

// Entry returns a participant's entry by id.
func (r *Registry) Entry(participantID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ParticipantID == participantID {
			return e, true
		}
	}
	return Entry{}, false
}

// PrimaryICP returns the designated primary ICP participant id, if any.
func (r *Registry) PrimaryICP() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.PrimaryICP {
			return e.ParticipantID, true
		}
	}
	return "", false
}

// Entries returns a copy of all entries in insertion order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Weighted reports whether weighted analysis is enabled for the study.
func (r *Registry) Weighted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.weighted
}

// AnalysisWeights returns the canonical normalized weights: each weight
// divided by the total, so the values sum to 1. When weighting is disabled
// every participant gets 1.0.
func (r *Registry) AnalysisWeights() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	weights := make(map[string]float64, len(r.entries))
	if !r.weighted {
		for _, e := range r.entries {
			weights[e.ParticipantID] = 1.0
		}
		return weights
	}

	var total float64
	for _, e := range r.entries {
		total += e.Weight
	}
	if total == 0 {
		for _, e := range r.entries {
			weights[e.ParticipantID] = 1.0
		}
		return weights
	}

	for _, e := range r.entries {
		weights[e.ParticipantID] = e.Weight / total
	}
	return weights
}

// AverageOneWeights is a derived view where the mean weight is 1 (each
// canonical weight multiplied by the participant count). It exists for
// display; the aggregator uses AnalysisWeights only.
func (r *Registry) AverageOneWeights() map[string]float64 {
	weights := r.AnalysisWeights()
	n := float64(len(weights))

	r.mu.RLock()
	weighted := r.weighted
	r.mu.RUnlock()
	if !weighted || n == 0 {
		return weights
	}

	for id, w := range weights {
		weights[id] = w * n
	}
	return weights
}

// Ranked returns entries ordered for reporting: the primary ICP first, then
// explicitly ranked entries by ascending rank, then unranked entries by
// descending weight. The sort is stable, so equal keys keep insertion order.
func (r *Registry) Ranked() []Entry {
	entries := r.Entries()

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PrimaryICP != b.PrimaryICP {
			return a.PrimaryICP
		}
		if sortRank(a) != sortRank(b) {
			return sortRank(a) < sortRank(b)
		}
		return a.Weight > b.Weight
	})
	return entries
}

func sortRank(e Entry) float64 {
	if e.Rank == 0 {
		return math.Inf(1)
	}
	return float64(e.Rank)
}

// Validate reports configuration problems: non-positive weights, duplicate
// participant ids, and more than one primary ICP. An empty result means the
// registry is safe to use for a session.
func (r *Registry) Validate() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []string
	seen := make(map[string]bool, len(r.entries))
	icpCount := 0

	for _, e := range r.entries {
		if e.Weight <= 0 {
			errs = append(errs, fmt.Sprintf("participant %s has non-positive weight %g", e.ParticipantID, e.Weight))
		}
		if seen[e.ParticipantID] {
			errs = append(errs, fmt.Sprintf("duplicate participant id %s", e.ParticipantID))
		}
		seen[e.ParticipantID] = true
		if e.PrimaryICP {
			icpCount++
		}
	}
	if icpCount > 1 {
		errs = append(errs, fmt.Sprintf("%d entries flagged as primary ICP, at most one allowed", icpCount))
	}
	return errs
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
