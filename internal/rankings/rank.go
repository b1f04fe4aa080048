// Package rankings orders launched products by net votes inside a launch-date window.
package rankings

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// Window bounds a product's launch date as [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Candidate is a product considered for ranking.
type Candidate struct {
	ProductID  uuid.UUID
	Status     enums.ProductStatus
	LaunchDate *time.Time
}

// Entry is one ranked product.
type Entry struct {
	ProductID  uuid.UUID `json:"product_id"`
	LaunchDate time.Time `json:"launch_date"`
	NetVotes   int64     `json:"net_votes"`
	Rank       int       `json:"rank"`
}

// Rank filters candidates to launched products inside the window and orders them.
// Ties on net votes go to the earlier launch date, then to the lower product id, so
// the output never depends on input order. Ranks are 1..N without gaps.
func Rank(candidates []Candidate, tallies map[uuid.UUID]int64, window Window) []Entry {
	entries := make([]Entry, 0, len(candidates))
	seen := make(map[uuid.UUID]struct{}, len(candidates))
	for _, c := range candidates {
		if c.Status != enums.ProductStatusLaunched || c.LaunchDate == nil || !window.Contains(*c.LaunchDate) {
			continue
		}
		if _, dup := seen[c.ProductID]; dup {
			continue
		}
		seen[c.ProductID] = struct{}{}
		entries = append(entries, Entry{
			ProductID:  c.ProductID,
			LaunchDate: *c.LaunchDate,
			NetVotes:   tallies[c.ProductID],
		})
	}
	order(entries)
	return entries
}

func order(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.NetVotes != b.NetVotes {
			return a.NetVotes > b.NetVotes
		}
		if !a.LaunchDate.Equal(b.LaunchDate) {
			return a.LaunchDate.Before(b.LaunchDate)
		}
		return bytes.Compare(a.ProductID[:], b.ProductID[:]) < 0
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
