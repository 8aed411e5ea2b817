// Package merge combines movie records from the two metadata providers and
// collapses repeated title candidates from video analysis.
package merge

import (
	"sort"
	"strings"

	"github.com/filmscout/filmscout/internal/movie"
)

const (
	// MaxPrimaryRecords caps how many TMDB results are considered.
	MaxPrimaryRecords = 5
	// MaxSecondaryRecords caps how many OMDb results are considered.
	MaxSecondaryRecords = 3
	// MaxCandidates caps the output of both dedupe policies.
	MaxCandidates = 3
	// RepeatWeight scales the confidence added by each repeated observation.
	RepeatWeight = 0.3
)

// MergeMovieRecords folds secondary (OMDb) records into primary (TMDB)
// records. A secondary record that matches a primary one by title
// (case-insensitive) or IMDb id enriches it; the rest are appended.
// Inputs are left untouched.
func MergeMovieRecords(primary, secondary []movie.Record) []movie.Record {
	out := make([]movie.Record, 0, min(len(primary), MaxPrimaryRecords)+min(len(secondary), MaxSecondaryRecords))

	for _, r := range head(primary, MaxPrimaryRecords) {
		if !r.Valid() {
			continue
		}
		rec := r.Clone()
		if rec.Origin == "" {
			rec.Origin = movie.OriginTMDB
		}
		out = append(out, rec)
	}
	primaryCount := len(out)

	for _, r := range head(secondary, MaxSecondaryRecords) {
		if !r.Valid() {
			continue
		}
		if idx := findMatch(out[:primaryCount], r); idx >= 0 {
			enrich(&out[idx], r)
			continue
		}
		rec := r.Clone()
		rec.Origin = movie.OriginOMDb
		out = append(out, rec)
	}

	return out
}

func head(records []movie.Record, n int) []movie.Record {
	if len(records) > n {
		return records[:n]
	}
	return records
}

func findMatch(primary []movie.Record, candidate movie.Record) int {
	title := strings.ToLower(candidate.Title)
	for i, p := range primary {
		if strings.ToLower(p.Title) == title {
			return i
		}
		if candidate.IMDbID != "" && p.IMDbID == candidate.IMDbID {
			return i
		}
	}
	return -1
}

func enrich(dst *movie.Record, src movie.Record) {
	if src.IMDbID != "" {
		dst.IMDbID = src.IMDbID
	}
	if src.Director != "" {
		dst.Director = src.Director
	}
	if len(src.Cast) > 0 {
		dst.Cast = append([]string(nil), src.Cast...)
	}
	if src.Type != "" {
		dst.Type = src.Type
	}
	if dst.PosterURL == "" && src.PosterURL != "" && src.PosterURL != movie.NotAvailable {
		dst.PosterURL = src.PosterURL
	}
	dst.Origin = movie.OriginMerged
}

// DedupeCandidatesAccumulating collapses candidates sharing a
// case-insensitive title. Each repeat raises the kept confidence by
// RepeatWeight times its own confidence, capped at 1. Results are ordered by
// confidence then observation count.
func DedupeCandidatesAccumulating(candidates []movie.Candidate) []movie.Candidate {
	order, byKey := group(candidates, func(kept *movie.Candidate, next movie.Candidate) {
		kept.Confidence = min(kept.Confidence+next.Confidence*RepeatWeight, 1.0)
		kept.Observations++
	})

	out := collect(order, byKey)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Observations > out[j].Observations
	})
	return capCandidates(out)
}

// DedupeCandidatesKeepBest collapses candidates sharing a case-insensitive
// title, keeping only the single most confident observation of each.
func DedupeCandidatesKeepBest(candidates []movie.Candidate) []movie.Candidate {
	order, byKey := group(candidates, func(kept *movie.Candidate, next movie.Candidate) {
		if next.Confidence > kept.Confidence {
			*kept = next
		}
	})

	out := collect(order, byKey)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return capCandidates(out)
}

// group indexes candidates by key in first-seen order, calling fold for
// every repeat of a key.
func group(candidates []movie.Candidate, fold func(kept *movie.Candidate, next movie.Candidate)) ([]string, map[string]*movie.Candidate) {
	order := make([]string, 0, len(candidates))
	byKey := make(map[string]*movie.Candidate, len(candidates))

	for _, c := range candidates {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		c.Confidence = movie.Clamp01(c.Confidence)
		if c.Observations < 1 {
			c.Observations = 1
		}

		key := c.Key()
		if kept, ok := byKey[key]; ok {
			fold(kept, c)
			continue
		}
		cp := c
		byKey[key] = &cp
		order = append(order, key)
	}
	return order, byKey
}

func collect(order []string, byKey map[string]*movie.Candidate) []movie.Candidate {
	out := make([]movie.Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

func capCandidates(c []movie.Candidate) []movie.Candidate {
	if len(c) > MaxCandidates {
		return c[:MaxCandidates]
	}
	return c
}
