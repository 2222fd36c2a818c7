package opportunity

import (
	"sort"
	"strings"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// DedupOptions configures Dedup.
type DedupOptions struct {
	WindowDays int
	Threshold  float64 // Jaro-Winkler similarity at or above which two items merge
	Now        func() time.Time
}

// Dedup collapses duplicates in four deterministic stages: recency window,
// exact canonical URL, exact normalized title, then fuzzy similarity of
// normalized title and summary. Merged groups keep the Best member.
func Dedup(items []models.Opportunity, opts DedupOptions) []models.Opportunity {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	cutoff := now().UTC().AddDate(0, 0, -opts.WindowDays)

	// 1 + 2: window and canonical URL.
	byURL := make(map[string]models.Opportunity)
	var urlOrder []string
	var remainder []models.Opportunity
	for _, it := range items {
		if it.Title == "" && it.CanonicalURL == "" {
			continue
		}
		if it.PublishedAt != nil && it.PublishedAt.Before(cutoff) {
			continue
		}
		if it.CanonicalURL == "" {
			remainder = append(remainder, it)
			continue
		}
		if existing, ok := byURL[it.CanonicalURL]; ok {
			byURL[it.CanonicalURL] = Best(existing, it)
			continue
		}
		byURL[it.CanonicalURL] = it
		urlOrder = append(urlOrder, it.CanonicalURL)
	}

	// 3: normalized title.
	byTitle := make(map[string]models.Opportunity)
	var titleOrder []string
	merge := func(it models.Opportunity) {
		t := models.NormalizeTitle(it.Title)
		if t == "" {
			return
		}
		if existing, ok := byTitle[t]; ok {
			byTitle[t] = Best(existing, it)
			return
		}
		byTitle[t] = it
		titleOrder = append(titleOrder, t)
	}
	for _, u := range urlOrder {
		merge(byURL[u])
	}
	for _, it := range remainder {
		merge(it)
	}

	candidates := make([]models.Opportunity, 0, len(titleOrder))
	for _, t := range titleOrder {
		candidates = append(candidates, byTitle[t])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ti, tj := models.NormalizeTitle(candidates[i].Title), models.NormalizeTitle(candidates[j].Title)
		if ti != tj {
			return ti < tj
		}
		return candidates[i].CanonicalURL < candidates[j].CanonicalURL
	})

	// 4: fuzzy. Each candidate merges into the first earlier survivor it resembles.
	jw := metrics.NewJaroWinkler()
	out := make([]models.Opportunity, 0, len(candidates))
	fingerprints := make([]string, 0, len(candidates))
	for _, it := range candidates {
		fp := strings.TrimSpace(models.NormalizeTitle(it.Title) + " " + models.NormalizeTitle(it.Summary))
		if fp == "" {
			out = append(out, it)
			fingerprints = append(fingerprints, "")
			continue
		}

		dup := -1
		for idx, existing := range fingerprints {
			if existing == "" {
				continue
			}
			if strutil.Similarity(fp, existing, jw) >= opts.Threshold {
				dup = idx
				break
			}
		}
		if dup < 0 {
			out = append(out, it)
			fingerprints = append(fingerprints, fp)
			continue
		}
		out[dup] = Best(out[dup], it)
	}

	return out
}

// Best picks the more informative of two duplicates: earlier published, then
// having a publish date, then having a deadline, then the longer summary.
// Remaining ties fall back to the smaller canonical URL and title so the
// result never depends on argument order.
func Best(a, b models.Opportunity) models.Opportunity {
	switch {
	case a.PublishedAt != nil && b.PublishedAt != nil:
		if !a.PublishedAt.Equal(*b.PublishedAt) {
			if a.PublishedAt.Before(*b.PublishedAt) {
				return a
			}
			return b
		}
	case a.PublishedAt != nil:
		return a
	case b.PublishedAt != nil:
		return b
	}

	if (a.DeadlineAt != nil) != (b.DeadlineAt != nil) {
		if a.DeadlineAt != nil {
			return a
		}
		return b
	}

	if la, lb := len(a.Summary), len(b.Summary); la != lb {
		if la > lb {
			return a
		}
		return b
	}

	if a.CanonicalURL != b.CanonicalURL {
		if a.CanonicalURL < b.CanonicalURL {
			return a
		}
		return b
	}
	if b.Title < a.Title {
		return b
	}
	return a
}
