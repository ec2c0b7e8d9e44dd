package evidence

import (
	"sort"
	"strings"
	"unicode"
)

// Index is an ephemeral full-text index over one response's segments.
// It is built once per response, read-only afterwards, and never persisted.
type Index struct {
	segments []Segment
	postings map[string][]posting
}

type posting struct {
	segment int
	count   int
}

// Match is one ranked search hit.
type Match struct {
	Segment Segment
	Score   float64
}

// BuildIndex constructs the inverted index for a set of segments.
// An empty segment set yields a valid, empty index.
func BuildIndex(segments []Segment) *Index {
	idx := &Index{
		segments: segments,
		postings: make(map[string][]posting),
	}

	for i, seg := range segments {
		for term, count := range termCounts(tokenize(seg.Text)) {
			idx.postings[term] = append(idx.postings[term], posting{segment: i, count: count})
		}
	}

	return idx
}

// Len returns the number of indexed segments.
func (idx *Index) Len() int {
	return len(idx.segments)
}

// Segments returns the indexed segments in id order.
func (idx *Index) Segments() []Segment {
	return idx.segments
}

// Search ranks segments against a free-text query. The final query term is
// matched by prefix as well, so a selection cut off mid-word still hits.
//
// Scoring: fraction of query terms present, plus a length-normalized term
// frequency component, plus a bonus when the whole normalized query appears
// as a substring of the segment (doubled for exact equality). Ties resolve
// to the lower segment id.
func (idx *Index) Search(query string) []Match {
	normQuery := NormalizeSpace(query)
	terms := tokenize(normQuery)
	if len(terms) == 0 {
		return nil
	}

	matchedTerms := make(map[int]int)
	tfSum := make(map[int]int)

	for i, term := range terms {
		lastTerm := i == len(terms)-1
		for seg, count := range idx.lookup(term, lastTerm) {
			matchedTerms[seg]++
			tfSum[seg] += count
		}
	}

	matches := make([]Match, 0, len(matchedTerms))
	for seg, matched := range matchedTerms {
		segment := idx.segments[seg]
		segTerms := len(tokenize(segment.Text))
		if segTerms == 0 {
			continue
		}

		score := float64(matched) / float64(len(terms))
		score += float64(tfSum[seg]) / float64(segTerms) * 0.5

		lowerSeg := strings.ToLower(segment.Text)
		lowerQuery := strings.ToLower(normQuery)
		if lowerSeg == lowerQuery {
			score += 2.0
		} else if strings.Contains(lowerSeg, lowerQuery) {
			score += 1.0
		}

		matches = append(matches, Match{Segment: segment, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Segment.ID < matches[j].Segment.ID
	})

	return matches
}

// lookup collects per-segment term frequencies for one query term.
// When prefix is set, any indexed term starting with it counts too.
func (idx *Index) lookup(term string, prefix bool) map[int]int {
	found := make(map[int]int)

	for _, p := range idx.postings[term] {
		found[p.segment] += p.count
	}

	if prefix {
		for indexed, postings := range idx.postings {
			if indexed == term || !strings.HasPrefix(indexed, term) {
				continue
			}
			for _, p := range postings {
				found[p.segment] += p.count
			}
		}
	}

	return found
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func termCounts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}
