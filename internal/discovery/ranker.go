package discovery

import (
	"math"
	"sort"

	"github.com/partly/enrichment-engine/internal/domain"
)

// rankingWeights are hand-initialized and fixed. Order matches
// FeatureVector.Slice: mpnInUrl, mpnInTitle, mfgInText, productPath,
// domainTrust, junkPath.
var rankingWeights = [6]float64{4.2, 3.4, 2.6, 2.0, 1.6, -3.8}

const (
	highSeparation   = 0.15
	mediumSeparation = 0.05
)

// candidateInput is a raw search hit before feature extraction.
type candidateInput struct {
	URL     string
	Title   string
	Snippet string
}

// rankCandidates scores and sorts candidates. Features are mean-centered
// per query so the model ranks on relative evidence, then squashed through
// a logistic to [0,1]. Ties keep insertion order.
func rankCandidates(inputs []candidateInput, mpn, manufacturer string) []domain.SearchCandidate {
	if len(inputs) == 0 {
		return nil
	}

	candidates := make([]domain.SearchCandidate, 0, len(inputs))
	for _, in := range inputs {
		candidates = append(candidates, domain.SearchCandidate{
			URL:      in.URL,
			Title:    in.Title,
			Snippet:  in.Snippet,
			Features: extractFeatures(in, mpn, manufacturer),
		})
	}

	var means [6]float64
	for _, c := range candidates {
		s := c.Features.Slice()
		for i := range means {
			means[i] += s[i]
		}
	}
	for i := range means {
		means[i] /= float64(len(candidates))
	}

	for i := range candidates {
		s := candidates[i].Features.Slice()
		var z float64
		for j := range s {
			z += rankingWeights[j] * (s[j] - means[j])
		}
		candidates[i].Score = logistic(z)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}

func logistic(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// separationConfidence converts the gap between the top two scores into a
// tier. Absolute score is meaningless after mean-centering; only the
// relative separation carries signal.
func separationConfidence(candidates []domain.SearchCandidate) domain.ConfidenceTier {
	if len(candidates) == 1 {
		return domain.ConfidenceHigh
	}
	gap := candidates[0].Score - candidates[1].Score
	switch {
	case gap > highSeparation:
		return domain.ConfidenceHigh
	case gap > mediumSeparation:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
