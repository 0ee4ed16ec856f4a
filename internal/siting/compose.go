package siting

import "github.com/opencivic/event-siting/internal/model"

// Compose combines a POI's normalized indicator contributions into one
// composite score: the weighted sum of contributions divided by the sum of
// weights actually applied. A POI missing some indicators is therefore still
// comparable against one with all indicators present — only the indicators
// that contributed enter the denominator. ok is false when no indicator
// contributed any weight at all.
//
// Given non-negative weights, the score never decreases when any single
// contribution's normalized value increases.
func Compose(contribs []model.Contribution) (score float64, ok bool) {
	var sum, weightSum float64
	for _, c := range contribs {
		if c.Weight <= 0 {
			continue
		}
		sum += c.Normalized * c.Weight
		weightSum += c.Weight
	}
	if weightSum == 0 {
		return 0, false
	}
	return sum / weightSum, true
}
