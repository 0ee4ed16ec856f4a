package siting

import (
	"sort"

	"github.com/opencivic/event-siting/internal/model"
)

// Rank orders sites by score descending, breaking ties by POI ID ascending,
// and assigns 1-based ranks in place. Score plus ID form a total order, so
// repeated runs over identical input always produce identical ordering.
func Rank(sites []model.ScoredSite) {
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Score != sites[j].Score {
			return sites[i].Score > sites[j].Score
		}
		return sites[i].POI.ID < sites[j].POI.ID
	})
	for i := range sites {
		sites[i].Rank = i + 1
	}
}
