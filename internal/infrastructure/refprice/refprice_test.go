package refprice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

func match(demandID, candidateID string) domain.MatchRecord {
	return domain.MatchRecord{DemandID: demandID, CandidateID: candidateID}
}

func TestTable_Resolve(t *testing.T) {
	table := Table{"jp_001": {P25: 6.2, Median: 8.5}}

	p, ok := table.Resolve(match("sg_1", "jp_001"))
	assert.True(t, ok)
	assert.Equal(t, 8.5, p.Median)

	_, ok = table.Resolve(match("sg_1", "jp_999"))
	assert.False(t, ok)

	var empty Table
	_, ok = empty.Resolve(match("sg_1", "jp_001"))
	assert.False(t, ok)
}

func TestFromDemand(t *testing.T) {
	items := []domain.DemandItem{
		{ID: "sg_1", PriceP25: 1, PriceMedian: 2},
		{ID: "sg_2", PriceP25: 3, PriceMedian: 4},
		{ID: "sg_1", PriceP25: 9, PriceMedian: 9},
	}

	prices := FromDemand(items)
	assert.Equal(t, DemandPrices{
		"sg_1": {P25: 1, Median: 2},
		"sg_2": {P25: 3, Median: 4},
	}, prices)

	_, ok := prices.Resolve(match("sg_unknown", "jp_a"))
	assert.False(t, ok)
}

func TestFromDemand_SameCandidateKeepsOwnPrices(t *testing.T) {
	prices := FromDemand([]domain.DemandItem{
		{ID: "sg_cheap", PriceP25: 6.2, PriceMedian: 8.5},
		{ID: "sg_dear", PriceP25: 30, PriceMedian: 40},
	})

	cheap, ok := prices.Resolve(match("sg_cheap", "jp_001"))
	assert.True(t, ok)
	assert.Equal(t, 8.5, cheap.Median)

	dear, ok := prices.Resolve(match("sg_dear", "jp_001"))
	assert.True(t, ok)
	assert.Equal(t, domain.RefPrice{P25: 30, Median: 40}, dear)
}

func TestChain(t *testing.T) {
	first := Table{"jp_a": {Median: 1}}
	second := Table{"jp_a": {Median: 2}, "jp_b": {Median: 3}}

	chain := Chain(nil, first, second)

	p, ok := chain.Resolve(match("sg_1", "jp_a"))
	assert.True(t, ok)
	assert.Equal(t, 1.0, p.Median, "earlier resolver wins")

	p, ok = chain.Resolve(match("sg_1", "jp_b"))
	assert.True(t, ok)
	assert.Equal(t, 3.0, p.Median)

	_, ok = chain.Resolve(match("sg_1", "jp_z"))
	assert.False(t, ok)
}

func TestChain_DemandThenTable(t *testing.T) {
	chain := Chain(
		FromDemand([]domain.DemandItem{{ID: "sg_1", PriceMedian: 8.5}}),
		Table{"jp_001": {Median: 2}},
	)

	p, ok := chain.Resolve(match("sg_1", "jp_001"))
	assert.True(t, ok)
	assert.Equal(t, 8.5, p.Median)

	p, ok = chain.Resolve(match("sg_other", "jp_001"))
	assert.True(t, ok)
	assert.Equal(t, 2.0, p.Median, "table is the fallback")
}
