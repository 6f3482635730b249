package registry

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedNames(ranked []Ranked) []string {
	names := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Unit.Name())
	}
	return names
}

func TestSelectDeeperImplicitCandidateWins(t *testing.T) {
	c := hierarchyCatalog(t)
	cm := NewIndexer(c, nil).Index(slices.Values(unitNames("app.Direct", "app.Deep")))

	ranked := Select(cm, entry)
	require.Len(t, ranked, 2)
	assert.Equal(t, "app.Deep", ranked[0].Unit.Name())
	assert.Equal(t, -98, ranked[0].Score)
	assert.Equal(t, "app.Direct", ranked[1].Unit.Name())
	assert.Equal(t, -100, ranked[1].Score)
	assert.False(t, ranked[0].Explicit)
}

func TestSelectExplicitPrecedesImplicit(t *testing.T) {
	c := NewCatalog()
	mustRegister(t, c,
		Unit{Name: "app.Implicit", Implements: []Contract{entry}},
		Unit{Name: "app.Explicit", Implements: []Contract{entry}, Priority: Priority(1)},
	)
	cm := NewCandidateMap()
	implicit, _ := c.Lookup("app.Implicit")
	explicit, _ := c.Lookup("app.Explicit")
	// an implicit score above the explicit priority still ranks second
	cm.add(entry, implicit, 150)
	cm.add(entry, explicit, 0)

	ranked := Select(cm, entry)
	assert.Equal(t, []string{"app.Explicit", "app.Implicit"}, rankedNames(ranked))
	assert.True(t, ranked[0].Explicit)
	assert.Equal(t, 1, ranked[0].Score)
	assert.Equal(t, 50, ranked[1].Score)
}

func TestSelectExplicitOrdering(t *testing.T) {
	c := NewCatalog()
	mustRegister(t, c,
		Unit{Name: "app.Low", Implements: []Contract{entry}, Priority: Priority(0)},
		Unit{Name: "app.High", Implements: []Contract{entry}, Priority: Priority(10)},
		Unit{Name: "app.Mid", Implements: []Contract{entry}, Priority: Priority(5)},
	)
	cm := NewIndexer(c, nil).Index(slices.Values(unitNames("app.Low", "app.High", "app.Mid")))
	assert.Equal(t, []string{"app.High", "app.Mid", "app.Low"}, rankedNames(Select(cm, entry)))
}

func TestSelectTiesKeepDiscoveryOrder(t *testing.T) {
	c := NewCatalog()
	mustRegister(t, c,
		Unit{Name: "app.First", Implements: []Contract{entry}},
		Unit{Name: "app.Second", Implements: []Contract{entry}},
		Unit{Name: "app.Third", Implements: []Contract{entry}},
	)
	cm := NewIndexer(c, nil).Index(slices.Values(unitNames("app.Second", "app.First", "app.Third")))
	assert.Equal(t, []string{"app.Second", "app.First", "app.Third"}, rankedNames(Select(cm, entry)))
}

func TestSelectSingleCandidate(t *testing.T) {
	c := hierarchyCatalog(t)
	cm := NewIndexer(c, nil).Index(slices.Values(unitNames("app.Deep")))

	ranked := Select(cm, entry)
	require.Len(t, ranked, 1)
	assert.Equal(t, "app.Deep", ranked[0].Unit.Name())
}

func TestSelectUnknownContract(t *testing.T) {
	assert.Empty(t, Select(NewCandidateMap(), entry))
	assert.Empty(t, Select(CandidateMap{}, entry))
}

func TestScore(t *testing.T) {
	c := NewCatalog()
	mustRegister(t, c,
		Unit{Name: "app.Implicit"},
		Unit{Name: "app.Explicit", Priority: Priority(7)},
	)
	implicit, _ := c.Lookup("app.Implicit")
	explicit, _ := c.Lookup("app.Explicit")

	score, isExplicit := Score(Candidate{Unit: implicit, Depth: 3})
	assert.Equal(t, LowBound+3, score)
	assert.False(t, isExplicit)

	score, isExplicit = Score(Candidate{Unit: explicit, Depth: 3})
	assert.Equal(t, 7, score)
	assert.True(t, isExplicit)
}
