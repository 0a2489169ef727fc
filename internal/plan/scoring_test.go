package plan

import (
	"math"
	"testing"
)

func testPlace(name string, rating float64, ratings int, visit int, types ...string) *Place {
	return NewPlace("pl_"+name, name, name+" street", 0, 0, rating, ratings, visit, types)
}

func TestScoreCompositeFormula(t *testing.T) {
	p := testPlace("museum", 4.5, 1000, 60, "museum")
	prefs := DefaultPreferences()

	got := Score(p, prefs, 2.0)
	if got != p.CompositeScore {
		t.Fatalf("return value %v != stored composite %v", got, p.CompositeScore)
	}
	if p.TravelPenalty != 2.0 {
		t.Fatalf("travel penalty not written back: %v", p.TravelPenalty)
	}
	if got < 0 {
		t.Fatalf("composite must be non-negative, got %v", got)
	}

	// Heavy travel weight with a max penalty must floor at zero, not go negative.
	harsh := Preferences{WeightRating: 0.0, WeightPreference: 0.0, WeightTravel: 1.0, Style: StyleCustom}
	if s := Score(testPlace("far", 5, 100, 30), harsh, 10.0); s != 0 {
		t.Fatalf("expected floored score 0, got %v", s)
	}
}

func TestScoreIdempotent(t *testing.T) {
	p := testPlace("gallery", 4.2, 350, 45, "art_gallery")
	prefs := DefaultPreferences()

	first := Score(p, prefs, 3.3)
	second := Score(p, prefs, 3.3)
	if first != second {
		t.Fatalf("scoring is not idempotent: %v then %v", first, second)
	}
}

func TestPreferenceMatchNeutralFallback(t *testing.T) {
	p := testPlace("oddity", 4.0, 200, 30, "museum") // categorized as art
	prefs := Preferences{
		WeightRating: 0, WeightPreference: 1, WeightTravel: 0,
		Style:           StyleCustom,
		CategoryWeights: map[Category]float64{CategoryFood: 1.0}, // no overlap with art
	}
	if got := Score(p, prefs, 0); got != 5.0 {
		t.Fatalf("no matching categories should yield neutral 5.0, got %v", got)
	}
}

func TestPreferenceMatchUsesMatchedWeightsOnly(t *testing.T) {
	// A place matching one strongly preferred category must not be
	// penalized for the other categories being absent.
	p := testPlace("bistro", 5.0, 1000, 30, "restaurant")
	prefs := Preferences{
		WeightRating: 0, WeightPreference: 1, WeightTravel: 0,
		Style: StyleCustom,
		CategoryWeights: map[Category]float64{
			CategoryFood: 0.9,
			CategoryArt:  0.1,
		},
	}
	got := Score(p, prefs, 0)
	// base = 0.9*10 = 9, multiplier = (1.0*0.7 + 1.0*0.3) * 1.1 clamped to 1.1
	// match = 9 * 1.1 * 0.9 / 0.9 = 9.9
	want := 9.9
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("matched-weight divisor broken: got %v want %v", got, want)
	}
}

func TestQualityMultiplierClamped(t *testing.T) {
	low := testPlace("dive", 0.5, 0, 30, "store")
	if m := qualityMultiplier(low, CategoryShopping); m < 0.5 || m > 1.5 {
		t.Fatalf("multiplier out of [0.5,1.5]: %v", m)
	}
	high := testPlace("icon", 5.0, 1000000, 30, "night_club")
	if m := qualityMultiplier(high, CategoryEntertainment); m < 0.5 || m > 1.5 {
		t.Fatalf("multiplier out of [0.5,1.5]: %v", m)
	}
}

func TestScoreAllDeterministic(t *testing.T) {
	build := func() []*Place {
		return []*Place{
			testPlace("a", 4.5, 900, 60, "museum"),
			testPlace("b", 3.8, 120, 30, "park"),
			testPlace("c", 4.9, 5000, 90, "restaurant", "cafe"),
		}
	}
	prefs := DefaultPreferences()
	pens := []float64{1, 4, 7}

	first := build()
	ScoreAll(first, prefs, pens)
	second := build()
	ScoreAll(second, prefs, pens)
	for i := range first {
		if first[i].CompositeScore != second[i].CompositeScore {
			t.Fatalf("place %d scored differently across runs: %v vs %v", i, first[i].CompositeScore, second[i].CompositeScore)
		}
	}
}

func TestTopScored(t *testing.T) {
	places := []*Place{
		testPlace("a", 3.0, 100, 30),
		testPlace("b", 5.0, 100, 30),
		testPlace("c", 4.0, 100, 30),
	}
	ScoreAll(places, DefaultPreferences(), nil)
	top := TopScored(places, 2)
	if len(top) != 2 || top[0].Name != "b" {
		t.Fatalf("unexpected top order: %v", []string{top[0].Name, top[1].Name})
	}
	if places[0].Name != "a" {
		t.Fatal("TopScored must not reorder its input")
	}
}

func TestVisitTimeClamp(t *testing.T) {
	p := testPlace("quick", 4, 10, 5)
	if p.VisitTime != MinVisitTime {
		t.Fatalf("visit time not clamped up: %d", p.VisitTime)
	}
	p.SetVisitTime(500)
	if p.VisitTime != MaxVisitTime {
		t.Fatalf("visit time not clamped down: %d", p.VisitTime)
	}
}

func TestCategorizeDefaultsToCulture(t *testing.T) {
	p := testPlace("mystery", 4, 10, 30, "heliport")
	if len(p.Categories) != 1 || p.Categories[0] != CategoryCulture {
		t.Fatalf("unmapped place should default to culture, got %v", p.Categories)
	}
}

func TestStylePresets(t *testing.T) {
	p := Preferences{Style: StyleEfficientTourist}
	p.ApplyStyle()
	if p.WeightTravel != 0.5 {
		t.Fatalf("efficient tourist travel weight: %v", p.WeightTravel)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("preset should validate: %v", err)
	}

	custom := Preferences{Style: StyleCustom, WeightRating: 0.7, WeightPreference: 0.2, WeightTravel: 0.1}
	custom.ApplyStyle()
	if custom.WeightRating != 0.7 {
		t.Fatal("custom style must not overwrite weights")
	}
}
