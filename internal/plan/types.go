package plan

import (
	"math"
	"sort"
)

// Category is the closed set of place categories used for preference matching.
type Category string

const (
	CategoryArt           Category = "art"
	CategoryFood          Category = "food"
	CategoryNature        Category = "nature"
	CategoryShopping      Category = "shopping"
	CategoryCulture       Category = "culture"
	CategoryEntertainment Category = "entertainment"
)

// placeTypeCategories maps raw provider place types onto categories.
// Applied once at Place construction.
var placeTypeCategories = map[string]Category{
	"art_gallery":     CategoryArt,
	"museum":          CategoryArt,
	"cultural_center": CategoryCulture,
	"historical_site": CategoryCulture,
	"church":          CategoryCulture,
	"synagogue":       CategoryCulture,
	"mosque":          CategoryCulture,
	"restaurant":      CategoryFood,
	"food":            CategoryFood,
	"cafe":            CategoryFood,
	"bakery":          CategoryFood,
	"meal_takeaway":   CategoryFood,
	"park":            CategoryNature,
	"natural_feature": CategoryNature,
	"zoo":             CategoryNature,
	"aquarium":        CategoryNature,
	"beach":           CategoryNature,
	"shopping_mall":   CategoryShopping,
	"store":           CategoryShopping,
	"clothing_store":  CategoryShopping,
	"amusement_park":  CategoryEntertainment,
	"movie_theater":   CategoryEntertainment,
	"night_club":      CategoryEntertainment,
	"casino":          CategoryEntertainment,
}

const (
	// Visit durations are clamped to this range (minutes).
	MinVisitTime = 15
	MaxVisitTime = 180
)

// Place is a visitable candidate. Derived fields (InterestScore,
// CompositeScore, TravelPenalty) are owned by the scoring pipeline for
// the duration of one planning run; a Place is never shared across runs.
type Place struct {
	ID           string
	Name         string
	Address      string
	Lat, Lng     float64
	Rating       float64 // 0-5
	RatingsTotal int
	Types        []string
	VisitTime    int // minutes, clamped to [MinVisitTime, MaxVisitTime]

	Categories []Category // sorted, derived from Types

	InterestScore  float64
	CompositeScore float64
	TravelPenalty  float64
}

// NewPlace builds a Place, clamps the visit duration, derives categories
// from the raw types, and computes the base interest score.
func NewPlace(id, name, address string, lat, lng, rating float64, ratingsTotal, visitTime int, types []string) *Place {
	p := &Place{
		ID:           id,
		Name:         name,
		Address:      address,
		Lat:          lat,
		Lng:          lng,
		Rating:       rating,
		RatingsTotal: ratingsTotal,
		Types:        types,
	}
	p.SetVisitTime(visitTime)
	p.categorize()
	return p
}

// SetVisitTime clamps and stores the visit duration, then refreshes the
// base interest score which depends on it.
func (p *Place) SetVisitTime(minutes int) {
	if minutes < MinVisitTime {
		minutes = MinVisitTime
	}
	if minutes > MaxVisitTime {
		minutes = MaxVisitTime
	}
	p.VisitTime = minutes
	p.InterestScore = p.baseInterest()
}

func (p *Place) categorize() {
	seen := map[Category]bool{}
	for _, t := range p.Types {
		if c, ok := placeTypeCategories[t]; ok && !seen[c] {
			seen[c] = true
			p.Categories = append(p.Categories, c)
		}
	}
	// Unmapped places default to culture.
	if len(p.Categories) == 0 {
		p.Categories = []Category{CategoryCulture}
	}
	sort.Slice(p.Categories, func(i, j int) bool { return p.Categories[i] < p.Categories[j] })
}

// baseInterest blends the 0-10 rating scale with log-scaled popularity,
// adjusted by visit duration (longer visits tend to mean richer places).
func (p *Place) baseInterest() float64 {
	score := p.Rating * 2
	if p.RatingsTotal > 0 {
		score += math.Min(2.0, math.Log10(float64(p.RatingsTotal)))
	}
	timeFactor := math.Min(1.2, float64(p.VisitTime)/30.0)
	return score * timeFactor
}

// HasCategory reports whether the place carries the given category.
func (p *Place) HasCategory(c Category) bool {
	for _, pc := range p.Categories {
		if pc == c {
			return true
		}
	}
	return false
}
