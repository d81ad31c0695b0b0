// Package outfit turns a user's situation into one outfit drawn from their wardrobe.
package outfit

import "github.com/hrygo/closetmind/plugin/ai/vector"

// Context is the user situation an outfit is generated for.
type Context struct {
	Schedule    string   `json:"schedule,omitempty"`
	Date        string   `json:"date,omitempty"`
	Location    string   `json:"location,omitempty"`
	Occasion    string   `json:"occasion,omitempty"`
	Weather     *Weather `json:"weather,omitempty"`
	Preferences string   `json:"preferences,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Age         string   `json:"age,omitempty"`
}

// Weather is supplied by the caller; no lookup happens here.
type Weather struct {
	Temperature *float64 `json:"temperature,omitempty"` // Celsius
	Condition   string   `json:"condition,omitempty"`
}

// IsEmpty reports whether the context carries no information at all.
func (c Context) IsEmpty() bool {
	return c.Schedule == "" && c.Date == "" && c.Location == "" && c.Occasion == "" &&
		c.Weather == nil && c.Preferences == "" && c.Gender == "" && c.Age == ""
}

// OutfitCategories are the categories an outfit is assembled from, in order.
var OutfitCategories = []vector.Category{
	vector.CategoryTops,
	vector.CategoryBottoms,
	vector.CategoryOuterwear,
	vector.CategoryShoes,
}

// Queries holds one retrieval query per category. A nil query means the
// category is not part of the outfit (e.g. no outerwear on a warm evening).
type Queries struct {
	Tops      *string `json:"tops"`
	Bottoms   *string `json:"bottoms"`
	Outerwear *string `json:"outerwear"`
	Shoes     *string `json:"shoes"`
	Reason    string  `json:"reason"`
}

// For returns the query for category, or nil.
func (q *Queries) For(category vector.Category) *string {
	switch category {
	case vector.CategoryTops:
		return q.Tops
	case vector.CategoryBottoms:
		return q.Bottoms
	case vector.CategoryOuterwear:
		return q.Outerwear
	case vector.CategoryShoes:
		return q.Shoes
	default:
		return nil
	}
}

// Pick is the outcome for one category.
type Pick struct {
	Query string `json:"query"`
	// Selected is nil when the owner has nothing in this category.
	Selected          *vector.Candidate  `json:"selected"`
	SelectionDegraded bool               `json:"selection_degraded"`
	Shortlist         []vector.Candidate `json:"shortlist"`
}

// Suggestion is a complete outfit recommendation. Categories the generator
// left out map to nil.
type Suggestion struct {
	Reason string                    `json:"reason"`
	Items  map[vector.Category]*Pick `json:"items"`
}
