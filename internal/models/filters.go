package models

// FeedFilters is the value object driving the posts search. All fields are
// optional; the zero-ish defaults come from DefaultFeedFilters. Two equal
// FeedFilters never require a refetch.
type FeedFilters struct {
	Query           string   `json:"query"`
	LookbackDays    int      `json:"lookback_days"`
	College         string   `json:"college"`
	Substance       string   `json:"substance"`
	PersonalityTags []string `json:"personality_tags"`
	Hometown        string   `json:"hometown"`
}

// DefaultLookbackDays is the lookback window applied when no filter is set.
const DefaultLookbackDays = 30

// DefaultFeedFilters returns the filters a fresh feed starts with
func DefaultFeedFilters() FeedFilters {
	return FeedFilters{LookbackDays: DefaultLookbackDays}
}

// Equal reports whether two filter sets would produce the same search
func (f FeedFilters) Equal(o FeedFilters) bool {
	if f.Query != o.Query ||
		f.LookbackDays != o.LookbackDays ||
		f.College != o.College ||
		f.Substance != o.Substance ||
		f.Hometown != o.Hometown {
		return false
	}
	if len(f.PersonalityTags) != len(o.PersonalityTags) {
		return false
	}
	for i := range f.PersonalityTags {
		if f.PersonalityTags[i] != o.PersonalityTags[i] {
			return false
		}
	}
	return true
}
