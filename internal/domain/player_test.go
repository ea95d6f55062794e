package domain

import "testing"

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("Categories contains invalid category %q", c)
		}
	}
	if Category("open_doubles").Valid() {
		t.Error("unknown category reported valid")
	}
	if Category("").Valid() {
		t.Error("empty category reported valid")
	}
}

func TestRankingsRating(t *testing.T) {
	r := Rankings{Singles: 1100, SameGenderDoubles: 1200, MixedDoubles: 1300}

	tests := []struct {
		category Category
		want     int
	}{
		{CategorySingles, 1100},
		{CategorySameGenderDoubles, 1200},
		{CategoryMixedDoubles, 1300},
	}

	for _, tt := range tests {
		if got := r.Rating(tt.category); got != tt.want {
			t.Errorf("Rating(%s) = %d, want %d", tt.category, got, tt.want)
		}
	}
}

func TestRankingsApply(t *testing.T) {
	r := DefaultRankings()

	r = r.Apply(CategorySingles, 16)
	if r.Singles != 1016 {
		t.Errorf("Singles = %d, want 1016", r.Singles)
	}
	if r.SameGenderDoubles != DefaultRating || r.MixedDoubles != DefaultRating {
		t.Error("Apply touched other categories")
	}

	r = r.Apply(CategorySingles, -20)
	if r.Singles != 996 {
		t.Errorf("Singles = %d, want 996", r.Singles)
	}
}

func TestRankingsApplyFloor(t *testing.T) {
	r := Rankings{Singles: 110, SameGenderDoubles: 110, MixedDoubles: 110}

	r = r.Apply(CategorySingles, -50)
	if r.Singles != RatingFloor {
		t.Errorf("Singles = %d, want floor %d", r.Singles, RatingFloor)
	}

	// A win from the floor still moves up normally.
	r = r.Apply(CategorySingles, 16)
	if r.Singles != RatingFloor+16 {
		t.Errorf("Singles = %d, want %d", r.Singles, RatingFloor+16)
	}
}
