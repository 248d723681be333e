package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func complete() *Blueprint {
	return &Blueprint{
		UserID:        "u1",
		DietType:      "vegetarian",
		HouseholdSize: 2,
		Targets:       NutritionTargets{Calories: 2000, Protein: 150, Fat: 67, Carbs: 250},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, complete().Validate())

	var nilBP *Blueprint
	assert.ErrorIs(t, nilBP.Validate(), ErrIncomplete)

	bp := complete()
	bp.UserID = ""
	assert.ErrorIs(t, bp.Validate(), ErrIncomplete)

	bp = complete()
	bp.DietType = ""
	assert.ErrorIs(t, bp.Validate(), ErrIncomplete)

	bp = complete()
	bp.HouseholdSize = 0
	assert.ErrorIs(t, bp.Validate(), ErrIncomplete)

	bp = complete()
	bp.Targets.Protein = 0
	assert.ErrorIs(t, bp.Validate(), ErrIncomplete)
}

func TestLovedRecently(t *testing.T) {
	bp := complete()
	bp.RecentRatings = []RatingEntry{
		{RecipeID: "r1", Verdict: "loved"},
		{RecipeID: "r2", Verdict: "disliked"},
	}

	assert.True(t, bp.LovedRecently("r1", 10))
	assert.False(t, bp.LovedRecently("r2", 10), "a dislike is not a love")
	assert.False(t, bp.LovedRecently("r9", 10))
}

func TestLovedRecentlyWindow(t *testing.T) {
	bp := complete()
	for i := 0; i < 10; i++ {
		bp.RecentRatings = append(bp.RecentRatings, RatingEntry{RecipeID: "filler", Verdict: "liked"})
	}
	bp.RecentRatings = append(bp.RecentRatings, RatingEntry{RecipeID: "old-favorite", Verdict: "loved"})

	assert.False(t, bp.LovedRecently("old-favorite", 10), "loves outside the window do not count")
	assert.True(t, bp.LovedRecently("old-favorite", 11))
}

func TestSwappedRecently(t *testing.T) {
	bp := complete()
	bp.RecentSwaps = []string{"r3"}

	assert.True(t, bp.SwappedRecently("r3"))
	assert.False(t, bp.SwappedRecently("r1"))
}
