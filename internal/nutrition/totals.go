package nutrition

import "math"

// Totals is an aggregable set of macro-nutrients. Calories are whole
// numbers; gram values carry one decimal place.
type Totals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Fiber    float64 `json:"fiber"`
}

// Add returns the element-wise sum. Addition is associative and
// commutative, so slot totals can be folded in any order.
func (t Totals) Add(other Totals) Totals {
	return Totals{
		Calories: t.Calories + other.Calories,
		Protein:  round1(t.Protein + other.Protein),
		Fat:      round1(t.Fat + other.Fat),
		Carbs:    round1(t.Carbs + other.Carbs),
		Fiber:    round1(t.Fiber + other.Fiber),
	}
}

// Div divides all values by n, for per-day averages. n <= 0 returns the
// receiver unchanged.
func (t Totals) Div(n int) Totals {
	if n <= 0 {
		return t
	}
	return Totals{
		Calories: int(math.Round(float64(t.Calories) / float64(n))),
		Protein:  round1(t.Protein / float64(n)),
		Fat:      round1(t.Fat / float64(n)),
		Carbs:    round1(t.Carbs / float64(n)),
		Fiber:    round1(t.Fiber / float64(n)),
	}
}

// Scale multiplies all values by f.
func (t Totals) Scale(f float64) Totals {
	return Totals{
		Calories: int(math.Round(float64(t.Calories) * f)),
		Protein:  round1(t.Protein * f),
		Fat:      round1(t.Fat * f),
		Carbs:    round1(t.Carbs * f),
		Fiber:    round1(t.Fiber * f),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
