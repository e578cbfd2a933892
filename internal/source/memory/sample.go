package memory

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"pulse/internal/core"
)

// SampleDays is the length of the generated sample.
const SampleDays = 90

// SampleCategories are the categories used by GenerateSample.
var SampleCategories = []string{"Electronics", "Clothing", "Books", "Home & Garden", "Sports"}

// GenerateSample produces one record per day for the days ending at now,
// oldest first. Values carry a weekend boost, a slow upward trend and noise;
// each day is assigned a random category.
func GenerateSample(now time.Time, days int, rnd *rand.Rand) []core.Record {
	end := core.DateOf(now)
	out := make([]core.Record, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := end.AddDays(-i)

		weekend := 1.0
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend = 1.3
		}
		trend := 1 + float64(days-1-i)*0.005
		noise := 0.8 + rnd.Float64()*0.4
		factor := weekend * trend * noise

		revenue := math.Round((1000 + rnd.Float64()*1000) * factor)
		users := math.Round((50 + rnd.Float64()*100) * factor)
		orders := math.Round((10 + rnd.Float64()*30) * factor)

		out = append(out, core.Record{
			Date:     date,
			Revenue:  decimal.NewFromFloat(revenue),
			Users:    int64(users),
			Orders:   int64(orders),
			Category: SampleCategories[rnd.Intn(len(SampleCategories))],
		})
	}
	return out
}
