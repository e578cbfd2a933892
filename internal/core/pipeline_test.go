package core

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		rec("2024-01-01", "100", 10, 2, "A"),
		rec("2024-01-05", "200", 20, 0, "B"),
	}
}

func interval(start, end string) DateInterval {
	s, err := ParseDate(start)
	if err != nil {
		panic(err)
	}
	e, err := ParseDate(end)
	if err != nil {
		panic(err)
	}
	return DateInterval{Start: s, End: e}
}

func TestFilter_DateRangeOnly(t *testing.T) {
	records := []Record{
		rec("2024-01-03", "1", 1, 1, "A"),
		rec("2024-01-01", "2", 1, 1, "B"),
		rec("2024-01-10", "3", 1, 1, "A"),
		rec("2024-01-02", "4", 1, 1, "C"),
		rec("2023-12-31", "5", 1, 1, "A"),
	}
	got := Filter(records, interval("2024-01-01", "2024-01-03"), CategorySelection{})

	require.Len(t, got, 3)
	// input order is preserved
	assert.Equal(t, "1", got[0].Revenue.String())
	assert.Equal(t, "2", got[1].Revenue.String())
	assert.Equal(t, "4", got[2].Revenue.String())
}

func TestFilter_BoundariesAreInclusive(t *testing.T) {
	records := []Record{
		rec("2024-01-01", "1", 1, 1, "A"),
		rec("2024-01-03", "1", 1, 1, "A"),
	}
	assert.Len(t, Filter(records, interval("2024-01-01", "2024-01-03"), CategorySelection{}), 2)
	assert.Len(t, Filter(records, interval("2024-01-01", "2024-01-01"), CategorySelection{}), 1)
}

func TestFilter_InvertedIntervalIsEmpty(t *testing.T) {
	records := sampleRecords()
	sels := []CategorySelection{
		{},
		NewCategorySelection("A"),
		NewCategorySelection("A", "B"),
	}
	for _, sel := range sels {
		got := Filter(records, interval("2024-01-10", "2024-01-01"), sel)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestFilter_EmptySelectionMeansAll(t *testing.T) {
	records := sampleRecords()
	iv := interval("2024-01-01", "2024-01-31")

	var zero CategorySelection
	explicitEmpty := NewCategorySelection()
	all := NewCategorySelection(Categories(records)...)

	assert.Equal(t, records, Filter(records, iv, zero))
	assert.Equal(t, records, Filter(records, iv, explicitEmpty))
	assert.Equal(t, records, Filter(records, iv, all))
}

func TestFilter_SelectionMatchingNothing(t *testing.T) {
	got := Filter(sampleRecords(), interval("2024-01-01", "2024-01-31"), NewCategorySelection("Z"))
	assert.Empty(t, got)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	before := append([]Record(nil), records...)
	_ = Filter(records, interval("2024-01-02", "2024-01-31"), NewCategorySelection("B"))
	assert.Equal(t, before, records)
}

func TestAggregate_Empty(t *testing.T) {
	m, rollups := Aggregate(nil)
	assert.True(t, m.TotalRevenue.IsZero())
	assert.Zero(t, m.TotalUsers)
	assert.Zero(t, m.TotalOrders)
	assert.True(t, m.AverageOrderValue.IsZero())
	assert.NotNil(t, rollups)
	assert.Empty(t, rollups)
}

func TestAggregate_ZeroOrdersAverageIsZero(t *testing.T) {
	m, _ := Aggregate([]Record{
		rec("2024-01-01", "999.99", 3, 0, "A"),
		rec("2024-01-02", "1", 3, 0, "B"),
	})
	assert.Zero(t, m.TotalOrders)
	assert.True(t, m.TotalRevenue.Equal(decimal.RequireFromString("1000.99")))
	assert.True(t, m.AverageOrderValue.IsZero())
}

func TestAggregate_RollupsFollowFirstAppearance(t *testing.T) {
	_, rollups := Aggregate([]Record{
		rec("2024-01-01", "10", 1, 1, "Books"),
		rec("2024-01-01", "20", 2, 2, "Audio"),
		rec("2024-01-02", "30", 3, 3, "Books"),
	})
	require.Len(t, rollups, 2)
	assert.Equal(t, "Books", rollups[0].Category)
	assert.True(t, rollups[0].Revenue.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, int64(4), rollups[0].Orders)
	assert.Equal(t, int64(4), rollups[0].Users)
	assert.Equal(t, "Audio", rollups[1].Category)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	records := []Record{
		rec("2024-01-01", "10.10", 1, 1, "A"),
		rec("2024-01-02", "20.20", 2, 3, "B"),
		rec("2024-01-03", "30.30", 3, 5, "C"),
		rec("2024-01-04", "40.40", 4, 7, "A"),
		rec("2024-01-05", "50.50", 5, 0, "B"),
	}
	wantM, wantR := Aggregate(records)

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Record(nil), records...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		gotM, gotR := Aggregate(shuffled)
		assert.True(t, wantM.TotalRevenue.Equal(gotM.TotalRevenue))
		assert.Equal(t, wantM.TotalUsers, gotM.TotalUsers)
		assert.Equal(t, wantM.TotalOrders, gotM.TotalOrders)
		assert.True(t, wantM.AverageOrderValue.Equal(gotM.AverageOrderValue))
		assert.Equal(t, rollupSums(wantR), rollupSums(gotR))
	}
}

func TestAggregate_RollupRevenueSumsToTotal(t *testing.T) {
	records := []Record{
		rec("2024-01-01", "0.10", 1, 1, "A"),
		rec("2024-01-02", "0.20", 2, 3, "B"),
		rec("2024-01-03", "0.30", 3, 5, "A"),
	}
	m, rollups := Aggregate(records)
	sum := decimal.Zero
	for _, r := range rollups {
		sum = sum.Add(r.Revenue)
	}
	assert.True(t, sum.Equal(m.TotalRevenue), "rollups %s != total %s", sum, m.TotalRevenue)
}

func TestPipeline_Examples(t *testing.T) {
	records := sampleRecords()

	t.Run("date window keeps first record", func(t *testing.T) {
		filtered := Filter(records, interval("2024-01-01", "2024-01-03"), CategorySelection{})
		require.Len(t, filtered, 1)
		assert.Equal(t, "A", filtered[0].Category)

		m, rollups := Aggregate(filtered)
		assert.True(t, m.TotalRevenue.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, int64(10), m.TotalUsers)
		assert.Equal(t, int64(2), m.TotalOrders)
		assert.True(t, m.AverageOrderValue.Equal(decimal.NewFromInt(50)))

		require.Len(t, rollups, 1)
		assert.Equal(t, "A", rollups[0].Category)
		assert.True(t, rollups[0].Revenue.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, int64(2), rollups[0].Orders)
		assert.Equal(t, int64(10), rollups[0].Users)
	})

	t.Run("category filter keeps second record", func(t *testing.T) {
		filtered := Filter(records, interval("2024-01-01", "2024-01-10"), NewCategorySelection("B"))
		require.Len(t, filtered, 1)
		assert.Equal(t, "B", filtered[0].Category)

		m, _ := Aggregate(filtered)
		assert.True(t, m.TotalRevenue.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, int64(20), m.TotalUsers)
		assert.Equal(t, int64(0), m.TotalOrders)
		assert.True(t, m.AverageOrderValue.IsZero())
	})
}

func TestCategories_SortedDistinctFromUnfiltered(t *testing.T) {
	records := []Record{
		rec("2024-01-01", "1", 1, 1, "Sports"),
		rec("2024-01-02", "1", 1, 1, "Books"),
		rec("2024-01-03", "1", 1, 1, "Sports"),
		rec("2024-01-04", "1", 1, 1, "Home & Garden"),
	}
	assert.Equal(t, []string{"Books", "Home & Garden", "Sports"}, Categories(records))
	assert.Empty(t, Categories(nil))
}

func TestDailySeries(t *testing.T) {
	series := DailySeries([]Record{
		rec("2024-01-02", "5", 1, 1, "A"),
		rec("2024-01-01", "1", 1, 1, "A"),
		rec("2024-01-02", "7", 2, 3, "B"),
	})
	require.Len(t, series, 2)
	assert.Equal(t, "2024-01-01", series[0].Date.String())
	assert.Equal(t, "2024-01-02", series[1].Date.String())
	assert.True(t, series[1].Revenue.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, int64(3), series[1].Users)
	assert.Equal(t, int64(4), series[1].Orders)
}

type sums struct {
	revenue string
	orders  int64
	users   int64
}

func rollupSums(rs []CategoryRollup) map[string]sums {
	out := make(map[string]sums, len(rs))
	for _, r := range rs {
		out[r.Category] = sums{revenue: r.Revenue.String(), orders: r.Orders, users: r.Users}
	}
	return out
}
