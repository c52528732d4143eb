package timebudget

import "github.com/harrison/ethocode/internal/models"

// CategoryRow sums the rows of one subject sharing a behavioral category.
type CategoryRow struct {
	Subject  string
	Category string
	Count    Measure
	Duration Measure
}

// Categories rolls rows up by (subject, category), in first-appearance order.
// An UNPAIRED member makes the whole category UNPAIRED. POINT members add to the
// count only; a category without STATE members has an NA duration.
func Categories(rows []Row, eth Ethogram) []CategoryRow {
	type key struct{ subject, category string }
	index := make(map[key]int)
	var out []CategoryRow

	for _, r := range rows {
		k := key{r.Subject, eth.CategoryOf(r.Behavior)}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, CategoryRow{Subject: k.subject, Category: k.category, Count: Int(0), Duration: NA})
		}
		c := &out[i]
		c.Count = add(c.Count, r.Count)
		if r.Kind == models.StateKind {
			c.Duration = add(c.Duration, r.Duration)
		}
	}
	return out
}
