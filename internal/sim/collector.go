package sim

// Record is one collected row of national output.
type Record struct {
	Year         int
	CumulativeHa float64 // hectares switched to SBP nationally since 1995
	YearlyHa     float64 // hectares switched in this year alone
}

// Collector accumulates one national record per simulated year.
type Collector struct {
	records []Record
}

func (c *Collector) collect(year int, cumulativeHa, yearlyHa float64) {
	c.records = append(c.records, Record{Year: year, CumulativeHa: cumulativeHa, YearlyHa: yearlyHa})
}

// Records returns a copy of the collected rows in chronological order.
func (c *Collector) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}
