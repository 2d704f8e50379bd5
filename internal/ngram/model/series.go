package model

import "sort"

// Blob is a sparse year to count mapping for one stored row.
type Blob map[int]int64

// Add sums other into b.
func (b Blob) Add(other Blob) {
	for year, count := range other {
		b[year] += count
	}
}

// Years returns the years present in ascending order.
func (b Blob) Years() []int {
	years := make([]int, 0, len(b))
	for year := range b {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Point is one year of a series: x is the year, y the relative or absolute
// value and f the raw count.
type Point struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
	F int64   `json:"f"`
}

// Series is one reported item of a query response.
type Series struct {
	Key    string  `json:"key"`
	Lang   string  `json:"lang"`
	Corpus string  `json:"corpus"`
	Values []Point `json:"values"`
}
