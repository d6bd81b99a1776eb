package analytics

import "errors"

var (
	ErrAggregationFailed = errors.New("aggregation failed")
	ErrNoSnapshot        = errors.New("no snapshot available")
)
