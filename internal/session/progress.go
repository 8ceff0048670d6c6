package session

import (
	"context"
	"time"
)

const (
	LabelRetrieving = "Retrieving filings..."
	LabelProcessing = "Processing filings..."
	LabelAnalyzing  = "Analyzing filings..."

	progressTicks = 15
)

// LoadingLabel returns the status text shown after elapsed time. It is
// cosmetic and says nothing about the real progress of a request.
func LoadingLabel(elapsed time.Duration) string {
	switch secs := int(elapsed / time.Second); {
	case secs <= 2:
		return LabelRetrieving
	case secs <= 7:
		return LabelProcessing
	default:
		return LabelAnalyzing
	}
}

// Progress calls emit with the initial label and then once per tick, for
// fifteen ticks or until ctx is done. tick is one second in the UI.
func Progress(ctx context.Context, tick time.Duration, emit func(label string)) {
	emit(LoadingLabel(0))
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for n := 1; n <= progressTicks; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit(LoadingLabel(time.Duration(n) * time.Second))
		}
	}
}
