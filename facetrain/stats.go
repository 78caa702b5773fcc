package facetrain

import (
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
)

// Stats counts what a run has seen.
type Stats struct {
	Frames  int
	Regions int
	Nested  int

	// detection times in milliseconds
	detection stats.Float64Data
}

// Add records one frame.
func (s *Stats) Add(res Result) {
	s.Frames++
	s.Regions += len(res.Regions)
	for _, hits := range res.Nested {
		s.Nested += len(hits)
	}
	s.detection = append(s.detection, float64(res.Elapsed)/float64(time.Millisecond))
}

// Latency returns the mean and 95th percentile detection time in
// milliseconds. Both are zero before the first frame.
func (s Stats) Latency() (mean, p95 float64) {
	if len(s.detection) == 0 {
		return 0, 0
	}
	var err error
	if mean, err = stats.Mean(s.detection); err != nil {
		mean = 0
	}
	if p95, err = stats.Percentile(s.detection, 95); err != nil {
		p95 = 0
	}
	return mean, p95
}

// Log writes the summary at info level.
func (s Stats) Log(logger *zap.SugaredLogger) {
	mean, p95 := s.Latency()
	logger.Infow("run finished",
		"frames", s.Frames,
		"regions", s.Regions,
		"nested", s.Nested,
		"detection_ms_mean", mean,
		"detection_ms_p95", p95)
}
