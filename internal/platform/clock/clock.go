package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock. Exam rooms run on local time, so
// unlike stored timestamps nothing here is normalised to UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
