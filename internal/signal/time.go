package signal

import "math"

// Time is a logical simulation timestamp. It is not related to wall-clock
// time.
type Time uint64

// Delay is a non-negative logical duration.
type Delay uint64

// Never is the largest representable Time.
const Never Time = math.MaxUint64

// Add returns t+d, saturating at Never.
func (t Time) Add(d Delay) Time {
	if uint64(Never-t) < uint64(d) {
		return Never
	}
	return t + Time(d)
}
