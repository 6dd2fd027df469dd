package composer

import "time"

var testTime = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
