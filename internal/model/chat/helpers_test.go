package chat

import "time"

var fixedTime = time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
