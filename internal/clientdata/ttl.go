package clientdata

import "time"

// TTLExchangeRate is how long a fetched quote is served without refetching.
// The upstream publishes once a day; an hour keeps intraday restarts cheap.
const TTLExchangeRate = time.Hour
