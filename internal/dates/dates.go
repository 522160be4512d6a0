package dates

import "time"

const layout = "2006-01-02"

// Window returns the (yesterday, today) date pair bounding a pipeline
// run, both formatted as YYYY-MM-DD
func Window(now time.Time) (start, end string) {
	return now.AddDate(0, 0, -1).Format(layout), now.Format(layout)
}

// Today returns today's date in YYYY-MM-DD format
func Today() string {
	return time.Now().Format(layout)
}

// Yesterday returns yesterday's date in YYYY-MM-DD format
func Yesterday() string {
	return time.Now().AddDate(0, 0, -1).Format(layout)
}
