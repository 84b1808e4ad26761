package domain

import "time"

// Article is the unit of persistence. URL is the deduplication identity
// across batches; PublishTimestamp is authoritative for all date comparisons
// and PublishTime is derived from it via FormatTimestamp.
type Article struct {
	ID               int64  `db:"id"`
	AccountName      string `db:"account_name"`
	Title            string `db:"title"`
	URL              string `db:"url"`
	Digest           string `db:"digest"`
	PublishTime      string `db:"publish_time"`
	PublishTimestamp int64  `db:"publish_timestamp"`
	Content          string `db:"content"`
	BatchID          string `db:"batch_id"`
	CreatedAt        int64  `db:"created_at"`
}

// PublishDate returns the calendar date of the article in local time,
// truncated to midnight so it compares cleanly against a DateWindow.
func (a Article) PublishDate() time.Time {
	t := time.Unix(a.PublishTimestamp, 0)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatTimestamp renders a unix timestamp the way the export and UI layers
// display it. Zero and negative timestamps render empty.
func FormatTimestamp(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}

// AccountHandle is the resolved identity of a named account. Transient per
// run, never persisted.
type AccountHandle struct {
	InternalID  string
	DisplayName string
}

// DateWindow is an inclusive [Start, End] calendar range.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the given date falls inside the window.
func (w DateWindow) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}
