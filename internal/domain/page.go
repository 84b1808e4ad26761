package domain

// ArticleSummary is one listing entry from the vendor feed, before date
// filtering and enrichment.
type ArticleSummary struct {
	Title            string
	URL              string
	Digest           string
	PublishTimestamp int64
}

// Page is one listing page. TotalCount is the feed-wide article count hint
// the vendor only reports on the first page; zero elsewhere.
type Page struct {
	Items      []ArticleSummary
	TotalCount int
}
