// Package capture observes one tab's page activity and emits normalized
// events onto the bus. A context never blocks on acknowledgment and never
// retries a send; a silently failing bus is accepted data loss for this tier.
package capture

// Link is an anchor as the page exposes it.
type Link struct {
	Href  string
	Text  string
	Label string // aria-label / title attribute fallback
}

// Click is a user click that resolved to an anchor.
type Click struct {
	Link Link
}

// FormField describes an input that may be a search box.
type FormField struct {
	Name        string
	Placeholder string
	Type        string
}

// Submission is a form submit carrying the value of one field.
type Submission struct {
	Field FormField
	Value string
}

// PageSource is the capture context's view of a document. Inserted delivers
// anchors present at load and any added later by DOM mutation; the context
// registers each anchor at most once, so re-delivered subtrees are harmless.
type PageSource interface {
	Location() string
	Title() string
	Clicks() <-chan Click
	Inserted() <-chan []Link
	Submissions() <-chan Submission
	Unload() <-chan struct{}
}
