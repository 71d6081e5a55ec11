// Package crawl — BFS queue with deduplication.
// Keeps a seen set so that no work item is visited twice.
package crawl

// Queue is a BFS queue of work item keys with deduplication.
type Queue struct {
	items []string
	seen  map[string]bool
	idx   int // current read position
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		seen: make(map[string]bool),
	}
}

// Add enqueues a key if it hasn't been seen before. Keys are normalized
// first. Reports whether the key was added.
func (q *Queue) Add(key string) bool {
	key = NormalizeKey(key)
	if key == "" || q.seen[key] {
		return false
	}
	q.seen[key] = true
	q.items = append(q.items, key)
	return true
}

// HasNext returns true if there are unprocessed keys.
func (q *Queue) HasNext() bool {
	return q.idx < len(q.items)
}

// Next returns the next unprocessed key and advances the pointer.
func (q *Queue) Next() string {
	key := q.items[q.idx]
	q.idx++
	return key
}

// Seen returns the total number of unique keys queued so far.
func (q *Queue) Seen() int {
	return len(q.seen)
}
