package domain

// Ledger is the merged, deduplicated candidate set for one run.
// Courses are keyed by Course.Key(); the first listing seen for a key wins
// and later duplicates are dropped, so iteration order is arrival order.
//
// A Ledger is not safe for concurrent use. The scrape coordinator fills it
// after all site tasks have finished, then hands it to the enrollment engine.
type Ledger struct {
	byKey map[string]Course
	order []string
}

func NewLedger() *Ledger {
	return &Ledger{byKey: map[string]Course{}}
}

// Add inserts the course unless its key is already present.
// Returns true when the course was inserted.
func (l *Ledger) Add(c Course) bool {
	k := c.Key()
	if k == "" {
		return false
	}
	if _, ok := l.byKey[k]; ok {
		return false
	}
	l.byKey[k] = c
	l.order = append(l.order, k)
	return true
}

// Get looks a course up by dedup key.
func (l *Ledger) Get(key string) (Course, bool) {
	c, ok := l.byKey[key]
	return c, ok
}

// Ordered returns all courses in arrival order.
func (l *Ledger) Ordered() []Course {
	out := make([]Course, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, l.byKey[k])
	}
	return out
}

func (l *Ledger) Len() int {
	return len(l.order)
}
