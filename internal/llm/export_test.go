package llm

import "time"

// SetNow replaces the clock used for circuit decisions.
func (f *FallbackCompleter) SetNow(now func() time.Time) {
	f.now = now
}
