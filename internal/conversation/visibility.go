package conversation

import "sync"

// Visibility is the open/closed toggle of the chat surface. It never touches
// the transcript.
type Visibility struct {
	mu   sync.RWMutex
	open bool
}

func (v *Visibility) Open() {
	v.Set(true)
}

func (v *Visibility) Close() {
	v.Set(false)
}

func (v *Visibility) Set(open bool) {
	v.mu.Lock()
	v.open = open
	v.mu.Unlock()
}

// Toggle flips the state and returns the new value.
func (v *Visibility) Toggle() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.open = !v.open
	return v.open
}

func (v *Visibility) IsOpen() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.open
}
