package domain

// Batch is a byte-bounded set of encoded events submitted in one delivery call.
type Batch struct {
	maxBytes int
	events   [][]byte
	size     int
}

// NewBatch creates an empty batch that accepts up to maxBytes of event data.
func NewBatch(maxBytes int) *Batch {
	return &Batch{maxBytes: maxBytes}
}

// TryAdd appends event if it fits in the remaining capacity.
func (b *Batch) TryAdd(event []byte) bool {
	if b.size+len(event) > b.maxBytes {
		return false
	}
	b.events = append(b.events, event)
	b.size += len(event)
	return true
}

// Events returns the encoded events in insertion order.
func (b *Batch) Events() [][]byte {
	return b.events
}

// Count returns the number of events in the batch.
func (b *Batch) Count() int {
	return len(b.events)
}

// SizeBytes returns the total size of the events in the batch.
func (b *Batch) SizeBytes() int {
	return b.size
}

// MaxBytes returns the batch capacity.
func (b *Batch) MaxBytes() int {
	return b.maxBytes
}

// Empty returns true if nothing has been added.
func (b *Batch) Empty() bool {
	return len(b.events) == 0
}
