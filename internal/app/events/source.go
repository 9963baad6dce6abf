package events

import "github.com/greenhouse-games/accolade/internal/domain"

// ChannelSource is a buffered, typed event source. External producers
// (HTTP handlers, game hooks, test fixtures) push trigger events in; the
// engine drains them through the domain.EventSource contract.
type ChannelSource struct {
	ch chan domain.TriggerEvent
}

// NewChannelSource creates a source with the given buffer size.
func NewChannelSource(buffer int) *ChannelSource {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSource{ch: make(chan domain.TriggerEvent, buffer)}
}

// Events returns the consumption side of the source.
func (s *ChannelSource) Events() <-chan domain.TriggerEvent {
	return s.ch
}

// Push offers an event without blocking. Returns false when the buffer is
// full; the producer decides whether to retry or drop.
func (s *ChannelSource) Push(ev domain.TriggerEvent) bool {
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// Close shuts the source down. Consumers observe a closed channel.
func (s *ChannelSource) Close() {
	close(s.ch)
}
