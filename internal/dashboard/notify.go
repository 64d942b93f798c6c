package dashboard

import "sync"

type Flash struct {
	Level   string
	Message string
}

// FlashNotifier buffers notifications until the next render drains them.
type FlashNotifier struct {
	mu      sync.Mutex
	flashes []Flash
}

func NewFlashNotifier() *FlashNotifier {
	return &FlashNotifier{}
}

func (n *FlashNotifier) Notify(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flashes = append(n.flashes, Flash{Level: level, Message: message})
}

func (n *FlashNotifier) Drain() []Flash {
	n.mu.Lock()
	defer n.mu.Unlock()
	flashes := n.flashes
	n.flashes = nil
	return flashes
}
