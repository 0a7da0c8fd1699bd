package metrics

// ClientObserver receives API client lifecycle events.
type ClientObserver interface {
	ObserveRequest(method string, status int)
	RecordRefresh(success bool)
	RecordRetry()
	RecordSessionExpired()
}

// Nop discards every event.
type Nop struct{}

func (Nop) ObserveRequest(string, int) {}
func (Nop) RecordRefresh(bool)         {}
func (Nop) RecordRetry()               {}
func (Nop) RecordSessionExpired()      {}
