package rcopy

// Callback observes the client's progress. OnTransfer is called from transfer workers,
// implementations must be safe for concurrent use.
type Callback interface {
	OnVerdict(req SyncRequest, verdict Verdict) // Client: the server classified an object
	OnTransfer(req SyncRequest, err error)      // Client: a transfer worker finished
}

type SimpleCallback struct{}

// Default callback
func (s SimpleCallback) OnVerdict(req SyncRequest, verdict Verdict) {
	// Do nothing
}

func (s SimpleCallback) OnTransfer(req SyncRequest, err error) {
	// Do nothing
}
