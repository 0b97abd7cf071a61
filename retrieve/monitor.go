package retrieve

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps during retrieval.
type Monitor interface {
	Start(query string)
	AfterQueryEmbedding(dimensions int)
	AfterVectorSearch(hits int)
	Fallback(reason string)
	AfterTextSearch(hits int)
	AfterDocumentFilter(hits int)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)              {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)   {}
func (n *noopMonitor) AfterVectorSearch(_ int)     {}
func (n *noopMonitor) Fallback(_ string)           {}
func (n *noopMonitor) AfterTextSearch(_ int)       {}
func (n *noopMonitor) AfterDocumentFilter(_ int)   {}
func (n *noopMonitor) Finish(_ *Result)            {}
