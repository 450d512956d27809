package worker

// KBEmbedPayload is published on the kb.embed topic to re-embed a single
// knowledge-base document without a full index rebuild. Existing chunks for
// the same source are deleted before the new ones are stored.
type KBEmbedPayload struct {
	Source        string `json:"source"`
	Text          string `json:"text"`
	Window        int    `json:"window,omitempty"`
	Overlap       int    `json:"overlap,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
