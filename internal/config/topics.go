package config

const (
	// TopicKBEmbed is the NSQ topic for single-document embed tasks. Publishing
	// here re-embeds one knowledge-base document without a full index rebuild.
	TopicKBEmbed = "kb.embed"

	// ChannelEmbedWorker is the consumer channel for the embed worker.
	ChannelEmbedWorker = "embed-worker"

	// CollectionName is the logical name of the knowledge-base collection.
	// It maps to the Weaviate class KnowledgeChunk (class names are capitalized).
	CollectionName = "kb"
)
