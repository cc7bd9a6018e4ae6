package domain

// EngineKind identifies the vector database implementation an instance talks to.
type EngineKind string

const (
	// EngineQdrant has native pagination, similarity scores and segment/status metadata.
	EngineQdrant EngineKind = "qdrant"
	// EngineChroma has bulk-fetch-only retrieval and ranks by distance.
	EngineChroma EngineKind = "chromadb"
)

// DefaultEngineKind is assumed when a stored descriptor omits its type.
const DefaultEngineKind = EngineQdrant

// IsValid checks if the engine kind is supported.
func (k EngineKind) IsValid() bool {
	return k == EngineQdrant || k == EngineChroma
}

func (k EngineKind) String() string { return string(k) }
