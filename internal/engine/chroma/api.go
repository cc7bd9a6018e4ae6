package chroma

import "encoding/json"

// Include values for get and query requests.
const (
	includeMetadatas  = "metadatas"
	includeDocuments  = "documents"
	includeEmbeddings = "embeddings"
	includeDistances  = "distances"
)

type collectionModel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type getRequest struct {
	Limit   int      `json:"limit,omitempty"`
	Include []string `json:"include"`
}

type getResponse struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []*string        `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]*float64       `json:"distances"`
	Documents [][]*string        `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// count responses are a bare integer.
type countResponse = json.Number
