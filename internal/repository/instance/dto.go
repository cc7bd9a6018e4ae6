package instance

import (
	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/domain/instance"
)

// document is the persisted registry shape.
type document struct {
	Instances []row `json:"instances"`
}

// row is one persisted descriptor. api_key is null when no credential is stored.
type row struct {
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	APIKey *string `json:"api_key"`
	Type   string  `json:"type"`
	Legacy bool    `json:"legacy,omitempty"`
}

func descriptorToRow(d instance.Descriptor) row {
	r := row{
		Name:   d.Name(),
		URL:    d.URL(),
		Type:   d.Kind().String(),
		Legacy: d.Legacy(),
	}
	if d.HasCredential() {
		key := d.Credential()
		r.APIKey = &key
	}
	return r
}

func rowToDescriptor(r row) instance.Descriptor {
	var key string
	if r.APIKey != nil {
		key = *r.APIKey
	}
	return instance.Reconstruct(r.Name, r.URL, key, domain.EngineKind(r.Type), r.Legacy)
}
