package instance

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/kailas-cloud/vecscope/internal/domain"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Descriptor identifies one configured backend instance (immutable value object).
type Descriptor struct {
	name       string
	url        string
	credential string
	kind       domain.EngineKind
	legacy     bool
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("instance name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("instance name must be alphanumeric with dots, underscores and hyphens")
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("instance url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid instance url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("instance url must use http or https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("instance url must have a host")
	}
	return nil
}

// New validates and creates a Descriptor. An empty kind defaults to qdrant.
// The kind itself is not checked here: an unknown kind is rejected when a
// connection is created.
func New(name, rawURL, credential string, kind domain.EngineKind) (Descriptor, error) {
	if err := validateName(name); err != nil {
		return Descriptor{}, err
	}
	if err := validateURL(rawURL); err != nil {
		return Descriptor{}, err
	}
	if kind == "" {
		kind = domain.DefaultEngineKind
	}
	return Descriptor{name: name, url: rawURL, credential: credential, kind: kind}, nil
}

// NewLegacy creates a descriptor registered through the legacy config endpoints.
// Legacy descriptors are always qdrant.
func NewLegacy(name, rawURL, credential string) (Descriptor, error) {
	d, err := New(name, rawURL, credential, domain.EngineQdrant)
	if err != nil {
		return Descriptor{}, err
	}
	d.legacy = true
	return d, nil
}

// Reconstruct creates a Descriptor without validation (storage hydration).
func Reconstruct(name, rawURL, credential string, kind domain.EngineKind, legacy bool) Descriptor {
	if kind == "" {
		kind = domain.DefaultEngineKind
	}
	return Descriptor{name: name, url: rawURL, credential: credential, kind: kind, legacy: legacy}
}

// Name returns the unique instance name.
func (d Descriptor) Name() string { return d.name }

// URL returns the connection URL.
func (d Descriptor) URL() string { return d.url }

// Credential returns the stored API key, empty if none.
func (d Descriptor) Credential() string { return d.credential }

// HasCredential reports whether an API key is stored.
func (d Descriptor) HasCredential() bool { return d.credential != "" }

// Kind returns the engine kind.
func (d Descriptor) Kind() domain.EngineKind { return d.kind }

// Legacy reports whether the descriptor came from the superseded single-engine config.
func (d Descriptor) Legacy() bool { return d.legacy }
