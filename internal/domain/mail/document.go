package mail

import (
	"context"
	"sort"
	"sync"

	"github.com/erp/messaging/internal/domain/identity"
)

// Document is the view of a business record the messaging layer needs
type Document struct {
	Model     string
	ResID     int64
	Name      string
	AliasName string
}

// DocumentProvider exposes the records of one model to the messaging layer
// together with that model's own read and write rules.
type DocumentProvider interface {
	// Model returns the model name served, e.g. "mail.channel"
	Model() string
	// Document loads a record; shared.ErrNotFound when it does not exist
	Document(ctx context.Context, resID int64) (*Document, error)
	// CanRead reports whether the principal may read the record
	CanRead(ctx context.Context, principal *identity.Principal, resID int64) (bool, error)
	// CanWrite reports whether the principal may modify the record
	CanWrite(ctx context.Context, principal *identity.Principal, resID int64) (bool, error)
	// ReadableIDs lists the records the principal may read
	ReadableIDs(ctx context.Context, principal *identity.Principal) ([]int64, error)
}

// DocumentRegistry maps model names to their providers
type DocumentRegistry struct {
	mu        sync.RWMutex
	providers map[string]DocumentProvider
}

// NewDocumentRegistry creates a registry with the given providers
func NewDocumentRegistry(providers ...DocumentProvider) *DocumentRegistry {
	r := &DocumentRegistry{providers: make(map[string]DocumentProvider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the provider for its model
func (r *DocumentRegistry) Register(p DocumentProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Model()] = p
}

// Provider returns the provider for model
func (r *DocumentRegistry) Provider(model string) (DocumentProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[model]
	return p, ok
}

// Models returns the registered model names in sorted order
func (r *DocumentRegistry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	models := make([]string, 0, len(r.providers))
	for m := range r.providers {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// Document resolves a reference; ErrUnknownModel for unregistered models
func (r *DocumentRegistry) Document(ctx context.Context, ref DocumentRef) (*Document, error) {
	p, ok := r.Provider(ref.Model)
	if !ok {
		return nil, ErrUnknownModel
	}
	return p.Document(ctx, ref.ResID)
}
