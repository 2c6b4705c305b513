// Package registry maps tool names to typed handlers. Each handler's argument
// struct is reflected into a JSON schema that is both published to the model
// and enforced on every call.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/ledger"
	"github.com/Ocada-ai-biz/agentx/internal/ui"
	"github.com/invopop/jsonschema"
)

var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrFrozen      = errors.New("registry is frozen")
	ErrDuplicate   = errors.New("tool already registered")
)

// Turn is what a handler gets to work with for one tool call
type Turn struct {
	ConversationID string
	Query          string
	CallID         string
	Ledger         *ledger.Ledger
	// UI opens additional regions; Sink is the region reserved for this call
	UI     *ui.Factory
	Sink   ui.Sink
	Logger *slog.Logger
}

// HandlerFunc handles one validated call. A returned error is shown to the
// user and recorded as a failed function turn.
type HandlerFunc[T any] func(ctx context.Context, turn *Turn, args T) error

// ParsedCall is a call whose arguments passed validation
type ParsedCall struct {
	Name string
	Args any
}

type Registration struct {
	Tool   domain.Tool
	Schema *jsonschema.Schema

	decode func(raw map[string]any) (any, error)
	invoke func(ctx context.Context, turn *Turn, args any) error
}

type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Registration
	order  []string
	frozen bool
}

func New() *Registry {
	return &Registry{tools: make(map[string]*Registration)}
}

var reflector = &jsonschema.Reflector{
	DoNotReference:             true,
	ExpandedStruct:             true,
	AllowAdditionalProperties:  false,
	RequiredFromJSONSchemaTags: true,
}

// Register adds a handler. It fails once the registry is frozen or when the
// name is taken.
func Register[T any](r *Registry, name, description string, h HandlerFunc[T]) error {
	if name == "" {
		return errors.New("tool name cannot be empty")
	}
	if h == nil {
		return fmt.Errorf("tool %s: handler cannot be nil", name)
	}

	var zero T
	schema := reflector.Reflect(&zero)
	params, err := schemaToMap(schema)
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}

	reg := &Registration{
		Tool: domain.Tool{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		Schema: schema,
	}
	reg.decode = func(raw map[string]any) (any, error) {
		var args T
		if err := decodeInto(name, raw, &args); err != nil {
			return nil, err
		}
		return args, nil
	}
	reg.invoke = func(ctx context.Context, turn *Turn, args any) error {
		typed, ok := args.(T)
		if !ok {
			return fmt.Errorf("tool %s: unexpected argument type %T", name, args)
		}
		return h(ctx, turn, typed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %s: %w", name, ErrFrozen)
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("register %s: %w", name, ErrDuplicate)
	}
	r.tools[name] = reg
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for setup code that cannot recover
func MustRegister[T any](r *Registry, name, description string, h HandlerFunc[T]) {
	if err := Register(r, name, description, h); err != nil {
		panic(err)
	}
}

// Freeze seals the registry. Lookups are lock-free in spirit after this point:
// nothing can be added.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

func (r *Registry) Lookup(name string) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return reg, nil
}

// Declarations lists the tools in registration order
func (r *Registry) Declarations() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Tool)
	}
	return out
}

// Validate checks raw arguments against the schema and the struct's validate
// tags, returning the typed arguments.
func (reg *Registration) Validate(raw map[string]any) (ParsedCall, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	if err := validateValue(reg.Tool.Name, "", reg.Schema, raw); err != nil {
		return ParsedCall{}, err
	}
	args, err := reg.decode(raw)
	if err != nil {
		return ParsedCall{}, err
	}
	return ParsedCall{Name: reg.Tool.Name, Args: args}, nil
}

// Invoke runs the handler and waits for it
func (reg *Registration) Invoke(ctx context.Context, turn *Turn, call ParsedCall) error {
	return reg.invoke(ctx, turn, call.Args)
}

func schemaToMap(s *jsonschema.Schema) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	return m, nil
}
