// Package schema implements the Schema Registry (C4): the declarative,
// per-node-type description that the builder (internal/build) reads to
// assemble and lower the AST. A schema
// names the Tree-sitter capture that produces a node, the shape of its
// children, and which capabilities it opts into.
package schema

import (
	"fmt"
	"sort"

	"github.com/oxhq/syngraph/core"
	"github.com/oxhq/syngraph/internal/symbol"
)

// FieldKind is the cardinality of a declared child field (§4.4).
type FieldKind int

const (
	FieldSingle FieldKind = iota
	FieldOptional
	FieldMany
)

func (k FieldKind) String() string {
	switch k {
	case FieldSingle:
		return "single"
	case FieldOptional:
		return "optional"
	case FieldMany:
		return "many"
	default:
		return "unknown"
	}
}

// ChildType names the node type(s) a field accepts. A single name is a
// concrete type; more than one expresses a "choice" (tagged-variant sum).
type ChildType struct {
	TypeNames []string
}

// Concrete declares a field that accepts exactly one node type.
func Concrete(name string) ChildType { return ChildType{TypeNames: []string{name}} }

// Choice declares a field that accepts any of the given node types,
// lowered into a tagged variant.
func Choice(names ...string) ChildType { return ChildType{TypeNames: names} }

// Accepts reports whether typeName satisfies this child type.
func (c ChildType) Accepts(typeName string) bool {
	for _, n := range c.TypeNames {
		if n == typeName {
			return true
		}
	}
	return false
}

// FieldSchema is one declared child slot of a NodeSchema.
type FieldSchema struct {
	Name    string // field name, addressable from capability opt-ins as a field-path
	Capture string // the capture name that fills this slot
	Kind    FieldKind
	Type    ChildType
	// AllowZeroWidth permits a zero-width capture to fill this field (§8
	// property 9). Defaults to false: a zero-width match is a build
	// diagnostic unless the schema opts in explicitly.
	AllowZeroWidth bool
}

// Capability names one of the fixed behaviors of §4.3.
type Capability string

const (
	CapDocumentSymbols Capability = "document_symbols"
	CapHover           Capability = "hover"
	CapSemanticTokens  Capability = "semantic_tokens"
	CapInlayHints      Capability = "inlay_hints"
	CapCodeLens        Capability = "code_lens"
	CapCompletion      Capability = "completion"
	CapGoToDefinition  Capability = "go_to_definition"
	CapGoToDeclaration Capability = "go_to_declaration"
	CapReference       Capability = "reference"
	CapCheck           Capability = "check"
	CapScope           Capability = "scope"
	CapComment         Capability = "comment"
)

// OptInMode is how a node type satisfies a capability.
type OptInMode int

const (
	// OptInDefault means the capability falls back to the default behavior
	// documented on the capability's interface (often: do nothing, or
	// forward to a reference's resolved target).
	OptInDefault OptInMode = iota
	// OptInUserProvided means the concrete Go type implements the
	// capability's interface itself; the schema only records the intent.
	OptInUserProvided
	// OptInCodegen means the feature is driven by declarative parameters
	// (a field path, a token-type table, ...) recorded in FeatureOptIn.
	OptInCodegen
)

// FeatureOptIn records how a node type satisfies one capability.
type FeatureOptIn struct {
	Mode OptInMode
	// FieldPath names the field the codegen parameters key off of (e.g.
	// "hover range comes from field Name"). When Mode == OptInCodegen and
	// FieldPath is non-empty, Compile checks that the field exists; an
	// empty FieldPath is accepted.
	FieldPath string
	// Params holds any further literal codegen parameters (token type
	// name, modifiers function name, ...).
	Params map[string]string
}

// LoweredFields is the read view a Construct function uses to assemble the
// final typed node: for every declared field, the already-lowered child
// value(s), plus this node's own range and lazy source text.
type LoweredFields struct {
	Range core.Range
	Text  func() string

	single   map[string]symbol.Node
	optional map[string]symbol.Node
	many     map[string][]symbol.Node
}

// NewLoweredFields creates an empty field set for range rng; text lazily
// slices the owning document's source for this node's own span.
func NewLoweredFields(rng core.Range, text func() string) *LoweredFields {
	return &LoweredFields{
		Range:    rng,
		Text:     text,
		single:   make(map[string]symbol.Node),
		optional: make(map[string]symbol.Node),
		many:     make(map[string][]symbol.Node),
	}
}

// SetSingle records the lowered child for a `single` field.
func (f *LoweredFields) SetSingle(name string, n symbol.Node) { f.single[name] = n }

// SetOptional records the lowered child for an `optional` field, if filled.
func (f *LoweredFields) SetOptional(name string, n symbol.Node) { f.optional[name] = n }

// AppendMany appends a lowered child to a `many` field.
func (f *LoweredFields) AppendMany(name string, n symbol.Node) {
	f.many[name] = append(f.many[name], n)
}

// Single returns the lowered child of a `single` field.
func (f *LoweredFields) Single(name string) (symbol.Node, bool) {
	n, ok := f.single[name]
	return n, ok
}

// Optional returns the lowered child of an `optional` field, if filled.
func (f *LoweredFields) Optional(name string) (symbol.Node, bool) {
	n, ok := f.optional[name]
	return n, ok
}

// Many returns the (possibly empty) lowered children of a `many` field.
func (f *LoweredFields) Many(name string) []symbol.Node {
	return f.many[name]
}

// ConstructFunc builds the final typed, Cell-backed node from its lowered
// fields. It must not fail for structural reasons (those are caught by
// Lowering before Construct ever runs); it returns an error only for a
// programmer-contract violation (a capability marked OptInCodegen whose
// params are malformed, say).
type ConstructFunc func(id uint64, doc string, fields *LoweredFields) (symbol.Node, error)

// NodeSchema is the complete per-node-type declaration (§4.4).
type NodeSchema struct {
	TypeName     string
	QueryName    string
	Fields       []FieldSchema
	Capabilities map[Capability]FeatureOptIn
	Construct    ConstructFunc
}

// FieldByName looks up a declared field by its Go-facing name.
func (s NodeSchema) FieldByName(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// FieldByCapture looks up a declared field by its query capture name.
func (s NodeSchema) FieldByCapture(capture string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Capture == capture {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// ConflictError is one schema-compile failure (§7 "Schema error"). Compile
// accumulates every conflict it finds rather than stopping at the first,
// so a schema author can fix them all in one pass.
type ConflictError struct {
	TypeName string
	Detail   string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("schema %q: %s", e.TypeName, e.Detail)
}

// Registry holds every NodeSchema for one language and resolves captures
// to node types during the build. It is immutable after Compile succeeds;
// construction (Register + Compile) is expected to happen once at process
// startup, so it carries no internal locking.
type Registry struct {
	byType    map[string]NodeSchema
	byCapture map[string]NodeSchema
	order     []string // registration order, for deterministic Compile output
	compiled  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType:    make(map[string]NodeSchema),
		byCapture: make(map[string]NodeSchema),
	}
}

// Register adds a NodeSchema. It may be called any number of times before
// Compile; Compile is what validates the whole set.
func (r *Registry) Register(s NodeSchema) {
	r.byType[s.TypeName] = s
	r.order = append(r.order, s.TypeName)
}

// Compile validates every registered schema against §4.4's cross-schema
// invariant (capture names must resolve unambiguously to one node type)
// and §6's rule that codegen capability parameters must reference real
// fields. It returns every conflict found; a non-empty result means the
// registry MUST NOT be used to build documents (§7 "Schema error... Fatal;
// surfaces during framework initialisation").
func (r *Registry) Compile() []ConflictError {
	var errs []ConflictError

	captureOwner := make(map[string]string) // capture name -> owning type name
	for _, typeName := range r.order {
		s := r.byType[typeName]

		if existing, ok := captureOwner[s.QueryName]; ok && existing != typeName {
			errs = append(errs, ConflictError{
				TypeName: typeName,
				Detail:   fmt.Sprintf("capture %q already produces node type %q", s.QueryName, existing),
			})
		} else {
			captureOwner[s.QueryName] = typeName
		}

		seenFieldCapture := make(map[string]string)
		seenFieldName := make(map[string]bool)
		for _, f := range s.Fields {
			if owner, ok := seenFieldCapture[f.Capture]; ok {
				errs = append(errs, ConflictError{
					TypeName: typeName,
					Detail:   fmt.Sprintf("sibling fields %q and %q both claim capture %q", owner, f.Name, f.Capture),
				})
			} else {
				seenFieldCapture[f.Capture] = f.Name
			}
			if seenFieldName[f.Name] {
				errs = append(errs, ConflictError{
					TypeName: typeName,
					Detail:   fmt.Sprintf("duplicate field name %q", f.Name),
				})
			}
			seenFieldName[f.Name] = true
		}

		for cap, optIn := range s.Capabilities {
			if optIn.Mode != OptInCodegen {
				continue
			}
			if optIn.FieldPath == "" {
				continue
			}
			if _, ok := s.FieldByName(optIn.FieldPath); !ok {
				errs = append(errs, ConflictError{
					TypeName: typeName,
					Detail:   fmt.Sprintf("capability %q references unknown field %q", cap, optIn.FieldPath),
				})
			}
		}

		if s.Construct == nil {
			errs = append(errs, ConflictError{TypeName: typeName, Detail: "no Construct function registered"})
		}
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].TypeName < errs[j].TypeName })

	if len(errs) == 0 {
		r.byCapture = make(map[string]NodeSchema, len(r.byType))
		for _, s := range r.byType {
			r.byCapture[s.QueryName] = s
		}
		r.compiled = true
	}
	return errs
}

// ByCapture resolves a Tree-sitter capture name to its NodeSchema. Only
// valid to call after a successful Compile.
func (r *Registry) ByCapture(capture string) (NodeSchema, bool) {
	s, ok := r.byCapture[capture]
	return s, ok
}

// ByType resolves a node type name to its NodeSchema.
func (r *Registry) ByType(typeName string) (NodeSchema, bool) {
	s, ok := r.byType[typeName]
	return s, ok
}

// Compiled reports whether Compile has run and found zero conflicts.
func (r *Registry) Compiled() bool { return r.compiled }
