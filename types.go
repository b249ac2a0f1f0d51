package docskema

// Type names a scalar type inside a definition, e.g. Definition{"name": String}.
// Plain strings ("String", "number", "ObjectId") are accepted as well.
type Type string

const (
	String   Type = "String"
	Number   Type = "Number"
	Boolean  Type = "Boolean"
	Date     Type = "Date"
	ObjectID Type = "ObjectId"
	UUID     Type = "UUID"
	Mixed    Type = "Mixed"
)

// Instance is the resolved type tag of a compiled path.
type Instance string

const (
	InstanceString   Instance = "String"
	InstanceNumber   Instance = "Number"
	InstanceBoolean  Instance = "Boolean"
	InstanceDate     Instance = "Date"
	InstanceObjectID Instance = "ObjectID"
	InstanceUUID     Instance = "UUID"
	InstanceMixed    Instance = "Mixed"
	InstanceEmbedded Instance = "Embedded"
	InstanceArray    Instance = "Array"
)

// Definition is a declarative field-definition mapping: field name to type
// descriptor or nested descriptor.
type Definition map[string]any

// UnknownPolicy controls how keys that are not declared in a schema are
// handled when a document is constructed.
type UnknownPolicy int

const (
	UnknownStrip       UnknownPolicy = iota // Drop unknown keys (default).
	UnknownStrict                           // Reject unknown keys with a StrictModeError.
	UnknownPassthrough                      // Preserve unknown keys verbatim.
)

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownStrict:
		return "throw"
	case UnknownPassthrough:
		return "passthrough"
	default:
		return "strip"
	}
}

// PathKind classifies a dotted name against a compiled schema.
type PathKind int

const (
	PathAdhocOrUndefined PathKind = iota
	PathReal
	PathNested
)

func (k PathKind) String() string {
	switch k {
	case PathReal:
		return "real"
	case PathNested:
		return "nested"
	default:
		return "adhocOrUndefined"
	}
}
