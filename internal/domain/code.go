package domain

// CodeKind is the namespace a generated identifier belongs to. Uniqueness
// is guaranteed within a kind, not across kinds.
type CodeKind string

const (
	CodeKindOrder   CodeKind = "order"
	CodeKindProduct CodeKind = "product"
)
