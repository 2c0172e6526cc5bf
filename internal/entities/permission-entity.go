package entities

import "github.com/aarondl/null/v8"

// PermissionNode is one row of the flat permission list. Leaves carry an
// action prefix; module rows (IsModule) only contribute path segments.
// Full dotted paths are resolved by walking ParentID links to the root.
type PermissionNode struct {
	ID       uint64     `json:"id"`
	Prefix   string     `json:"prefix"`
	ParentID null.Int64 `json:"parent_permission_id"`
	IsModule bool       `json:"isModule"`
}
