package authz

import (
	"strings"

	"fieldops/internal/entities"
)

// maxPathDepth bounds parent-link walks. Cycles are not expected in the
// permission data but a corrupted row must not hang the session build.
const maxPathDepth = 16

// ResolvePath resolves a node's full dotted capability path by walking
// parent links root to leaf. A node whose declared parent is missing
// from the set resolves from its own prefix only; partially migrated
// permission data depends on this.
func ResolvePath(node entities.PermissionNode, byID map[uint64]entities.PermissionNode) string {
	segments := []string{node.Prefix}

	current := node
	for depth := 0; depth < maxPathDepth; depth++ {
		if !current.ParentID.Valid {
			break
		}
		parent, ok := byID[uint64(current.ParentID.Int64)]
		if !ok {
			// Orphaned link: the current node acts as the root.
			break
		}
		segments = append([]string{parent.Prefix}, segments...)
		current = parent
	}

	return strings.Join(segments, ".")
}

// Build assembles the capability tree from the actor's granted permission
// rows. Module-level markers contribute nothing by themselves; unknown
// resolved paths are ignored.
func Build(nodes []entities.PermissionNode) Capabilities {
	byID := make(map[uint64]entities.PermissionNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var caps Capabilities
	for _, n := range nodes {
		if n.IsModule {
			continue
		}
		if set, ok := setters[ResolvePath(n, byID)]; ok {
			set(&caps)
		}
	}
	return caps
}

// Session is the explicit per-request actor context handed to every
// lifecycle manager call.
type Session struct {
	UserID uint64
	RoleID uint64
	Caps   Capabilities
}
