package domain

// PermissionMap maps a domain id to an access-level value. It is used both
// for a principal's effective permissions and for a route's requirements.
type PermissionMap map[string]int64

// Dominates reports whether the map satisfies every entry of required: for
// each domain the map must define a value greater than or equal to the
// required one. An empty requirement is always satisfied.
func (m PermissionMap) Dominates(required PermissionMap) bool {
	for domainID, want := range required {
		have, ok := m[domainID]
		if !ok || have < want {
			return false
		}
	}
	return true
}

// Clone returns a copy of the map. A nil map clones to nil.
func (m PermissionMap) Clone() PermissionMap {
	if m == nil {
		return nil
	}
	out := make(PermissionMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
