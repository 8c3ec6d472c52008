package domain

import "time"

// GroupMembership references a group by id. Kept as a struct so membership
// can grow metadata without a schema break.
type GroupMembership struct {
	GroupID string `json:"group_id"`
}

// User binds an external principal (AccountID) to a set of groups. GroupIDs
// is the deduplicated projection of Groups and is recomputed before every
// write.
type User struct {
	ID        string
	AccountID string
	Groups    []GroupMembership
	GroupIDs  []string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DedupedGroupIDs returns the group ids of the memberships in order of first
// occurrence.
func (u *User) DedupedGroupIDs() []string {
	seen := make(map[string]bool, len(u.Groups))
	ids := make([]string, 0, len(u.Groups))
	for _, m := range u.Groups {
		if m.GroupID == "" || seen[m.GroupID] {
			continue
		}
		seen[m.GroupID] = true
		ids = append(ids, m.GroupID)
	}
	return ids
}
