package core

// CanEdit reports whether the user may edit, move, resize or delete the
// event: the owner may, and so may an administrator.
func CanEdit(u User, e Event) bool {
	if u.IsAdmin {
		return true
	}
	return u.ID != "" && u.ID == e.OwnerUserID
}
