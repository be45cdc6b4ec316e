package domain

// Capability is a named permission grantable to a role.
type Capability string

const (
	ManageUsers        Capability = "manage_users"    // ban, mute, change role, delete accounts
	ManageContent      Capability = "manage_content"  // edit/delete any item
	FeaturePosts       Capability = "feature_posts"   // toggle the featured flag
	ManageCategories   Capability = "manage_categories"
	ViewAdminDashboard Capability = "view_admin_dashboard"
)

// rolePermissions is the static role → capability mapping. Staff can moderate
// content but not users or system configuration.
var rolePermissions = map[string][]Capability{
	RoleOwner: {
		ManageUsers,
		ManageContent,
		FeaturePosts,
		ManageCategories,
		ViewAdminDashboard,
	},
	RoleAdmin: {
		ManageUsers,
		ManageContent,
		FeaturePosts,
		ManageCategories,
		ViewAdminDashboard,
	},
	RoleStaff: {
		ManageContent,
		ViewAdminDashboard,
	},
	RoleUser: {},
}

// HasPermission reports whether the user's role grants the capability.
// Total and side-effect free: a nil user (unauthenticated) or an unknown role
// yields false for every capability.
func HasPermission(u *User, c Capability) bool {
	if u == nil {
		return false
	}
	for _, granted := range rolePermissions[u.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

// CanEditItem decides whether the actor may mutate the item owned by
// itemAuthorID. It requires both a resolved profile and the authenticated uid;
// an empty uid means authentication has not settled yet and the mutation must
// be refused.
func CanEditItem(u *User, uid string, itemAuthorID string) bool {
	if u == nil || uid == "" {
		return false
	}
	if HasPermission(u, ManageContent) {
		return true
	}
	return uid == itemAuthorID
}
