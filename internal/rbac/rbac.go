package rbac

// Role constants
const (
	RoleAdvertiser = "advertiser"
	RoleReviewer   = "reviewer"
	RoleAdmin      = "admin"
)

// Permission constants
const (
	PermManageCampaign = "manage_campaign"
	PermViewBalance    = "view_balance"
	PermReviewCampaign = "review_campaign"
	PermCompleteManual = "complete_campaign"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleAdvertiser: {
		PermManageCampaign, PermViewBalance,
	},
	RoleReviewer: {
		PermManageCampaign, PermViewBalance, PermReviewCampaign,
	},
	RoleAdmin: {
		PermManageCampaign, PermViewBalance, PermReviewCampaign, PermCompleteManual,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsReviewOperation reports whether the permission acts on another account's campaign.
func IsReviewOperation(permission string) bool {
	return permission == PermReviewCampaign || permission == PermCompleteManual
}
