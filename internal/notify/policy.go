package notify

import "github.com/jinsuh/supplyhub/internal/models"

// rolePolicy is the static role → permitted-category table. Unknown roles map
// to the empty set, so visibility is deny-by-default.
var rolePolicy = map[models.Role][]Category{
	models.RoleManager: {
		CategorySupplyRequest,
		CategorySupplyReturn,
		CategoryStockShortage,
		CategoryReturnDueDateExceeded,
		CategoryNewChat,
	},
	models.RoleUser: {
		CategorySupplyRequestApproved,
		CategorySupplyRequestRejected,
		CategoryReturnDueSoon,
		CategoryNewChat,
	},
}

// AllowedCategories returns the categories a role may receive. The returned
// slice is a copy; callers may mutate it freely.
func AllowedCategories(role models.Role) []Category {
	allowed := rolePolicy[role]
	out := make([]Category, len(allowed))
	copy(out, allowed)
	return out
}

// IsVisible reports whether a role is permitted to receive a category.
func IsVisible(role models.Role, category Category) bool {
	for _, allowed := range rolePolicy[role] {
		if allowed == category {
			return true
		}
	}
	return false
}
