package notify

// Category is the closed set of notification kinds. Every category is
// statically bound to exactly one strategy (see NewRegistry) and to the roles
// permitted to receive it (see policy.go).
type Category string

const (
	CategorySupplyRequest         Category = "SUPPLY_REQUEST"
	CategorySupplyReturn          Category = "SUPPLY_RETURN"
	CategoryStockShortage         Category = "STOCK_SHORTAGE"
	CategoryReturnDueDateExceeded Category = "RETURN_DUE_DATE_EXCEEDED"
	CategoryReturnDueSoon         Category = "RETURN_DUE_SOON"
	CategorySupplyRequestApproved Category = "SUPPLY_REQUEST_APPROVED"
	CategorySupplyRequestRejected Category = "SUPPLY_REQUEST_REJECTED"
	CategoryNewChat               Category = "NEW_CHAT"
)

// Categories lists every known category.
func Categories() []Category {
	return []Category{
		CategorySupplyRequest,
		CategorySupplyReturn,
		CategoryStockShortage,
		CategoryReturnDueDateExceeded,
		CategoryReturnDueSoon,
		CategorySupplyRequestApproved,
		CategorySupplyRequestRejected,
		CategoryNewChat,
	}
}

// ParseCategory validates a category string, returning false when unknown.
func ParseCategory(value string) (Category, bool) {
	category := Category(value)
	for _, known := range Categories() {
		if category == known {
			return category, true
		}
	}
	return "", false
}
