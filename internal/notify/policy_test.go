package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jinsuh/supplyhub/internal/models"
)

func TestAllowedCategoriesPerRole(t *testing.T) {
	manager := AllowedCategories(models.RoleManager)
	require.ElementsMatch(t, []Category{
		CategorySupplyRequest,
		CategorySupplyReturn,
		CategoryStockShortage,
		CategoryReturnDueDateExceeded,
		CategoryNewChat,
	}, manager)

	user := AllowedCategories(models.RoleUser)
	require.ElementsMatch(t, []Category{
		CategorySupplyRequestApproved,
		CategorySupplyRequestRejected,
		CategoryReturnDueSoon,
		CategoryNewChat,
	}, user)
}

func TestIsVisibleDeniesByDefault(t *testing.T) {
	require.False(t, IsVisible(models.Role("AUDITOR"), CategoryNewChat))
	require.False(t, IsVisible(models.Role(""), CategoryStockShortage))
	require.Empty(t, AllowedCategories(models.Role("AUDITOR")))
}

func TestVisibilityIsDisjointOutsideSharedCategories(t *testing.T) {
	require.True(t, IsVisible(models.RoleManager, CategoryStockShortage))
	require.False(t, IsVisible(models.RoleUser, CategoryStockShortage))

	require.True(t, IsVisible(models.RoleUser, CategorySupplyRequestApproved))
	require.False(t, IsVisible(models.RoleManager, CategorySupplyRequestApproved))

	// Both roles can receive chat notifications.
	require.True(t, IsVisible(models.RoleManager, CategoryNewChat))
	require.True(t, IsVisible(models.RoleUser, CategoryNewChat))
}

func TestAllowedCategoriesReturnsCopy(t *testing.T) {
	first := AllowedCategories(models.RoleUser)
	first[0] = Category("MUTATED")

	second := AllowedCategories(models.RoleUser)
	require.NotContains(t, second, Category("MUTATED"))
}
