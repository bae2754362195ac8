package postgres

import "testing"

// TestUpdatableColumnsCoverAdminEdits pins the column whitelist to every
// field the admin console can patch, so widening the edit menu cannot
// silently start failing at the store.
func TestUpdatableColumnsCoverAdminEdits(t *testing.T) {
	edited := []string{
		"name", "real_price", "fake_original_price", "description",
		"brand", "color", "category", "sizes", "stock_quantity",
		"features", "images", "image_url", "is_new",
	}
	for _, col := range edited {
		if !updatableProductColumns[col] {
			t.Errorf("Expected column %s to be updatable", col)
		}
	}
}

func TestJSONColumnsAreUpdatable(t *testing.T) {
	for col := range jsonProductColumns {
		if !updatableProductColumns[col] {
			t.Errorf("Expected jsonb column %s to also be updatable", col)
		}
	}
}
