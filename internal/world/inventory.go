package world

// ItemStack is a quantity of one item type.
type ItemStack struct {
	ItemID string `json:"itemId"`
	Amount int    `json:"amount"`
}

// InventoryItem is one inventory entry. The amount is always positive;
// entries are pruned as soon as they reach zero.
type InventoryItem struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

// Inventory is a pookie's held items.
type Inventory []InventoryItem

// Has reports whether the inventory covers every requested stack.
func (inv Inventory) Has(items []ItemStack) bool {
	for _, want := range items {
		found := false
		for _, have := range inv {
			if have.ID == want.ItemID && have.Amount >= want.Amount {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Count returns the held amount of the given item.
func (inv Inventory) Count(itemID string) int {
	for _, it := range inv {
		if it.ID == itemID {
			return it.Amount
		}
	}
	return 0
}

// Add returns the inventory with the given stacks added, merging into
// existing entries where present.
func (inv Inventory) Add(items []ItemStack) Inventory {
	out := inv
	for _, add := range items {
		merged := false
		for i := range out {
			if out[i].ID == add.ItemID {
				out[i].Amount += add.Amount
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, InventoryItem{ID: add.ItemID, Amount: add.Amount})
		}
	}
	return out
}

// Remove returns the inventory with the given stacks removed. Entries whose
// amount drops to zero or below are pruned.
func (inv Inventory) Remove(items []ItemStack) Inventory {
	for _, rem := range items {
		for i := range inv {
			if inv[i].ID == rem.ItemID {
				inv[i].Amount -= rem.Amount
				break
			}
		}
	}
	out := inv[:0]
	for _, it := range inv {
		if it.Amount > 0 {
			out = append(out, it)
		}
	}
	return out
}

// Total returns the total number of items across all entries.
func (inv Inventory) Total() int {
	n := 0
	for _, it := range inv {
		n += it.Amount
	}
	return n
}
