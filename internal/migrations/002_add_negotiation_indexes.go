package migrations

import (
	"gorm.io/gorm"
)

// Migration002AddNegotiationIndexes adds indexes for the hot-path
// negotiation queries beyond what AutoMigrate derives from model tags:
// 1. Inbox listing (participant, last_message_at DESC)
// 2. Undelivered-message sweep (incremental sync is already covered by the
//    unique (conversation_id, seq) index; the partial scan is not)
// 3. Catalog browsing (status, created_at DESC)
//
// All statements are idempotent (IF NOT EXISTS) for safe re-runs. The
// migrator wraps Up() in a transaction, so CONCURRENTLY is not used here;
// run the concurrent variant manually for large production tables.
func Migration002AddNegotiationIndexes() Migration {
	return Migration{
		ID:   "002_add_negotiation_indexes",
		Name: "Add indexes for negotiation hot-path queries",
		Up: func(db *gorm.DB) error {
			// Inbox: WHERE buyer_id = ? OR seller_id = ? ORDER BY last_message_at DESC
			idx1 := `
				CREATE INDEX IF NOT EXISTS idx_conversations_buyer_activity
				ON conversations (buyer_id, last_message_at DESC)
			`
			if err := db.Exec(idx1).Error; err != nil {
				return err
			}
			idx2 := `
				CREATE INDEX IF NOT EXISTS idx_conversations_seller_activity
				ON conversations (seller_id, last_message_at DESC)
			`
			if err := db.Exec(idx2).Error; err != nil {
				return err
			}

			// Undelivered-message sweep: WHERE delivered_at IS NULL
			idx3 := `
				CREATE INDEX IF NOT EXISTS idx_messages_undelivered
				ON messages (conversation_id)
				WHERE delivered_at IS NULL
			`
			if err := db.Exec(idx3).Error; err != nil {
				return err
			}

			// Catalog: WHERE status = 'AVAILABLE' ORDER BY created_at DESC
			idx4 := `
				CREATE INDEX IF NOT EXISTS idx_products_catalog
				ON products (status, created_at DESC)
			`
			return db.Exec(idx4).Error
		},
		Down: func(db *gorm.DB) error {
			// Drop indexes in reverse order
			if err := db.Exec(`DROP INDEX IF EXISTS idx_products_catalog`).Error; err != nil {
				return err
			}
			if err := db.Exec(`DROP INDEX IF EXISTS idx_messages_undelivered`).Error; err != nil {
				return err
			}
			if err := db.Exec(`DROP INDEX IF EXISTS idx_conversations_seller_activity`).Error; err != nil {
				return err
			}
			return db.Exec(`DROP INDEX IF EXISTS idx_conversations_buyer_activity`).Error
		},
	}
}
