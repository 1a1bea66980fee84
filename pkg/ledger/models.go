package ledger

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// ArchiveRecord marks one archived attachment. The existence of a
// record for a key is the sole idempotency signal: present means
// "already archived, never re-download".
type ArchiveRecord struct {
	bun.BaseModel `bun:"table:archive_records,alias:ar"`

	Key          string    `bun:",pk"`
	CreatedAt    time.Time `bun:",notnull"`
	Text         string    `bun:",nullzero"`
	AuthorName   string    `bun:",nullzero"`
	AuthorHandle string    `bun:",nullzero"`
	Hashtags     string    `bun:",nullzero"`
	WriteTime    time.Time `bun:",notnull"`
}

// PageCursor is the single live resume point for a user's feed walk
type PageCursor struct {
	bun.BaseModel `bun:"table:page_cursors,alias:pc"`

	UserID    string    `bun:",pk"`
	Token     string    `bun:",nullzero"`
	UpdatedAt time.Time `bun:",notnull"`
}

// RecordKey builds the idempotency key for one attachment of one item
func RecordKey(itemID string, attachmentIndex int) string {
	return fmt.Sprintf("%s_%d", itemID, attachmentIndex)
}
