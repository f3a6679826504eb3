package sequence

import (
	"time"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// DocumentSequence is the persisted counter behind one document category's
// numbering stream. LastValue starts at zero; the first issued number is 1.
type DocumentSequence struct {
	ID        string                 `db:"id" json:"id"`
	Category  types.DocumentCategory `db:"category" json:"category"`
	LastValue int64                  `db:"last_value" json:"last_value"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt time.Time              `db:"updated_at" json:"updated_at"`
}
