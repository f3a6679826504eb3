package types

// Status is a type for the lifecycle status of a record in the database.
// It is orthogonal to the business state of a document (see InvoiceStatus):
// a deleted record is excluded from queries regardless of its business state.
// Any changes to this type should be reflected in the database schema by running migrations
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}
