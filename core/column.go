package core

// ColumnType is the declared storage class of a column.
type ColumnType int

const (
	Untyped ColumnType = iota // bare column, the engine picks the affinity
	Integer
	Real
	Text
	Blob
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	case Blob:
		return "BLOB"
	default:
		return ""
	}
}

// Action is a referential action for foreign keys.
type Action string

const (
	Cascade    Action = "CASCADE"
	SetNull    Action = "SET NULL"
	SetDefault Action = "SET DEFAULT"
	Restrict   Action = "RESTRICT"
)

// Column describes one table column and its constraints. Constraints are
// used only at table-creation time; the engine enforces them afterwards.
type Column struct {
	Name          string
	Type          ColumnType
	PrimaryKey    bool
	Unique        bool
	Nullable      bool
	AutoIncrement bool // integer primary keys only
	Default       any
}

// ForeignKey declares a referential constraint from one column of the
// table to a column of another table.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  Action
	OnUpdate  Action
}
