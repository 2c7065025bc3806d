package diff

import (
	"slices"

	"github.com/koba/ddl2ts/internal/schema"
)

// Action represents the type of change
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionDrop   Action = "DROP"
	ActionModify Action = "MODIFY"
)

// TableDiff represents the differences for one table
type TableDiff struct {
	TableName         string
	Action            Action
	Old               *schema.Table
	New               *schema.Table
	ColumnChanges     []ColumnChange
	IndexChanges      []IndexChange
	ForeignKeyChanges []ForeignKeyChange
}

// ColumnChange represents a change to a column. OldType and NewType hold
// the TypeScript types the column renders to.
type ColumnChange struct {
	ColumnName string
	Action     Action
	OldColumn  *schema.Column
	NewColumn  *schema.Column
	OldType    string
	NewType    string
}

// IndexChange represents a change to an index
type IndexChange struct {
	IndexName string
	Action    Action
	OldIndex  *schema.Index
	NewIndex  *schema.Index
}

// ForeignKeyChange represents a change to a foreign key
type ForeignKeyChange struct {
	FKName        string
	Action        Action
	OldForeignKey *schema.ForeignKey
	NewForeignKey *schema.ForeignKey
}

// compareTables compares two versions of a table. It returns nil when
// nothing visible in the declarations changed.
func compareTables(old, new *schema.Table, typeOf TypeFunc) *TableDiff {
	diff := &TableDiff{
		TableName: new.Name,
		Action:    ActionModify,
		Old:       old,
		New:       new,
	}

	// Columns
	for i := range new.Columns {
		newCol := &new.Columns[i]
		oldCol := findColumn(old, newCol.Name)
		if oldCol == nil {
			diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
				ColumnName: newCol.Name,
				Action:     ActionAdd,
				NewColumn:  newCol,
				NewType:    typeOf(newCol),
			})
			continue
		}
		oldType, newType := typeOf(oldCol), typeOf(newCol)
		if oldType != newType || !columnsEqual(oldCol, newCol) {
			diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
				ColumnName: newCol.Name,
				Action:     ActionModify,
				OldColumn:  oldCol,
				NewColumn:  newCol,
				OldType:    oldType,
				NewType:    newType,
			})
		}
	}
	for i := range old.Columns {
		oldCol := &old.Columns[i]
		if findColumn(new, oldCol.Name) == nil {
			diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
				ColumnName: oldCol.Name,
				Action:     ActionDrop,
				OldColumn:  oldCol,
				OldType:    typeOf(oldCol),
			})
		}
	}

	// Indexes
	for i := range new.Indexes {
		newIdx := &new.Indexes[i]
		oldIdx := findIndex(old.Indexes, newIdx.Name)
		switch {
		case oldIdx == nil:
			diff.IndexChanges = append(diff.IndexChanges, IndexChange{
				IndexName: newIdx.Name,
				Action:    ActionAdd,
				NewIndex:  newIdx,
			})
		case !indexesEqual(oldIdx, newIdx):
			diff.IndexChanges = append(diff.IndexChanges, IndexChange{
				IndexName: newIdx.Name,
				Action:    ActionModify,
				OldIndex:  oldIdx,
				NewIndex:  newIdx,
			})
		}
	}
	for i := range old.Indexes {
		oldIdx := &old.Indexes[i]
		if findIndex(new.Indexes, oldIdx.Name) == nil {
			diff.IndexChanges = append(diff.IndexChanges, IndexChange{
				IndexName: oldIdx.Name,
				Action:    ActionDrop,
				OldIndex:  oldIdx,
			})
		}
	}

	// Foreign keys
	for i := range new.ForeignKeys {
		newFK := &new.ForeignKeys[i]
		oldFK := findForeignKey(old.ForeignKeys, newFK.Name)
		switch {
		case oldFK == nil:
			diff.ForeignKeyChanges = append(diff.ForeignKeyChanges, ForeignKeyChange{
				FKName:        newFK.Name,
				Action:        ActionAdd,
				NewForeignKey: newFK,
			})
		case *oldFK != *newFK:
			diff.ForeignKeyChanges = append(diff.ForeignKeyChanges, ForeignKeyChange{
				FKName:        newFK.Name,
				Action:        ActionModify,
				OldForeignKey: oldFK,
				NewForeignKey: newFK,
			})
		}
	}
	for i := range old.ForeignKeys {
		oldFK := &old.ForeignKeys[i]
		if findForeignKey(new.ForeignKeys, oldFK.Name) == nil {
			diff.ForeignKeyChanges = append(diff.ForeignKeyChanges, ForeignKeyChange{
				FKName:        oldFK.Name,
				Action:        ActionDrop,
				OldForeignKey: oldFK,
			})
		}
	}

	if len(diff.ColumnChanges) == 0 && len(diff.IndexChanges) == 0 && len(diff.ForeignKeyChanges) == 0 {
		return nil
	}
	return diff
}

// findColumn matches exact names first, so a rename that only changes case
// is reported as a modification.
func findColumn(t *schema.Table, name string) *schema.Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return t.Column(name)
}

func findIndex(indexes []schema.Index, name string) *schema.Index {
	for i := range indexes {
		if indexes[i].Name == name {
			return &indexes[i]
		}
	}
	return nil
}

func findForeignKey(fks []schema.ForeignKey, name string) *schema.ForeignKey {
	for i := range fks {
		if fks[i].Name == name {
			return &fks[i]
		}
	}
	return nil
}

func columnsEqual(a, b *schema.Column) bool {
	if a.Name != b.Name || a.Type != b.Type || a.Nullable != b.Nullable || a.AutoIncrement != b.AutoIncrement ||
		a.PrimaryKey != b.PrimaryKey || a.Comment != b.Comment {
		return false
	}

	if (a.DefaultValue == nil) != (b.DefaultValue == nil) {
		return false
	}
	if a.DefaultValue != nil && *a.DefaultValue != *b.DefaultValue {
		return false
	}

	return slices.Equal(a.EnumValues, b.EnumValues)
}

func indexesEqual(a, b *schema.Index) bool {
	return a.Unique == b.Unique &&
		a.Primary == b.Primary &&
		a.Type == b.Type &&
		slices.Equal(a.Columns, b.Columns)
}
