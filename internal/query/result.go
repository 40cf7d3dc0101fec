package query

import (
	"encoding/json"

	"github.com/aidanlsb/cmisq/internal/model"
)

// Result is one page of matching rows.
type Result struct {
	Rows []Row `json:"rows"`
	// TotalCount is the number of matching rows before paging.
	TotalCount   int  `json:"total_count"`
	HasMoreItems bool `json:"has_more_items"`
}

// Row is one result row. Columns keep select-list order.
type Row struct {
	Columns []ResultColumn `json:"columns"`
	// ObjectIDs holds the id of the object bound to each table, FROM first.
	ObjectIDs []string `json:"object_ids"`
}

// ResultColumn is one projected value addressed by its output key.
type ResultColumn struct {
	Key   string
	Value model.PropertyValue
}

// MarshalJSON emits the key with the plain value.
func (c ResultColumn) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}{c.Key, c.Value.Interface()})
}

// Get returns the value under key. A key that is projected but has no value
// yields an absent value and true.
func (r Row) Get(key string) (model.PropertyValue, bool) {
	for _, c := range r.Columns {
		if c.Key == key {
			return c.Value, true
		}
	}
	return model.PropertyValue{}, false
}

// Keys returns the output keys in column order.
func (r Row) Keys() []string {
	keys := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		keys[i] = c.Key
	}
	return keys
}

// project materializes the select list for one matching row.
func (p *plan) project(row []*model.Object, o outcome) Row {
	out := Row{
		Columns:   make([]ResultColumn, len(p.columns)),
		ObjectIDs: make([]string, len(row)),
	}
	for i, obj := range row {
		out.ObjectIDs[i] = obj.ID
	}
	for i, c := range p.columns {
		out.Columns[i].Key = c.key
		if c.score {
			if o.scored {
				out.Columns[i].Value = model.Single(model.Decimal(o.score))
			}
			continue
		}
		v, _ := row[c.ref.table].Property(c.ref.prop.QueryName)
		out.Columns[i].Value = v
	}
	return out
}
