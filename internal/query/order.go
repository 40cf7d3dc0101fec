package query

import (
	"sort"

	"github.com/aidanlsb/cmisq/internal/model"
)

// match is a row that satisfied the predicate, with its sort values.
type match struct {
	row  Row
	keys []sortValue
}

type sortValue struct {
	v  model.Value
	ok bool
}

// sortValues extracts the ORDER BY values for a matching row.
func (p *plan) sortValues(objs []*model.Object, o outcome, row Row) []sortValue {
	if len(p.order) == 0 {
		return nil
	}
	out := make([]sortValue, len(p.order))
	for i, k := range p.order {
		switch {
		case k.score:
			if o.scored {
				out[i] = sortValue{v: model.Decimal(o.score), ok: true}
			}
		case k.column >= 0:
			out[i].v, out[i].ok = row.Columns[k.column].Value.First()
		default:
			if pv, ok := objs[k.ref.table].Property(k.ref.prop.QueryName); ok {
				out[i].v, out[i].ok = pv.First()
			}
		}
	}
	return out
}

// sortMatches orders rows by the plan's keys. Rows without a value sort
// before rows with one; DESC reverses only its own key. Ties keep candidate
// order.
func (p *plan) sortMatches(ms []match) {
	if len(p.order) == 0 {
		return
	}
	sort.SliceStable(ms, func(i, j int) bool {
		for k, key := range p.order {
			c := compareSortValues(ms[i].keys[k], ms[j].keys[k])
			if key.desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareSortValues(a, b sortValue) int {
	switch {
	case !a.ok && !b.ok:
		return 0
	case !a.ok:
		return -1
	case !b.ok:
		return 1
	}
	c, err := a.v.Compare(b.v)
	if err != nil {
		return 0
	}
	return c
}

// paginate applies skip and maxItems (<= 0 means no limit) to the sorted rows.
func paginate(ms []match, page Page) ([]Row, bool) {
	if page.Skip >= len(ms) {
		return []Row{}, false
	}
	end := len(ms)
	if page.MaxItems > 0 && page.MaxItems < end-page.Skip {
		end = page.Skip + page.MaxItems
	}
	rows := make([]Row, 0, end-page.Skip)
	for _, m := range ms[page.Skip:end] {
		rows = append(rows, m.row)
	}
	return rows, end < len(ms)
}
