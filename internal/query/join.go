package query

import (
	"context"
	"sort"

	"github.com/aidanlsb/cmisq/internal/model"
)

// candidates returns the rows to evaluate: one object per row for a
// single-table statement, or the equi-join of both tables.
func candidates(ctx context.Context, p *plan, repo Repository) ([][]*model.Object, error) {
	left := scan(repo, p.tables[0].typeIDs)
	if p.join == nil {
		rows := make([][]*model.Object, len(left))
		for i, o := range left {
			rows[i] = []*model.Object{o}
		}
		return rows, nil
	}
	right := scan(repo, p.tables[1].typeIDs)
	return hashJoin(ctx, left, right, p.join)
}

// scan lists the objects of a FROM type. The root folder is never a
// candidate.
func scan(repo Repository, typeIDs []string) []*model.Object {
	objs := repo.ObjectsOfType(typeIDs...)
	for i, o := range objs {
		if o.IsFolder() && o.ParentID == "" {
			out := make([]*model.Object, 0, len(objs)-1)
			out = append(out, objs[:i]...)
			return append(out, objs[i+1:]...)
		}
	}
	return objs
}

// hashJoin groups the right side by the joined property, then looks it up once
// per left object. Multi-valued properties join element-wise: a pair matches
// when the two sequences share an element. Each matching pair is emitted
// once, in left order then right order.
func hashJoin(ctx context.Context, left, right []*model.Object, j *boundJoin) ([][]*model.Object, error) {
	buckets := make(map[string][]int)
	for ri, o := range right {
		pv, ok := o.Property(j.right.prop.QueryName)
		if !ok {
			continue
		}
		seen := make(map[string]bool, pv.Len())
		for i := 0; i < pv.Len(); i++ {
			k := pv.At(i).Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			buckets[k] = append(buckets[k], ri)
		}
	}

	var rows [][]*model.Object
	for _, o := range left {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pv, ok := o.Property(j.left.prop.QueryName)
		if !ok {
			continue
		}
		matched := make(map[int]bool)
		var order []int
		for i := 0; i < pv.Len(); i++ {
			for _, ri := range buckets[pv.At(i).Key()] {
				if !matched[ri] {
					matched[ri] = true
					order = append(order, ri)
				}
			}
		}
		sort.Ints(order)
		for _, ri := range order {
			rows = append(rows, []*model.Object{o, right[ri]})
		}
	}
	return rows, nil
}
