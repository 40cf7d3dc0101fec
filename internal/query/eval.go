package query

import (
	"fmt"

	"github.com/aidanlsb/cmisq/internal/model"
)

// maxTreeDepth bounds the parent walk of IN_TREE.
const maxTreeDepth = 1 << 12

// outcome is the result of evaluating a predicate for one candidate row.
type outcome struct {
	match  bool
	score  float64
	scored bool
}

// evaluator evaluates a bound predicate. It holds no per-candidate state.
type evaluator struct {
	pred  *Predicate
	nodes []boundNode
	repo  Repository
	idx   Indexer
}

func newEvaluator(p *plan, repo Repository, idx Indexer) *evaluator {
	return &evaluator{pred: &p.stmt.Where, nodes: p.nodes, repo: repo, idx: idx}
}

// evaluate reports whether row (one object per table) satisfies the WHERE
// clause. An empty clause matches everything.
func (e *evaluator) evaluate(row []*model.Object) (outcome, error) {
	if e.pred.Empty() {
		return outcome{match: true}, nil
	}
	return e.eval(e.pred.Root, row)
}

func (e *evaluator) eval(id NodeID, row []*model.Object) (outcome, error) {
	n := &e.pred.Nodes[id]
	b := &e.nodes[id]

	switch n.Kind {
	case NodeAnd:
		l, err := e.eval(n.Left, row)
		if err != nil || !l.match {
			return outcome{}, err
		}
		r, err := e.eval(n.Right, row)
		if err != nil || !r.match {
			return outcome{}, err
		}
		return merge(l, r), nil

	case NodeOr:
		l, err := e.eval(n.Left, row)
		if err != nil || l.match {
			return l, err
		}
		return e.eval(n.Right, row)

	case NodeInFolder:
		folderID := b.value.v.Text()
		return outcome{match: folderID != "" && row[b.table].ParentID == folderID}, nil

	case NodeInTree:
		return outcome{match: e.inTree(row[b.table], b.value.v.Text())}, nil

	case NodeContains:
		score, ok, err := e.idx.Score(b.value.v.Text(), row[b.table].ID)
		if err != nil {
			return outcome{}, fmt.Errorf("full-text score: %w", err)
		}
		if !ok || score <= 0 {
			return outcome{}, nil
		}
		return outcome{match: true, score: score, scored: true}, nil
	}

	// A bad literal fails the node whether or not this row has a value.
	if b.value.err != nil {
		return outcome{}, b.value.err
	}
	for _, lv := range b.list {
		if lv.err != nil {
			return outcome{}, lv.err
		}
	}

	pv, present := row[b.table].Property(b.ref.prop.QueryName)

	switch n.Kind {
	case NodeIsNull:
		null := !present || pv.IsNull()
		return outcome{match: null != n.Negated}, nil

	case NodeCompare:
		if !present {
			return outcome{}, nil
		}
		v, ok := pv.First()
		if !ok {
			return outcome{}, nil
		}
		c, err := v.Compare(b.value.v)
		if err != nil {
			return outcome{}, wrapError(KindTypeMismatch, n.Pos, err)
		}
		return outcome{match: n.Op.holds(c)}, nil

	case NodeIn:
		if !present {
			return outcome{}, nil
		}
		v, ok := pv.First()
		if !ok {
			return outcome{}, nil
		}
		return outcome{match: memberOf(v, b.list) != n.Negated}, nil

	case NodeAnyEquals:
		if !present {
			return outcome{}, nil
		}
		for i := 0; i < pv.Len(); i++ {
			if pv.At(i).Equal(b.value.v) {
				return outcome{match: true}, nil
			}
		}
		return outcome{}, nil

	case NodeAnyIn:
		// Existential in both forms: NOT IN holds when some element is
		// missing from the list, even if other elements are listed.
		if !present {
			return outcome{}, nil
		}
		for i := 0; i < pv.Len(); i++ {
			if memberOf(pv.At(i), b.list) != n.Negated {
				return outcome{match: true}, nil
			}
		}
		return outcome{}, nil

	case NodeLike:
		if !present {
			return outcome{}, nil
		}
		v, ok := pv.First()
		if !ok {
			return outcome{}, nil
		}
		return outcome{match: b.like.MatchString(v.Text()) != n.Negated}, nil
	}

	return outcome{}, newError(KindUnsupported, n.Pos, "unsupported predicate %s", n.Kind)
}

// inTree follows parent links from obj towards the root looking for folderID.
func (e *evaluator) inTree(obj *model.Object, folderID string) bool {
	if folderID == "" {
		return false
	}
	cur := obj.ParentID
	for i := 0; cur != "" && i < maxTreeDepth; i++ {
		if cur == folderID {
			return true
		}
		parent, ok := e.repo.Parent(cur)
		if !ok {
			return false
		}
		cur = parent
	}
	return false
}

func memberOf(v model.Value, list []literalValue) bool {
	for _, lv := range list {
		if v.Equal(lv.v) {
			return true
		}
	}
	return false
}

func merge(l, r outcome) outcome {
	out := outcome{match: l.match && r.match}
	switch {
	case l.scored:
		out.score, out.scored = l.score, true
	case r.scored:
		out.score, out.scored = r.score, true
	}
	return out
}
