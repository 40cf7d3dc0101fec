package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aidanlsb/cmisq/internal/model"
)

// ScoreKey is the output key of an unaliased SCORE() column.
const ScoreKey = "SEARCH_SCORE"

// plan is a statement bound to the registry: every name resolved, every
// literal checked against the kind it is compared with.
type plan struct {
	stmt    *Statement
	tables  []boundTable
	join    *boundJoin
	columns []boundColumn
	nodes   []boundNode // parallel to stmt.Where.Nodes
	order   []boundKey
}

type boundTable struct {
	alias   string
	typ     *model.TypeDescriptor
	typeIDs []string // the type and its subtypes
}

type boundRef struct {
	table int
	prop  model.PropertyDescriptor
}

type boundJoin struct {
	left, right boundRef // left.table == 0
}

type boundColumn struct {
	key   string
	ref   boundRef
	score bool
}

// literalValue holds a converted literal, or the conversion failure that is
// reported once the node using it is evaluated.
type literalValue struct {
	v   model.Value
	err error
}

type boundNode struct {
	ref   boundRef
	table int
	value literalValue
	list  []literalValue
	like  *regexp.Regexp
}

type boundKey struct {
	column int // index into plan.columns, or -1
	ref    boundRef
	score  bool
	desc   bool
}

type resolver struct {
	reg      *model.Registry
	stmt     *Statement
	plan     *plan
	byAlias  map[string]int
	fullText bool
}

// resolve binds stmt against reg. fullText reports whether an indexer is
// available for CONTAINS.
func resolve(reg *model.Registry, stmt *Statement, fullText bool) (*plan, error) {
	r := &resolver{
		reg:      reg,
		stmt:     stmt,
		plan:     &plan{stmt: stmt},
		byAlias:  make(map[string]int),
		fullText: fullText,
	}
	if err := r.resolveTables(); err != nil {
		return nil, err
	}
	if err := r.resolveJoin(); err != nil {
		return nil, err
	}
	if err := r.resolveColumns(); err != nil {
		return nil, err
	}
	if err := r.resolveWhere(); err != nil {
		return nil, err
	}
	if err := r.resolveOrder(); err != nil {
		return nil, err
	}
	return r.plan, nil
}

func (r *resolver) resolveTables() error {
	for i, t := range r.stmt.Tables() {
		td, err := r.reg.ResolveType(t.TypeName)
		if err != nil {
			return wrapError(KindUnknownType, t.Pos, err)
		}
		ids, err := r.reg.SubtypeIDs(td.ID)
		if err != nil {
			return wrapError(KindUnknownType, t.Pos, err)
		}
		r.plan.tables = append(r.plan.tables, boundTable{alias: t.Alias, typ: td, typeIDs: ids})
		r.byAlias[t.Alias] = i
	}
	return nil
}

func (r *resolver) resolveJoin() error {
	j := r.stmt.Join
	if j == nil {
		return nil
	}
	left, err := r.resolveRef(j.Left)
	if err != nil {
		return err
	}
	right, err := r.resolveRef(j.Right)
	if err != nil {
		return err
	}
	if left.table == right.table {
		return newError(KindUnsupported, j.Pos, "join condition must compare a property of each table")
	}
	if left.table != 0 {
		left, right = right, left
	}
	if !left.prop.Kind.ComparableWith(right.prop.Kind) {
		return newError(KindTypeMismatch, j.Pos, "cannot join %s (%s) with %s (%s)",
			left.prop.QueryName, left.prop.Kind, right.prop.QueryName, right.prop.Kind)
	}
	r.plan.join = &boundJoin{left: left, right: right}
	return nil
}

func (r *resolver) table(qualifier string, pos int) (int, error) {
	if qualifier == "" {
		return 0, nil
	}
	i, ok := r.byAlias[qualifier]
	if !ok {
		return 0, newError(KindUnknownProperty, pos, "unknown table alias %q", qualifier)
	}
	return i, nil
}

func (r *resolver) resolveRef(ref PropertyRef) (boundRef, error) {
	if ref.Qualifier != "" {
		i, err := r.table(ref.Qualifier, ref.Pos)
		if err != nil {
			return boundRef{}, err
		}
		d, err := r.reg.ResolveProperty(r.plan.tables[i].typ, ref.Name)
		if err != nil {
			return boundRef{}, wrapError(KindUnknownProperty, ref.Pos, err)
		}
		return boundRef{table: i, prop: d}, nil
	}

	if len(r.plan.tables) == 1 {
		d, err := r.reg.ResolveProperty(r.plan.tables[0].typ, ref.Name)
		if err != nil {
			return boundRef{}, wrapError(KindUnknownProperty, ref.Pos, err)
		}
		return boundRef{table: 0, prop: d}, nil
	}

	found := -1
	var desc model.PropertyDescriptor
	for i, t := range r.plan.tables {
		d, ok := t.typ.Property(ref.Name)
		if !ok {
			continue
		}
		if found >= 0 {
			return boundRef{}, newError(KindUnknownProperty, ref.Pos, "property %s is ambiguous; qualify it with a table alias", ref.Name)
		}
		found, desc = i, d
	}
	if found < 0 {
		return boundRef{}, &Error{Kind: KindUnknownProperty, Pos: ref.Pos,
			Msg: "unknown property: " + ref.Name, Err: model.ErrUnknownProperty}
	}
	return boundRef{table: found, prop: desc}, nil
}

func (r *resolver) resolveColumns() error {
	joined := len(r.plan.tables) > 1
	for _, c := range r.stmt.Columns {
		switch c.Kind {
		case ColumnScore:
			key := c.Alias
			if key == "" {
				key = ScoreKey
			}
			r.plan.columns = append(r.plan.columns, boundColumn{key: key, score: true})

		case ColumnStar:
			tables := make([]int, 0, len(r.plan.tables))
			if c.Ref.Qualifier != "" {
				i, err := r.table(c.Ref.Qualifier, c.Pos)
				if err != nil {
					return err
				}
				tables = append(tables, i)
			} else {
				for i := range r.plan.tables {
					tables = append(tables, i)
				}
			}
			for _, i := range tables {
				t := r.plan.tables[i]
				for _, d := range r.reg.AllProperties(t.typ) {
					key := d.QueryName
					if joined || c.Ref.Qualifier != "" {
						key = t.alias + "." + d.QueryName
					}
					r.plan.columns = append(r.plan.columns, boundColumn{key: key, ref: boundRef{table: i, prop: d}})
				}
			}

		default:
			ref, err := r.resolveRef(c.Ref)
			if err != nil {
				return err
			}
			key := c.Alias
			if key == "" {
				key = c.Ref.String()
			}
			r.plan.columns = append(r.plan.columns, boundColumn{key: key, ref: ref})
		}
	}
	return nil
}

func (r *resolver) resolveWhere() error {
	pred := &r.stmt.Where
	r.plan.nodes = make([]boundNode, len(pred.Nodes))
	if n := pred.Count(NodeContains); n > 0 {
		if !r.fullText {
			return newError(KindUnsupported, -1, "CONTAINS requires a full-text index")
		}
		if n > 1 {
			return newError(KindUnsupported, -1, "at most one CONTAINS is allowed per statement")
		}
	}
	for i := range pred.Nodes {
		bn, err := r.resolveNode(&pred.Nodes[i])
		if err != nil {
			return err
		}
		r.plan.nodes[i] = bn
	}
	return nil
}

func (r *resolver) resolveNode(n *Node) (boundNode, error) {
	var bn boundNode
	switch n.Kind {
	case NodeAnd, NodeOr:
		return bn, nil

	case NodeInFolder, NodeInTree, NodeContains:
		i, err := r.table(n.Qualifier, n.Pos)
		if err != nil {
			return bn, err
		}
		bn.table = i
		bn.value = literalValue{v: model.ID(n.Literal.Text)}
		return bn, nil
	}

	ref, err := r.resolveRef(n.Ref)
	if err != nil {
		return bn, err
	}
	bn.ref = ref
	bn.table = ref.table
	prop := ref.prop

	switch n.Kind {
	case NodeCompare, NodeIn, NodeLike:
		if prop.Multi() {
			return bn, newError(KindTypeMismatch, n.Pos, "multi-valued property %s must be compared with ANY", prop.QueryName)
		}
	case NodeAnyEquals, NodeAnyIn:
		if !prop.Multi() {
			return bn, newError(KindTypeMismatch, n.Pos, "ANY requires a multi-valued property, %s is single-valued", prop.QueryName)
		}
	}

	switch n.Kind {
	case NodeCompare:
		if prop.Kind == model.KindBoolean && n.Op != CompareEq && n.Op != CompareNeq {
			return bn, newError(KindTypeMismatch, n.Pos, "boolean property %s supports only = and <>", prop.QueryName)
		}
		bn.value, err = bindLiteral(n.Literal, prop)
		return bn, err

	case NodeAnyEquals:
		if n.Op != CompareEq {
			return bn, newError(KindUnsupported, n.Pos, "quantified comparison supports only =")
		}
		bn.value, err = bindLiteral(n.Literal, prop)
		return bn, err

	case NodeIn, NodeAnyIn:
		bn.list = make([]literalValue, len(n.List))
		for i, lit := range n.List {
			if bn.list[i], err = bindLiteral(lit, prop); err != nil {
				return bn, err
			}
		}
		return bn, nil

	case NodeLike:
		if prop.Kind != model.KindString && prop.Kind != model.KindID {
			return bn, newError(KindTypeMismatch, n.Pos, "LIKE requires a string property, %s is %s", prop.QueryName, prop.Kind)
		}
		bn.like, err = compileLike(n.Literal.Text)
		if err != nil {
			return bn, wrapError(KindSyntax, n.Literal.Pos, err)
		}
		return bn, nil
	}
	return bn, nil
}

func (r *resolver) resolveOrder() error {
	for _, k := range r.stmt.OrderBy {
		key := boundKey{column: -1, desc: k.Descending}
		if k.Score {
			key.score = true
			r.plan.order = append(r.plan.order, key)
			continue
		}

		if k.Ref.Qualifier == "" {
			if i := r.aliasedColumn(k.Ref.Name); i >= 0 {
				c := r.plan.columns[i]
				if !c.score && c.ref.prop.Multi() {
					return newError(KindTypeMismatch, k.Pos, "cannot order by multi-valued property %s", c.ref.prop.QueryName)
				}
				key.column = i
				r.plan.order = append(r.plan.order, key)
				continue
			}
		}

		ref, err := r.resolveRef(k.Ref)
		if err != nil {
			return err
		}
		if ref.prop.Multi() {
			return newError(KindTypeMismatch, k.Pos, "cannot order by multi-valued property %s", ref.prop.QueryName)
		}
		key.ref = ref
		r.plan.order = append(r.plan.order, key)
	}
	return nil
}

// aliasedColumn finds the select-list entry a sort key names: a user
// alias first, then an output key such as SEARCH_SCORE.
func (r *resolver) aliasedColumn(name string) int {
	j := 0
	for _, c := range r.stmt.Columns {
		if c.Kind == ColumnStar {
			j += r.starWidth(c)
			continue
		}
		if c.Alias == name {
			return j
		}
		j++
	}
	for i, c := range r.plan.columns {
		if c.key == name {
			return i
		}
	}
	return -1
}

func (r *resolver) starWidth(c Column) int {
	if c.Ref.Qualifier != "" {
		i := r.byAlias[c.Ref.Qualifier]
		return len(r.reg.AllProperties(r.plan.tables[i].typ))
	}
	n := 0
	for _, t := range r.plan.tables {
		n += len(r.reg.AllProperties(t.typ))
	}
	return n
}

// bindLiteral converts lit to the kind of prop. A kind that cannot be
// compared with prop fails now; a malformed number or timestamp fails only
// when the value is first used.
func bindLiteral(lit Literal, prop model.PropertyDescriptor) (literalValue, error) {
	mismatch := func() (literalValue, error) {
		return literalValue{}, newError(KindTypeMismatch, lit.Pos, "cannot compare %s property %s with a %s literal",
			prop.Kind, prop.QueryName, lit.Kind)
	}
	invalid := func(err error) literalValue {
		return literalValue{err: &Error{Kind: KindInvalidLiteral, Pos: lit.Pos, Msg: err.Error(), Err: err}}
	}

	switch lit.Kind {
	case LiteralString:
		switch prop.Kind {
		case model.KindString:
			return literalValue{v: model.String(lit.Text)}, nil
		case model.KindID:
			return literalValue{v: model.ID(lit.Text)}, nil
		}
		return mismatch()

	case LiteralInteger, LiteralDecimal:
		switch prop.Kind {
		case model.KindInteger:
			if lit.Kind == LiteralInteger {
				n, err := strconv.ParseInt(lit.Text, 10, 64)
				if err != nil {
					return invalid(err), nil
				}
				return literalValue{v: model.Integer(n)}, nil
			}
			fallthrough
		case model.KindDecimal:
			f, err := strconv.ParseFloat(lit.Text, 64)
			if err != nil {
				return invalid(err), nil
			}
			return literalValue{v: model.Decimal(f)}, nil
		}
		return mismatch()

	case LiteralBoolean:
		if prop.Kind != model.KindBoolean {
			return mismatch()
		}
		return literalValue{v: model.Bool(lit.Text == "true")}, nil

	case LiteralTimestamp:
		if prop.Kind != model.KindDateTime {
			return mismatch()
		}
		t, err := model.ParseTimestamp(lit.Text)
		if err != nil {
			return invalid(err), nil
		}
		return literalValue{v: model.DateTime(t)}, nil
	}
	return mismatch()
}

// compileLike translates a LIKE pattern: % matches any run, _ one
// character, and a backslash makes the next character literal.
func compileLike(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString(`(?s)^`)
	escaped := false
	for _, ch := range pattern {
		switch {
		case escaped:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '%':
			sb.WriteString(`.*`)
		case ch == '_':
			sb.WriteString(`.`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	if escaped {
		sb.WriteString(`\\`)
	}
	sb.WriteString(`$`)
	return regexp.Compile(sb.String())
}
