// Package query implements the CMIS-SQL statement parser and the engine that
// evaluates statements against a repository snapshot.
package query

import "strings"

// Statement is a parsed SELECT statement. Names in it are not yet resolved
// against the type registry.
type Statement struct {
	Columns []Column
	From    TableRef
	Join    *Join // nil for single-table statements
	Where   Predicate
	OrderBy []OrderKey
}

// Tables returns the statement's tables in FROM, JOIN order.
func (s *Statement) Tables() []TableRef {
	if s.Join == nil {
		return []TableRef{s.From}
	}
	return []TableRef{s.From, s.Join.Table}
}

// ColumnKind distinguishes select-list entries.
type ColumnKind int

const (
	ColumnProperty ColumnKind = iota // cmis:name, A.cmis:name
	ColumnStar                       // * or A.*
	ColumnScore                      // SCORE()
)

// Column is one select-list entry.
type Column struct {
	Kind  ColumnKind
	Ref   PropertyRef // Ref.Qualifier is set for A.*; Ref.Name is empty for stars
	Alias string
	Pos   int
}

// PropertyRef is a possibly qualified query-name.
type PropertyRef struct {
	Qualifier string
	Name      string
	Pos       int
}

func (r PropertyRef) String() string {
	if r.Qualifier == "" {
		return r.Name
	}
	return r.Qualifier + "." + r.Name
}

// TableRef names a type in FROM or JOIN. Alias defaults to the type name.
type TableRef struct {
	TypeName string
	Alias    string
	Pos      int
}

// Join is an inner equi-join against a second table.
type Join struct {
	Table TableRef
	Left  PropertyRef
	Right PropertyRef
	Pos   int
}

// OrderKey is one ORDER BY entry.
type OrderKey struct {
	Ref        PropertyRef // unused when Score is set
	Score      bool
	Descending bool
	Pos        int
}

// CompareOp represents a comparison operator.
type CompareOp int

const (
	CompareEq  CompareOp = iota // =
	CompareNeq                  // <>
	CompareLt                   // <
	CompareGt                   // >
	CompareLte                  // <=
	CompareGte                  // >=
)

func (op CompareOp) String() string {
	switch op {
	case CompareNeq:
		return "<>"
	case CompareLt:
		return "<"
	case CompareGt:
		return ">"
	case CompareLte:
		return "<="
	case CompareGte:
		return ">="
	default:
		return "="
	}
}

// holds reports whether a three-way comparison result satisfies op.
func (op CompareOp) holds(c int) bool {
	switch op {
	case CompareNeq:
		return c != 0
	case CompareLt:
		return c < 0
	case CompareGt:
		return c > 0
	case CompareLte:
		return c <= 0
	case CompareGte:
		return c >= 0
	default:
		return c == 0
	}
}

func parseCompareOp(s string) (CompareOp, bool) {
	switch s {
	case "=":
		return CompareEq, true
	case "<>":
		return CompareNeq, true
	case "<":
		return CompareLt, true
	case ">":
		return CompareGt, true
	case "<=":
		return CompareLte, true
	case ">=":
		return CompareGte, true
	}
	return 0, false
}

// LiteralKind is the lexical kind of a literal. Conversion to a property
// value happens at evaluation time.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralInteger
	LiteralDecimal
	LiteralBoolean
	LiteralTimestamp
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralInteger:
		return "integer"
	case LiteralDecimal:
		return "decimal"
	case LiteralBoolean:
		return "boolean"
	case LiteralTimestamp:
		return "timestamp"
	default:
		return "string"
	}
}

// Literal is a literal as written.
type Literal struct {
	Kind LiteralKind
	Text string
	Pos  int
}

// NodeID addresses a node in a Predicate arena.
type NodeID int32

// NoNode marks an absent child or an empty WHERE clause.
const NoNode NodeID = -1

// NodeKind identifies a predicate node.
type NodeKind uint8

const (
	NodeAnd       NodeKind = iota // Left AND Right
	NodeOr                        // Left OR Right
	NodeCompare                   // Ref Op Literal
	NodeIn                        // Ref [NOT] IN (List)
	NodeAnyEquals                 // Literal Op ANY Ref
	NodeAnyIn                     // ANY Ref [NOT] IN (List)
	NodeIsNull                    // Ref IS [NOT] NULL
	NodeLike                      // Ref [NOT] LIKE Literal
	NodeInFolder                  // IN_FOLDER([Qualifier,] Literal)
	NodeInTree                    // IN_TREE([Qualifier,] Literal)
	NodeContains                  // CONTAINS([Qualifier,] Literal)
)

func (k NodeKind) String() string {
	switch k {
	case NodeAnd:
		return "AND"
	case NodeOr:
		return "OR"
	case NodeCompare:
		return "comparison"
	case NodeIn:
		return "IN"
	case NodeAnyEquals:
		return "= ANY"
	case NodeAnyIn:
		return "ANY IN"
	case NodeIsNull:
		return "IS NULL"
	case NodeLike:
		return "LIKE"
	case NodeInFolder:
		return "IN_FOLDER"
	case NodeInTree:
		return "IN_TREE"
	case NodeContains:
		return "CONTAINS"
	default:
		return "unknown"
	}
}

// Node is one predicate. Which fields are meaningful depends on Kind.
type Node struct {
	Kind        NodeKind
	Left, Right NodeID
	Op          CompareOp
	Ref         PropertyRef
	Literal     Literal
	List        []Literal
	Negated     bool   // NOT IN, NOT LIKE, IS NOT NULL
	Qualifier   string // table qualifier of IN_FOLDER, IN_TREE and CONTAINS
	Pos         int
}

// Predicate is a WHERE clause stored as an arena of nodes. Children are
// referenced by index, so a predicate can be evaluated repeatedly without
// allocating.
type Predicate struct {
	Nodes []Node
	Root  NodeID
}

// Empty reports whether there is no WHERE clause.
func (p *Predicate) Empty() bool { return p.Root == NoNode }

func (p *Predicate) add(n Node) NodeID {
	p.Nodes = append(p.Nodes, n)
	return NodeID(len(p.Nodes) - 1)
}

// Count returns the number of nodes of kind k.
func (p *Predicate) Count(k NodeKind) int {
	n := 0
	for i := range p.Nodes {
		if p.Nodes[i].Kind == k {
			n++
		}
	}
	return n
}

// String renders the predicate back as statement text.
func (p *Predicate) String() string {
	if p.Empty() {
		return ""
	}
	var sb strings.Builder
	p.write(&sb, p.Root)
	return sb.String()
}

func (p *Predicate) write(sb *strings.Builder, id NodeID) {
	n := &p.Nodes[id]
	not := func() {
		if n.Negated {
			sb.WriteString("NOT ")
		}
	}
	switch n.Kind {
	case NodeAnd, NodeOr:
		sb.WriteByte('(')
		p.write(sb, n.Left)
		sb.WriteString(" " + n.Kind.String() + " ")
		p.write(sb, n.Right)
		sb.WriteByte(')')
	case NodeCompare:
		sb.WriteString(n.Ref.String() + " " + n.Op.String() + " " + n.Literal.String())
	case NodeIn:
		sb.WriteString(n.Ref.String() + " ")
		not()
		sb.WriteString("IN " + literalList(n.List))
	case NodeAnyEquals:
		sb.WriteString(n.Literal.String() + " " + n.Op.String() + " ANY " + n.Ref.String())
	case NodeAnyIn:
		sb.WriteString("ANY " + n.Ref.String() + " ")
		not()
		sb.WriteString("IN " + literalList(n.List))
	case NodeIsNull:
		sb.WriteString(n.Ref.String() + " IS ")
		not()
		sb.WriteString("NULL")
	case NodeLike:
		sb.WriteString(n.Ref.String() + " ")
		not()
		sb.WriteString("LIKE " + n.Literal.String())
	case NodeInFolder, NodeInTree, NodeContains:
		sb.WriteString(n.Kind.String() + "(")
		if n.Qualifier != "" {
			sb.WriteString(n.Qualifier + ", ")
		}
		sb.WriteString(n.Literal.String() + ")")
	}
}

func (l Literal) String() string {
	switch l.Kind {
	case LiteralString:
		return "'" + strings.ReplaceAll(l.Text, "'", "''") + "'"
	case LiteralTimestamp:
		return "TIMESTAMP '" + l.Text + "'"
	default:
		return l.Text
	}
}

func literalList(ls []Literal) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
