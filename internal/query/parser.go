package query

import (
	"strings"
)

// reserved words cannot be used as bare aliases.
var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AS": true,
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true, "OUTER": true, "ON": true,
	"AND": true, "OR": true, "NOT": true, "IN": true, "ANY": true,
	"IS": true, "NULL": true, "LIKE": true, "ORDER": true, "BY": true,
	"ASC": true, "DESC": true,
}

// Parser parses statements into Statement ASTs.
type Parser struct {
	lexer *Lexer
	curr  Token
	peek  Token
}

// Parse parses a statement. Malformed input yields an *Error of kind
// KindSyntax carrying the offending position.
func Parse(input string) (*Statement, error) {
	p := &Parser{lexer: NewLexer(input)}
	p.advance()
	p.advance()
	return p.parseStatement()
}

func (p *Parser) advance() {
	p.curr = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) expect(t TokenType) (Token, error) {
	if p.curr.Type != t {
		return Token{}, p.unexpected(t.String())
	}
	tok := p.curr
	p.advance()
	return tok, nil
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.unexpected(kw)
	}
	p.advance()
	return nil
}

func (p *Parser) isKeyword(kw string) bool {
	return isKeyword(p.curr, kw)
}

func isKeyword(tok Token, kw string) bool {
	return tok.Type == TokenIdent && strings.EqualFold(tok.Value, kw)
}

func (p *Parser) unexpected(want string) error {
	switch p.curr.Type {
	case TokenError:
		return newError(KindSyntax, p.curr.Pos, "%s", p.curr.Value)
	case TokenEOF:
		return newError(KindSyntax, p.curr.Pos, "expected %s, got end of statement", want)
	default:
		return newError(KindSyntax, p.curr.Pos, "expected %s, got %q", want, p.curr.Value)
	}
}

func (p *Parser) parseStatement() (*Statement, error) {
	stmt := &Statement{Where: Predicate{Root: NoNode}}

	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	cols, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	stmt.Columns = cols

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	stmt.From = from

	join, err := p.parseJoin()
	if err != nil {
		return nil, err
	}
	stmt.Join = join
	if join != nil && join.Table.Alias == from.Alias {
		return nil, newError(KindSyntax, join.Table.Pos, "duplicate table alias %q", from.Alias)
	}

	if p.isKeyword("WHERE") {
		p.advance()
		root, err := p.parseOr(&stmt.Where)
		if err != nil {
			return nil, err
		}
		stmt.Where.Root = root
	}

	if p.isKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		keys, err := p.parseOrderList()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = keys
	}

	if p.curr.Type != TokenEOF {
		return nil, p.unexpected("end of statement")
	}
	return stmt, nil
}

func (p *Parser) parseSelectList() ([]Column, error) {
	if p.curr.Type == TokenStar {
		col := Column{Kind: ColumnStar, Pos: p.curr.Pos}
		p.advance()
		return []Column{col}, nil
	}

	var cols []Column
	for {
		col, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.curr.Type != TokenComma {
			return cols, nil
		}
		p.advance()
	}
}

func (p *Parser) parseSelectItem() (Column, error) {
	pos := p.curr.Pos
	if p.isKeyword("SCORE") && p.peek.Type == TokenLParen {
		p.advance()
		p.advance()
		if _, err := p.expect(TokenRParen); err != nil {
			return Column{}, err
		}
		alias, err := p.parseAlias()
		if err != nil {
			return Column{}, err
		}
		return Column{Kind: ColumnScore, Alias: alias, Pos: pos}, nil
	}

	if p.curr.Type != TokenIdent || reserved[strings.ToUpper(p.curr.Value)] {
		return Column{}, p.unexpected("column")
	}
	first := p.curr
	p.advance()

	if p.curr.Type == TokenDot {
		p.advance()
		if p.curr.Type == TokenStar {
			p.advance()
			return Column{Kind: ColumnStar, Ref: PropertyRef{Qualifier: first.Value, Pos: pos}, Pos: pos}, nil
		}
		name, err := p.expect(TokenIdent)
		if err != nil {
			return Column{}, err
		}
		alias, err := p.parseAlias()
		if err != nil {
			return Column{}, err
		}
		ref := PropertyRef{Qualifier: first.Value, Name: name.Value, Pos: pos}
		return Column{Kind: ColumnProperty, Ref: ref, Alias: alias, Pos: pos}, nil
	}

	alias, err := p.parseAlias()
	if err != nil {
		return Column{}, err
	}
	return Column{Kind: ColumnProperty, Ref: PropertyRef{Name: first.Value, Pos: pos}, Alias: alias, Pos: pos}, nil
}

// parseAlias parses an optional "AS alias" or a bare alias identifier.
func (p *Parser) parseAlias() (string, error) {
	if p.isKeyword("AS") {
		p.advance()
		if p.curr.Type != TokenIdent || reserved[strings.ToUpper(p.curr.Value)] {
			return "", p.unexpected("alias")
		}
		alias := p.curr.Value
		p.advance()
		return alias, nil
	}
	if p.curr.Type == TokenIdent && !reserved[strings.ToUpper(p.curr.Value)] {
		alias := p.curr.Value
		p.advance()
		return alias, nil
	}
	return "", nil
}

func (p *Parser) parseTableRef() (TableRef, error) {
	if p.curr.Type != TokenIdent || reserved[strings.ToUpper(p.curr.Value)] {
		return TableRef{}, p.unexpected("type name")
	}
	ref := TableRef{TypeName: p.curr.Value, Pos: p.curr.Pos}
	p.advance()

	alias, err := p.parseAlias()
	if err != nil {
		return TableRef{}, err
	}
	ref.Alias = alias
	if ref.Alias == "" {
		ref.Alias = ref.TypeName
	}
	return ref, nil
}

func (p *Parser) parseJoin() (*Join, error) {
	pos := p.curr.Pos
	switch {
	case p.isKeyword("LEFT"), p.isKeyword("RIGHT"):
		return nil, newError(KindUnsupported, pos, "outer joins are not supported")
	case p.isKeyword("INNER"):
		p.advance()
		if !p.isKeyword("JOIN") {
			return nil, p.unexpected("JOIN")
		}
	case p.isKeyword("JOIN"):
	default:
		return nil, nil
	}
	p.advance() // JOIN

	table, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	left, err := p.parseQualifiedRef()
	if err != nil {
		return nil, err
	}
	if p.curr.Type != TokenOp || p.curr.Value != "=" {
		return nil, p.unexpected("'='")
	}
	p.advance()
	right, err := p.parseQualifiedRef()
	if err != nil {
		return nil, err
	}

	if p.isKeyword("JOIN") || p.isKeyword("INNER") || p.isKeyword("LEFT") || p.isKeyword("RIGHT") {
		return nil, newError(KindUnsupported, p.curr.Pos, "joins over more than two types are not supported")
	}
	return &Join{Table: table, Left: left, Right: right, Pos: pos}, nil
}

func (p *Parser) parseQualifiedRef() (PropertyRef, error) {
	ref, err := p.parsePropertyRef()
	if err != nil {
		return PropertyRef{}, err
	}
	if ref.Qualifier == "" {
		return PropertyRef{}, newError(KindSyntax, ref.Pos, "join condition requires qualified property references")
	}
	return ref, nil
}

func (p *Parser) parsePropertyRef() (PropertyRef, error) {
	if p.curr.Type != TokenIdent || reserved[strings.ToUpper(p.curr.Value)] {
		return PropertyRef{}, p.unexpected("property")
	}
	first := p.curr
	p.advance()
	if p.curr.Type != TokenDot {
		return PropertyRef{Name: first.Value, Pos: first.Pos}, nil
	}
	p.advance()
	name, err := p.expect(TokenIdent)
	if err != nil {
		return PropertyRef{}, err
	}
	return PropertyRef{Qualifier: first.Value, Name: name.Value, Pos: first.Pos}, nil
}

// parseOr parses OR expressions (lowest precedence).
func (p *Parser) parseOr(pred *Predicate) (NodeID, error) {
	left, err := p.parseAnd(pred)
	if err != nil {
		return NoNode, err
	}
	for p.isKeyword("OR") {
		pos := p.curr.Pos
		p.advance()
		right, err := p.parseAnd(pred)
		if err != nil {
			return NoNode, err
		}
		left = pred.add(Node{Kind: NodeOr, Left: left, Right: right, Pos: pos})
	}
	return left, nil
}

// parseAnd parses AND expressions.
func (p *Parser) parseAnd(pred *Predicate) (NodeID, error) {
	left, err := p.parseUnary(pred)
	if err != nil {
		return NoNode, err
	}
	for p.isKeyword("AND") {
		pos := p.curr.Pos
		p.advance()
		right, err := p.parseUnary(pred)
		if err != nil {
			return NoNode, err
		}
		left = pred.add(Node{Kind: NodeAnd, Left: left, Right: right, Pos: pos})
	}
	return left, nil
}

func (p *Parser) parseUnary(pred *Predicate) (NodeID, error) {
	if p.curr.Type == TokenLParen {
		p.advance()
		id, err := p.parseOr(pred)
		if err != nil {
			return NoNode, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return NoNode, err
		}
		return id, nil
	}
	if p.isKeyword("NOT") {
		return NoNode, newError(KindUnsupported, p.curr.Pos, "NOT is only supported in NOT IN, NOT LIKE and IS NOT NULL")
	}
	return p.parsePredicate(pred)
}

func (p *Parser) parsePredicate(pred *Predicate) (NodeID, error) {
	pos := p.curr.Pos

	if p.peek.Type == TokenLParen {
		switch {
		case p.isKeyword("IN_FOLDER"):
			return p.parseCall(pred, NodeInFolder)
		case p.isKeyword("IN_TREE"):
			return p.parseCall(pred, NodeInTree)
		case p.isKeyword("CONTAINS"):
			return p.parseCall(pred, NodeContains)
		}
	}

	if p.isKeyword("ANY") {
		p.advance()
		ref, err := p.parsePropertyRef()
		if err != nil {
			return NoNode, err
		}
		negated := false
		if p.isKeyword("NOT") {
			negated = true
			p.advance()
		}
		if err := p.expectKeyword("IN"); err != nil {
			return NoNode, err
		}
		list, err := p.parseLiteralList()
		if err != nil {
			return NoNode, err
		}
		return pred.add(Node{Kind: NodeAnyIn, Ref: ref, List: list, Negated: negated, Pos: pos}), nil
	}

	if p.isLiteralStart() {
		lit, err := p.parseLiteral()
		if err != nil {
			return NoNode, err
		}
		if p.curr.Type != TokenOp {
			return NoNode, p.unexpected("operator")
		}
		op, _ := parseCompareOp(p.curr.Value)
		p.advance()
		if err := p.expectKeyword("ANY"); err != nil {
			return NoNode, err
		}
		ref, err := p.parsePropertyRef()
		if err != nil {
			return NoNode, err
		}
		return pred.add(Node{Kind: NodeAnyEquals, Op: op, Ref: ref, Literal: lit, Pos: pos}), nil
	}

	ref, err := p.parsePropertyRef()
	if err != nil {
		return NoNode, err
	}

	switch {
	case p.curr.Type == TokenOp:
		op, _ := parseCompareOp(p.curr.Value)
		p.advance()
		if p.isKeyword("ANY") {
			return NoNode, newError(KindSyntax, p.curr.Pos, "quantified comparison must have the literal on the left")
		}
		lit, err := p.parseLiteral()
		if err != nil {
			return NoNode, err
		}
		return pred.add(Node{Kind: NodeCompare, Op: op, Ref: ref, Literal: lit, Pos: pos}), nil

	case p.isKeyword("IS"):
		p.advance()
		negated := false
		if p.isKeyword("NOT") {
			negated = true
			p.advance()
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return NoNode, err
		}
		return pred.add(Node{Kind: NodeIsNull, Ref: ref, Negated: negated, Pos: pos}), nil
	}

	negated := false
	if p.isKeyword("NOT") {
		negated = true
		p.advance()
	}
	switch {
	case p.isKeyword("IN"):
		p.advance()
		list, err := p.parseLiteralList()
		if err != nil {
			return NoNode, err
		}
		return pred.add(Node{Kind: NodeIn, Ref: ref, List: list, Negated: negated, Pos: pos}), nil
	case p.isKeyword("LIKE"):
		p.advance()
		if p.curr.Type != TokenString {
			return NoNode, p.unexpected("pattern string")
		}
		lit := Literal{Kind: LiteralString, Text: p.curr.Value, Pos: p.curr.Pos}
		p.advance()
		return pred.add(Node{Kind: NodeLike, Ref: ref, Literal: lit, Negated: negated, Pos: pos}), nil
	}
	if negated {
		return NoNode, p.unexpected("IN or LIKE")
	}
	return NoNode, p.unexpected("operator")
}

// parseCall parses IN_FOLDER, IN_TREE and CONTAINS with an optional table
// qualifier as first argument.
func (p *Parser) parseCall(pred *Predicate, kind NodeKind) (NodeID, error) {
	pos := p.curr.Pos
	p.advance() // name
	p.advance() // (

	var qualifier string
	if p.curr.Type == TokenIdent && p.peek.Type == TokenComma {
		qualifier = p.curr.Value
		p.advance()
		p.advance()
	}
	if p.curr.Type != TokenString {
		return NoNode, p.unexpected("string")
	}
	lit := Literal{Kind: LiteralString, Text: p.curr.Value, Pos: p.curr.Pos}
	p.advance()
	if _, err := p.expect(TokenRParen); err != nil {
		return NoNode, err
	}
	return pred.add(Node{Kind: kind, Qualifier: qualifier, Literal: lit, Pos: pos}), nil
}

func (p *Parser) isLiteralStart() bool {
	switch p.curr.Type {
	case TokenString, TokenNumber:
		return true
	case TokenIdent:
		return p.isKeyword("TRUE") || p.isKeyword("FALSE") ||
			(p.isKeyword("TIMESTAMP") && p.peek.Type == TokenString)
	}
	return false
}

func (p *Parser) parseLiteral() (Literal, error) {
	tok := p.curr
	switch {
	case tok.Type == TokenString:
		p.advance()
		return Literal{Kind: LiteralString, Text: tok.Value, Pos: tok.Pos}, nil
	case tok.Type == TokenNumber:
		p.advance()
		kind := LiteralInteger
		if strings.ContainsAny(tok.Value, ".eE") {
			kind = LiteralDecimal
		}
		return Literal{Kind: kind, Text: tok.Value, Pos: tok.Pos}, nil
	case p.isKeyword("TRUE"), p.isKeyword("FALSE"):
		p.advance()
		return Literal{Kind: LiteralBoolean, Text: strings.ToLower(tok.Value), Pos: tok.Pos}, nil
	case p.isKeyword("TIMESTAMP"):
		p.advance()
		if p.curr.Type != TokenString {
			return Literal{}, p.unexpected("timestamp string")
		}
		text := p.curr.Value
		p.advance()
		return Literal{Kind: LiteralTimestamp, Text: text, Pos: tok.Pos}, nil
	}
	return Literal{}, p.unexpected("literal")
}

func (p *Parser) parseLiteralList() ([]Literal, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var list []Literal
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		list = append(list, lit)
		if p.curr.Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseOrderList() ([]OrderKey, error) {
	var keys []OrderKey
	for {
		key := OrderKey{Pos: p.curr.Pos}
		if p.isKeyword("SCORE") && p.peek.Type == TokenLParen {
			p.advance()
			p.advance()
			if _, err := p.expect(TokenRParen); err != nil {
				return nil, err
			}
			key.Score = true
		} else {
			ref, err := p.parsePropertyRef()
			if err != nil {
				return nil, err
			}
			key.Ref = ref
		}
		switch {
		case p.isKeyword("DESC"):
			key.Descending = true
			p.advance()
		case p.isKeyword("ASC"):
			p.advance()
		}
		keys = append(keys, key)
		if p.curr.Type != TokenComma {
			return keys, nil
		}
		p.advance()
	}
}
