package index

import "strings"

// BuildMatchQuery turns a CONTAINS term into a safe FTS5 MATCH expression.
// Every indexed column is searched.
//
// Quoted phrases and the operators AND, OR and NOT pass through. A leading
// '-' negates a token. Any other token FTS5 would not accept as a bareword
// is quoted.
func BuildMatchQuery(term string) string {
	q := strings.TrimSpace(term)
	if q == "" {
		// Match nothing.
		return `content:""`
	}
	return sanitizeFTSQuery(q)
}

func sanitizeFTSQuery(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)

	inQuotes := false
	i := 0
	for i < len(q) {
		c := q[i]

		if c == '"' {
			inQuotes = !inQuotes
			b.WriteByte(c)
			i++
			continue
		}
		if inQuotes {
			b.WriteByte(c)
			i++
			continue
		}
		if isSpace(c) || c == '(' || c == ')' {
			b.WriteByte(c)
			i++
			continue
		}

		start := i
		for i < len(q) {
			cc := q[i]
			if cc == '"' || cc == '(' || cc == ')' || isSpace(cc) {
				break
			}
			i++
		}
		tok := q[start:i]

		switch strings.ToUpper(tok) {
		case "AND", "OR", "NOT":
			b.WriteString(strings.ToUpper(tok))
			continue
		}

		if len(tok) > 1 && tok[0] == '-' {
			b.WriteString("NOT ")
			tok = tok[1:]
		}
		writeToken(&b, tok)
	}
	if inQuotes {
		b.WriteByte('"')
	}
	return b.String()
}

// writeToken writes tok as a bareword when FTS5 accepts it as one, keeping a
// trailing '*' prefix marker, and as a quoted string otherwise.
func writeToken(b *strings.Builder, tok string) {
	word, prefix := tok, false
	if strings.HasSuffix(word, "*") && len(word) > 1 {
		word, prefix = word[:len(word)-1], true
	}
	if isBareword(word) {
		b.WriteString(word)
	} else {
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(word, `"`, `""`))
		b.WriteByte('"')
	}
	if prefix {
		b.WriteByte('*')
	}
}

func isBareword(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x80 || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			continue
		}
		return false
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
