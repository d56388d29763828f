package gateway

import (
	"fmt"
	"strings"

	"sheetsql/internal/core"
)

// BindNamed rewrites @name tokens into ? placeholders and returns the
// arguments in placeholder order. Tokens inside quotes, backticks and
// comments are left alone, as are @@system variables. A token without a
// matching parameter is an error.
func BindNamed(query string, params []core.Param) (string, []any, error) {
	if len(params) == 0 {
		return query, nil, nil
	}
	byName := make(map[string]any, len(params))
	for _, p := range params {
		byName[strings.ToLower(p.Name)] = p.Value
	}

	var (
		sb    strings.Builder
		args  []any
		quote byte
	)
	sb.Grow(len(query))

	for i := 0; i < len(query); i++ {
		ch := query[i]

		if quote != 0 {
			sb.WriteByte(ch)
			switch {
			case ch == '\\' && quote != '`' && i+1 < len(query):
				i++
				sb.WriteByte(query[i])
			case ch == quote && i+1 < len(query) && query[i+1] == quote:
				i++
				sb.WriteByte(query[i])
			case ch == quote:
				quote = 0
			}
			continue
		}

		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			sb.WriteByte(ch)
		case ch == '-' && strings.HasPrefix(query[i:], "-- "), ch == '#':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = len(query) - i
			}
			sb.WriteString(query[i : i+end])
			i += end - 1
		case ch == '/' && strings.HasPrefix(query[i:], "/*"):
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				sb.WriteString(query[i:])
				i = len(query)
				continue
			}
			sb.WriteString(query[i : i+end+4])
			i += end + 3
		case ch == '@' && i+1 < len(query) && query[i+1] == '@':
			j := i + 2
			for j < len(query) && isParamChar(query[j]) {
				j++
			}
			sb.WriteString(query[i:j])
			i = j - 1
		case ch == '@' && i+1 < len(query) && isParamChar(query[i+1]):
			j := i + 1
			for j < len(query) && isParamChar(query[j]) {
				j++
			}
			name := query[i+1 : j]
			v, ok := byName[strings.ToLower(name)]
			if !ok {
				return "", nil, fmt.Errorf("unbound parameter @%s", name)
			}
			sb.WriteByte('?')
			args = append(args, v)
			i = j - 1
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String(), args, nil
}

func isParamChar(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}
