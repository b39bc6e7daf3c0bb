package cache

import (
	"fmt"
	"strings"

	"github.com/viant/composer/model"
	"github.com/viant/parsly"
)

// Resolve replaces every {name} token of template with params[name] and
// returns the names of tokens with no (or a nil) parameter. Unresolved tokens
// are kept verbatim in the returned key.
func Resolve(template string, params map[string]interface{}) (string, []string) {
	return resolve(template, params, placeholderToken, textToken, dollarToken, braceToken)
}

// ResolveCommand is Resolve for shell commands: ${name} expansions are left
// to the shell and never count as tokens.
func ResolveCommand(template string, params map[string]interface{}) (string, []string) {
	return resolve(template, params, shellVarToken, placeholderToken, textToken, dollarToken, braceToken)
}

func resolve(template string, params map[string]interface{}, tokens ...*parsly.Token) (string, []string) {
	cursor := parsly.NewCursor("", []byte(template), 0)
	var sb strings.Builder
	var unresolved []string
	for cursor.Pos < cursor.InputSize {
		matched := cursor.MatchAny(tokens...)
		text := matched.Text(cursor)
		switch matched.Code {
		case placeholderCode:
			name := text[1 : len(text)-1]
			value, ok := params[name]
			if !ok || value == nil {
				unresolved = append(unresolved, name)
				sb.WriteString(text)
				continue
			}
			sb.WriteString(format(value))
		case textCode, braceCode, dollarCode, shellVarCode:
			sb.WriteString(text)
		default:
			sb.WriteString(template[cursor.Pos:])
			cursor.Pos = cursor.InputSize
		}
	}
	return sb.String(), unresolved
}

// Interpolate is Resolve without the unresolved token report.
func Interpolate(template string, params map[string]interface{}) string {
	ret, _ := Resolve(template, params)
	return ret
}

// Key returns the cache key of component for merged params. The key is
// usable only when ok is true: either the component key function produced
// one, or every token of the component key template was resolved.
func Key(component *model.ProofComponent, params map[string]interface{}) (key string, ok bool) {
	if component.CacheKeyFunc != nil {
		key, ok = component.CacheKeyFunc(component.ID, params)
		return key, ok && key != ""
	}
	if component.CacheKey == "" {
		return "", false
	}
	key, unresolved := Resolve(component.CacheKey, params)
	return key, len(unresolved) == 0
}

func format(value interface{}) string {
	switch actual := value.(type) {
	case string:
		return actual
	case fmt.Stringer:
		return actual.String()
	}
	return fmt.Sprint(value)
}
