package docxml

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// FieldInstruction is the parsed form of a complex field's instruction text,
// e.g. `HYPERLINK "https://example.com" \o "Open site"` or
// `PAGE \* MERGEFORMAT`.
type FieldInstruction struct {
	// Name is the field type keyword (PAGE, REF, HYPERLINK, ...).
	Name string
	// Arguments are the positional arguments before the first switch.
	Arguments []string
	// Switches are the \x flags with their optional values.
	Switches []FieldSwitch
}

// FieldSwitch is one backslash switch and its optional value.
type FieldSwitch struct {
	Flag  string
	Value string
}

// Switch returns the first switch with the given flag.
func (fi *FieldInstruction) Switch(flag string) (FieldSwitch, bool) {
	for _, s := range fi.Switches {
		if s.Flag == flag {
			return s, true
		}
	}
	return FieldSwitch{}, false
}

// instrGrammar is the participle grammar for field instructions.
type instrGrammar struct {
	Name  string      `parser:"@Ident"`
	Parts []instrPart `parser:"@@*"`
}

type instrPart struct {
	Switch *string `parser:"  @Switch"`
	Quoted *string `parser:"| @String"`
	Bare   *string `parser:"| @Ident"`
}

// instrLexer tokenizes instruction text: backslash switches, quoted strings,
// bare words.
var instrLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Switch", Pattern: `\\[*@#!a-zA-Z]`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Ident", Pattern: `[^\s"\\]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var instrParser = participle.MustBuild[instrGrammar](
	participle.Lexer(instrLexer),
	participle.Elide("Whitespace"),
)

// ParseInstruction parses a field instruction string. A value token directly
// following a switch becomes that switch's value; value tokens before the
// first switch are positional arguments.
func ParseInstruction(s string) (*FieldInstruction, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("empty field instruction")
	}

	parsed, err := instrParser.ParseString("", trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid field instruction %q: %w", trimmed, err)
	}

	fi := &FieldInstruction{Name: parsed.Name}
	var open *FieldSwitch
	for _, part := range parsed.Parts {
		switch {
		case part.Switch != nil:
			fi.Switches = append(fi.Switches, FieldSwitch{Flag: *part.Switch})
			open = &fi.Switches[len(fi.Switches)-1]
		case part.Quoted != nil:
			val := unquoteInstrString(*part.Quoted)
			if open != nil && open.Value == "" {
				open.Value = val
			} else {
				fi.Arguments = append(fi.Arguments, val)
			}
		case part.Bare != nil:
			if open != nil && open.Value == "" {
				open.Value = *part.Bare
			} else {
				fi.Arguments = append(fi.Arguments, *part.Bare)
			}
		}
	}
	return fi, nil
}

func unquoteInstrString(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}
