package docxml

import (
	"strings"

	"github.com/ItMeDiaTech/docXMLater-sub005/pkg/docxml/xmlnode"
)

// fieldTokenKind classifies one item of a paragraph's flat run stream for
// field assembly.
type fieldTokenKind int

const (
	tokenPlain fieldTokenKind = iota
	tokenBegin
	tokenInstr
	tokenSeparate
	tokenEnd
)

// fieldToken is one inline item: either a field marker run or an already
// parsed inline child (plain run, hyperlink, simple field, marker, raw).
type fieldToken struct {
	kind fieldTokenKind
	// run is the carrying run node for begin/instr/separate/end tokens.
	run *xmlnode.Node
	// text is the instruction text for instr tokens.
	text string
	// child is the parsed inline item for plain tokens.
	child ParagraphChild
}

// classifyRun decides whether a run is a field marker, instruction text, or
// plain content.
func classifyRun(run *xmlnode.Node) fieldToken {
	for _, el := range run.Elements() {
		switch el.LocalName() {
		case "fldChar":
			typ, _ := el.AttrLocal("fldCharType")
			switch typ {
			case "begin":
				return fieldToken{kind: tokenBegin, run: run}
			case "separate":
				return fieldToken{kind: tokenSeparate, run: run}
			case "end":
				return fieldToken{kind: tokenEnd, run: run}
			}
		case "instrText":
			return fieldToken{kind: tokenInstr, run: run, text: el.InnerText()}
		}
	}
	return fieldToken{kind: tokenPlain, child: &Run{node: run}}
}

// fieldFrame is one open field on the assembly stack.
type fieldFrame struct {
	beginRun  *xmlnode.Node
	sepRun    *xmlnode.Node
	separated bool
	instr     strings.Builder
	// instrContent is the ordered instruction-phase content.
	instrContent []ParagraphChild
	result       []ParagraphChild
}

// fieldAssembler consumes a paragraph's token stream and produces inline
// content where begin/instruction/separate/result/end sequences are folded
// into ComplexField nodes, honoring nesting.
type fieldAssembler struct {
	part  string
	mode  ParseMode
	stack []*fieldFrame
	out   []ParagraphChild
	warns []Warning
}

func newFieldAssembler(part string, mode ParseMode) *fieldAssembler {
	return &fieldAssembler{part: part, mode: mode}
}

func (a *fieldAssembler) depth() int {
	return len(a.stack)
}

func (a *fieldAssembler) top() *fieldFrame {
	return a.stack[len(a.stack)-1]
}

// emit appends a finished inline item to the current sink: the innermost
// open frame, or the paragraph output when no field is open.
func (a *fieldAssembler) emit(c ParagraphChild) {
	if a.depth() == 0 {
		a.out = append(a.out, c)
		return
	}
	f := a.top()
	if f.separated {
		f.result = append(f.result, c)
	} else {
		f.instrContent = append(f.instrContent, c)
	}
}

func (a *fieldAssembler) feed(tok fieldToken) error {
	switch tok.kind {
	case tokenBegin:
		frame := &fieldFrame{beginRun: tok.run}
		a.stack = append(a.stack, frame)

	case tokenInstr:
		if a.depth() == 0 {
			// Instruction text outside any field is plain content.
			a.out = append(a.out, &Run{node: tok.run})
			return nil
		}
		f := a.top()
		if f.separated {
			// Instruction text inside a cached result carries no field
			// semantics; keep it as content.
			f.result = append(f.result, &Run{node: tok.run})
			return nil
		}
		f.instr.WriteString(tok.text)
		f.instrContent = append(f.instrContent, &Run{node: tok.run})

	case tokenSeparate:
		if a.depth() == 0 {
			// A stray separator cannot open a result; keep the run so no
			// bytes are lost.
			a.out = append(a.out, &Run{node: tok.run})
			return nil
		}
		f := a.top()
		if f.separated {
			f.result = append(f.result, &Run{node: tok.run})
			return nil
		}
		f.separated = true
		f.sepRun = tok.run

	case tokenEnd:
		if a.depth() == 0 {
			if a.mode == Strict {
				return NewUnbalancedFieldError(a.part, "end marker with no open field")
			}
			a.warns = append(a.warns, Warning{
				Part:    a.part,
				Element: "fldChar",
				Err:     NewUnbalancedFieldError(a.part, "end marker with no open field"),
			})
			a.out = append(a.out, &Run{node: tok.run})
			return nil
		}
		f := a.top()
		a.stack = a.stack[:len(a.stack)-1]
		field := &ComplexField{
			Instruction:        f.instr.String(),
			HasSeparator:       f.separated,
			InstructionContent: f.instrContent,
			Result:             f.result,
			beginRun:           f.beginRun,
			sepRun:             f.sepRun,
			endRun:             tok.run,
		}
		a.emit(field)

	case tokenPlain:
		a.emit(tok.child)
	}
	return nil
}

// finish validates the depth counter at end of paragraph. In lenient mode,
// open frames are degraded outermost-first: the captured instruction runs
// and result content are re-emitted as literal content, and the begin and
// separate marker runs are dropped as the source of the imbalance.
func (a *fieldAssembler) finish() ([]ParagraphChild, []Warning, error) {
	if a.depth() == 0 {
		return a.out, a.warns, nil
	}

	if a.mode == Strict {
		return nil, a.warns, NewUnbalancedFieldError(a.part, "field begin without matching end")
	}

	for len(a.stack) > 0 {
		f := a.stack[0]
		a.stack = a.stack[1:]
		a.warns = append(a.warns, Warning{
			Part:    a.part,
			Element: "fldChar",
			Err:     NewUnbalancedFieldError(a.part, "field begin without matching end; degraded to literal content"),
		})
		a.out = append(a.out, f.instrContent...)
		a.out = append(a.out, f.result...)
	}
	return a.out, a.warns, nil
}

// assembleFields runs the state machine over a token stream.
func assembleFields(part string, mode ParseMode, tokens []fieldToken) ([]ParagraphChild, []Warning, error) {
	a := newFieldAssembler(part, mode)
	for _, tok := range tokens {
		if err := a.feed(tok); err != nil {
			return nil, a.warns, err
		}
	}
	return a.finish()
}
