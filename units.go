package brush

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gogpu/gg/cache"
)

// maxCoord bounds every resolved coordinate. Values beyond it (and NaN) are
// clamped before rounding so surfaces never receive absurd sizes.
const maxCoord = 1 << 24

// UnitError reports a malformed or unsupported unit expression.
type UnitError struct {
	Expr string
	Pos  int // byte offset into Expr, or -1 when not tied to a position
	Msg  string
}

func (e *UnitError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("brush: unit %q: %s", e.Expr, e.Msg)
	}
	return fmt.Sprintf("brush: unit %q at %d: %s", e.Expr, e.Pos, e.Msg)
}

// Basis is the reference frame a [Dim] resolves against. Ref is the dimension
// percentages refer to (width for horizontal values, height for vertical
// ones); ViewW and ViewH are the owning layer's size for vw/vh.
type Basis struct {
	Ref          float64
	ViewW, ViewH float64
}

type unitKind uint8

const (
	unitPx unitKind = iota
	unitPercent
	unitVW
	unitVH
)

// Dim is a length: an absolute pixel count or a unit expression combining
// numbers, %, vw, vh with + - * / and parentheses, e.g. "50% - 10" or
// "(100vw - 20) / 2". The zero Dim is 0px.
type Dim struct {
	px   float64
	expr unitNode
	src  string
	err  error
}

// Px returns an absolute pixel length.
func Px(v float64) Dim { return Dim{px: v} }

// Pct returns a percentage of the reference dimension.
func Pct(v float64) Dim {
	return Dim{expr: numberNode{value: v, unit: unitPercent}, src: strconv.FormatFloat(v, 'g', -1, 64) + "%"}
}

// VW returns a percentage of the layer width.
func VW(v float64) Dim {
	return Dim{expr: numberNode{value: v, unit: unitVW}, src: strconv.FormatFloat(v, 'g', -1, 64) + "vw"}
}

// VH returns a percentage of the layer height.
func VH(v float64) Dim {
	return Dim{expr: numberNode{value: v, unit: unitVH}, src: strconv.FormatFloat(v, 'g', -1, 64) + "vh"}
}

// Expr parses s as a unit expression. A malformed expression yields a Dim
// whose Resolve reports the parse error.
func Expr(s string) Dim {
	d, err := ParseDim(s)
	if err != nil {
		return Dim{src: s, err: err}
	}
	return d
}

type parsedUnit struct {
	node unitNode
	err  error
}

var unitCache = cache.NewSharded[string, parsedUnit](cache.DefaultCapacity, cache.StringHasher)

// ParseDim parses a unit expression. Parsed expressions are memoized.
func ParseDim(s string) (Dim, error) {
	p := unitCache.GetOrCreate(s, func() parsedUnit {
		n, err := parseUnitExpr(s)
		return parsedUnit{node: n, err: err}
	})
	if p.err != nil {
		return Dim{}, p.err
	}
	return Dim{expr: p.node, src: s}, nil
}

// Resolve returns the unrounded value of d against b.
func (d Dim) Resolve(b Basis) (float64, error) {
	if d.err != nil {
		return 0, d.err
	}
	if d.expr == nil {
		return d.px, nil
	}
	v, err := d.expr.eval(b)
	if err != nil {
		if ue, ok := err.(*UnitError); ok && ue.Expr == "" {
			ue.Expr = d.src
		}
		return 0, err
	}
	return v, nil
}

// Pixels resolves d and rounds it to whole pixels, half up.
func (d Dim) Pixels(b Basis) (float64, error) {
	v, err := d.Resolve(b)
	if err != nil {
		return 0, err
	}
	return roundPixel(v), nil
}

// IsRelative reports whether d depends on its basis.
func (d Dim) IsRelative() bool {
	return d.expr != nil && d.expr.relative()
}

func (d Dim) String() string {
	if d.expr == nil && d.err == nil {
		return strconv.FormatFloat(d.px, 'g', -1, 64)
	}
	return d.src
}

func (d Dim) equal(o Dim) bool {
	return d.px == o.px && d.src == o.src && (d.err == nil) == (o.err == nil)
}

// roundPixel clamps v into the coordinate range and rounds half up.
func roundPixel(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > maxCoord:
		v = maxCoord
	case v < -maxCoord:
		v = -maxCoord
	}
	return math.Floor(v + 0.5)
}

// toDim converts a property value to a Dim. Numbers are pixels and strings
// are unit expressions; a missing value is 0px.
func toDim(v any) (Dim, error) {
	switch t := v.(type) {
	case nil:
		return Dim{}, nil
	case Dim:
		return t, t.err
	case float64:
		return Px(t), nil
	case float32:
		return Px(float64(t)), nil
	case int:
		return Px(float64(t)), nil
	case int32:
		return Px(float64(t)), nil
	case int64:
		return Px(float64(t)), nil
	case uint32:
		return Px(float64(t)), nil
	case string:
		return ParseDim(t)
	default:
		return Dim{}, &UnitError{Expr: fmt.Sprint(v), Pos: -1, Msg: fmt.Sprintf("unsupported value type %T", v)}
	}
}

// --- AST ---

type unitNode interface {
	eval(b Basis) (float64, error)
	relative() bool
}

type numberNode struct {
	value float64
	unit  unitKind
}

func (n numberNode) eval(b Basis) (float64, error) {
	switch n.unit {
	case unitPercent:
		return n.value * b.Ref / 100, nil
	case unitVW:
		return n.value * b.ViewW / 100, nil
	case unitVH:
		return n.value * b.ViewH / 100, nil
	}
	return n.value, nil
}

func (n numberNode) relative() bool { return n.unit != unitPx }

type negNode struct {
	x unitNode
}

func (n *negNode) eval(b Basis) (float64, error) {
	v, err := n.x.eval(b)
	return -v, err
}

func (n *negNode) relative() bool { return n.x.relative() }

type binaryNode struct {
	op          byte
	pos         int
	left, right unitNode
}

func (n *binaryNode) eval(b Basis) (float64, error) {
	l, err := n.left.eval(b)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(b)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	default:
		if r == 0 {
			return 0, &UnitError{Pos: n.pos, Msg: "division by zero"}
		}
		return l / r, nil
	}
}

func (n *binaryNode) relative() bool { return n.left.relative() || n.right.relative() }

// --- tokenizer ---

type tokenKind uint8

const (
	tokNumber tokenKind = iota
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	pos  int
	num  float64
	unit unitKind
	op   byte
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			toks = append(toks, token{kind: tokOp, pos: i, op: c})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++
		case isDigit(c) || c == '.':
			start := i
			dot := false
			for i < len(src) && (isDigit(src[i]) || src[i] == '.' && !dot) {
				if src[i] == '.' {
					dot = true
				}
				i++
			}
			v, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, &UnitError{Expr: src, Pos: start, Msg: "malformed number"}
			}
			tok := token{kind: tokNumber, pos: start, num: v, unit: unitPx}
			switch {
			case i < len(src) && src[i] == '%':
				tok.unit = unitPercent
				i++
			case i < len(src) && isLetter(src[i]):
				us := i
				for i < len(src) && isLetter(src[i]) {
					i++
				}
				switch src[us:i] {
				case "px":
				case "vw":
					tok.unit = unitVW
				case "vh":
					tok.unit = unitVH
				default:
					return nil, &UnitError{Expr: src, Pos: us, Msg: fmt.Sprintf("unknown unit %q", src[us:i])}
				}
			}
			toks = append(toks, tok)
		default:
			return nil, &UnitError{Expr: src, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

// --- parser ---
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = ("-" | "+") factor | number | "(" expr ")"

type unitParser struct {
	src  string
	toks []token
	pos  int
}

func parseUnitExpr(src string) (unitNode, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 1 {
		return nil, &UnitError{Expr: src, Pos: 0, Msg: "empty expression"}
	}
	p := &unitParser{src: src, toks: toks}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected token")
	}
	return n, nil
}

func (p *unitParser) peek() token { return p.toks[p.pos] }

func (p *unitParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *unitParser) errorf(t token, format string, args ...any) error {
	return &UnitError{Expr: p.src, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *unitParser) expr() (unitNode, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.op != '+' && t.op != '-') {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.op, pos: t.pos, left: left, right: right}
	}
}

func (p *unitParser) term() (unitNode, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.op != '*' && t.op != '/') {
			return left, nil
		}
		p.next()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.op, pos: t.pos, left: left, right: right}
	}
}

func (p *unitParser) factor() (unitNode, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode{value: t.num, unit: t.unit}, nil
	case tokOp:
		if t.op != '-' && t.op != '+' {
			return nil, p.errorf(t, "unexpected operator %q", t.op)
		}
		x, err := p.factor()
		if err != nil {
			return nil, err
		}
		if t.op == '+' {
			return x, nil
		}
		return &negNode{x: x}, nil
	case tokLParen:
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.errorf(c, "expected )")
		}
		return n, nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of expression")
	}
	return nil, p.errorf(t, "expected number")
}
