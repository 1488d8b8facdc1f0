package mexpr

import (
	"strings"
	"unicode/utf8"
)

// RenderTree draws the tree rooted at n with box-drawing characters, one
// node per line. The first child of each node is drawn on the same line as
// its parent.
func RenderTree(n Node) string {
	var b strings.Builder
	render(&b, n, "")
	return b.String()
}

func render(b *strings.Builder, n Node, tabs string) {
	label := n.label()
	b.WriteString(label)
	k := n.ChildCount()
	if k == 0 {
		b.WriteByte('\n')
		return
	}
	b.WriteString("─")
	// w is the width of the label plus the connector to the first child. The
	// subtrees of later children are indented by the same amount.
	w := utf8.RuneCountInString(label) + 1
	for i := 0; i < k; i++ {
		c, err := n.Child(i)
		if err != nil {
			panic(err)
		}
		last := i == k-1
		if i > 0 {
			b.WriteString(tabs)
			if last {
				b.WriteString("  └")
			} else {
				b.WriteString("  ├")
			}
			b.WriteString(strings.Repeat("─", w-3))
		}
		next := tabs + strings.Repeat(" ", w)
		if !last {
			next = tabs + "  │" + strings.Repeat(" ", w-3)
		}
		render(b, c, next)
	}
}

func (n *Value) label() string        { return "[ " + formatFloat(n.v) + " ]" }
func (n *Variable) label() string     { return "[ " + string(rune(n.id)) + " ]" }
func (n *PrimitiveOp) label() string  { return "[ " + n.op.String() + " ]" }
func (n *FunctionCall) label() string { return "[ " + n.name + " ]" }
