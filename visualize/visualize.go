// Package visualize renders a compiled schematic.Graph for humans: a
// Mermaid flowchart, a Graphviz DOT digraph, and a lipgloss-styled terminal
// summary table of nodes and ports. None of this touches execution — it
// exists purely for debugging and documentation.
package visualize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flowmesh/flowmesh/schematic"
)

// Exporter renders one compiled Graph in several formats.
type Exporter struct {
	graph *schematic.Graph
}

// New creates an Exporter for g.
func New(g *schematic.Graph) *Exporter { return &Exporter{graph: g} }

// MermaidOptions configures DrawMermaid's output.
type MermaidOptions struct {
	// Direction is the flowchart direction, e.g. "TD" or "LR". Default "TD".
	Direction string
}

// DrawMermaid renders the graph as a Mermaid flowchart with default options.
func (e *Exporter) DrawMermaid() string {
	return e.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions renders the graph as a Mermaid flowchart.
func (e *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	for _, n := range e.graph.Nodes() {
		label := nodeLabel(n)
		switch n.Kind {
		case schematic.KindInput:
			fmt.Fprintf(&sb, "    %s([%q])\n    style %s fill:#90EE90\n", nodeID(n), label, nodeID(n))
		case schematic.KindOutput:
			fmt.Fprintf(&sb, "    %s([%q])\n    style %s fill:#FFB6C1\n", nodeID(n), label, nodeID(n))
		case schematic.KindInherent:
			fmt.Fprintf(&sb, "    %s[(%q)]\n", nodeID(n), label)
		default:
			fmt.Fprintf(&sb, "    %s[%q]\n", nodeID(n), label)
		}
	}

	for _, c := range e.graph.Connections() {
		fromNode, _ := e.graph.Node(c.From.NodeIndex)
		toNode, _ := e.graph.Node(c.To.NodeIndex)
		fmt.Fprintf(&sb, "    %s -->|%s| %s\n", nodeID(fromNode), portName(fromNode, c.From), nodeID(toNode))
	}

	return sb.String()
}

// DrawDOT renders the graph as a Graphviz DOT digraph.
func (e *Exporter) DrawDOT() string {
	var sb strings.Builder
	sb.WriteString("digraph G {\n    rankdir=TD;\n    node [shape=box];\n")

	for _, n := range e.graph.Nodes() {
		fillColor := "white"
		switch n.Kind {
		case schematic.KindInput:
			fillColor = "lightgreen"
		case schematic.KindOutput:
			fillColor = "lightpink"
		case schematic.KindInherent:
			fillColor = "lightyellow"
		}
		fmt.Fprintf(&sb, "    %s [label=%q, style=filled, fillcolor=%s];\n", nodeID(n), nodeLabel(n), fillColor)
	}

	for _, c := range e.graph.Connections() {
		fromNode, _ := e.graph.Node(c.From.NodeIndex)
		toNode, _ := e.graph.Node(c.To.NodeIndex)
		fmt.Fprintf(&sb, "    %s -> %s [label=%q];\n", nodeID(fromNode), nodeID(toNode), portName(fromNode, c.From))
	}

	sb.WriteString("}\n")
	return sb.String()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	kindStyle   = map[schematic.NodeKind]lipgloss.Style{
		schematic.KindInput:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		schematic.KindOutput:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		schematic.KindInherent: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		schematic.KindExternal: lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	}
	portStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingLeft(2)
)

// Summary renders a lipgloss-styled terminal table: one row per node, with
// its kind, its name, its reference, and its declared ports indented
// underneath.
func (e *Exporter) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", headerStyle.Render(fmt.Sprintf("schematic %s", e.graph.Name)))

	for _, n := range e.graph.Nodes() {
		style, ok := kindStyle[n.Kind]
		if !ok {
			style = lipgloss.NewStyle()
		}
		fmt.Fprintf(&sb, "%s  %s %s\n", style.Render(fmt.Sprintf("[%s]", n.Kind)), n.Name, n.String())

		names := make([]string, 0, len(n.Inputs())+len(n.Outputs()))
		for _, p := range n.Inputs() {
			names = append(names, fmt.Sprintf("in  %s (%d conns)", p.Name, len(p.Connections())))
		}
		for _, p := range n.Outputs() {
			names = append(names, fmt.Sprintf("out %s (%d conns)", p.Name, len(p.Connections())))
		}
		sort.Strings(names)
		for _, line := range names {
			fmt.Fprintln(&sb, portStyle.Render(line))
		}
	}

	return sb.String()
}

func nodeID(n *schematic.Node) string {
	return fmt.Sprintf("n%d", n.Index())
}

func nodeLabel(n *schematic.Node) string {
	if n.Kind == schematic.KindExternal || n.Kind == schematic.KindInherent {
		return fmt.Sprintf("%s\\n%s", n.Name, n.Ref)
	}
	return n.Name
}

func portName(n *schematic.Node, ref schematic.PortRef) string {
	for _, p := range n.Outputs() {
		if p.Ref == ref {
			return p.Name
		}
	}
	for _, p := range n.Inputs() {
		if p.Ref == ref {
			return p.Name
		}
	}
	return ""
}
