package display

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/standardbeagle/tagsense/internal/types"
	"github.com/standardbeagle/tagsense/internal/xmltree"
)

// TreeNode is one tag of a document outline
type TreeNode struct {
	Name      string           `json:"name"`
	Namespace string           `json:"namespace,omitempty"`
	Range     types.TextRange  `json:"range"`
	Position  types.LineColumn `json:"position"`
	Depth     int              `json:"depth"`
	Known     bool             `json:"known"` // A schema describes the tag
	Children  []*TreeNode      `json:"children,omitempty"`
}

// TagTree is the outline of one document
type TagTree struct {
	Path      string    `json:"path"`
	Root      *TreeNode `json:"root"`
	TotalTags int       `json:"total_tags"`
	MaxDepth  int       `json:"max_depth"`
}

// BuildTree outlines the tags of doc. It returns a tree without a root for
// a document without elements.
func BuildTree(doc *xmltree.Document) *TagTree {
	tree := &TagTree{Path: doc.File().Path}
	root := doc.RootTag()
	if root == nil {
		return tree
	}
	lines := types.LineOffsets(doc.Text())

	var build func(tag *xmltree.Tag, depth int) *TreeNode
	build = func(tag *xmltree.Tag, depth int) *TreeNode {
		tree.TotalTags++
		tree.MaxDepth = max(tree.MaxDepth, depth)
		r := tag.Range()
		node := &TreeNode{
			Name:      tag.Name(),
			Namespace: tag.Namespace(),
			Range:     r,
			Position:  types.LineColumnAt(lines, r.Start),
			Depth:     depth,
			Known:     tag.Descriptor() != nil,
		}
		for _, sub := range tag.SubTags() {
			node.Children = append(node.Children, build(sub, depth+1))
		}
		return node
	}
	tree.Root = build(root, 0)
	return tree
}

// TreeFormatter formats tag trees for display
type TreeFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls tree formatting
type FormatterOptions struct {
	Format     string // "text", "json", "compact"
	ShowLines  bool   // Show line:column positions
	ShowRanges bool   // Show byte ranges
	MaxDepth   int    // Maximum depth to display
	Indent     string // Indentation string
}

// NewTreeFormatter creates a new tree formatter
func NewTreeFormatter(options FormatterOptions) *TreeFormatter {
	if options.Indent == "" {
		options.Indent = "  "
	}
	return &TreeFormatter{options: options}
}

// Format formats a tag tree for display
func (tf *TreeFormatter) Format(tree *TagTree) string {
	if tree == nil || tree.Root == nil {
		return "No tree data available"
	}

	switch tf.options.Format {
	case "json":
		return tf.formatJSON(tree)
	case "compact":
		return tf.formatCompact(tree)
	default:
		return tf.formatText(tree)
	}
}

// formatText formats tree as ASCII art
func (tf *TreeFormatter) formatText(tree *TagTree) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Tag tree for '%s'\n", tree.Path))
	sb.WriteString(fmt.Sprintf("Total tags: %d, Max depth: %d\n", tree.TotalTags, tree.MaxDepth))
	sb.WriteString("\n")

	tf.formatNode(&sb, tree.Root, "", true, true)

	return sb.String()
}

// formatNode recursively formats a tree node
func (tf *TreeFormatter) formatNode(sb *strings.Builder, node *TreeNode, prefix string, isLast bool, isRoot bool) {
	if node == nil {
		return
	}

	// Skip if beyond max depth
	if tf.options.MaxDepth > 0 && node.Depth > tf.options.MaxDepth {
		return
	}

	// Tree branch characters
	var branch string
	if isRoot {
		branch = "→ "
	} else if isLast {
		branch = "└─→ "
	} else {
		branch = "├─→ "
	}

	sb.WriteString(prefix)
	sb.WriteString(branch)
	sb.WriteString(node.Name)

	if node.Namespace != "" {
		sb.WriteString(" {" + node.Namespace + "}")
	}
	if !node.Known {
		sb.WriteString(" ?")
	}
	if tf.options.ShowLines {
		sb.WriteString(fmt.Sprintf(" [%d:%d]", node.Position.Line, node.Position.Column))
	}
	if tf.options.ShowRanges {
		sb.WriteString(" " + node.Range.String())
	}
	sb.WriteString("\n")

	childCount := len(node.Children)
	for i, child := range node.Children {
		var childPrefix string
		if isRoot || isLast {
			childPrefix = prefix + tf.options.Indent
		} else {
			childPrefix = prefix + "│ "
		}

		tf.formatNode(sb, child, childPrefix, i == childCount-1, false)
	}
}

// formatCompact formats tree as a nested one-line expression
func (tf *TreeFormatter) formatCompact(tree *TagTree) string {
	var sb strings.Builder
	tf.writeCompact(&sb, tree.Root)
	return sb.String()
}

func (tf *TreeFormatter) writeCompact(sb *strings.Builder, node *TreeNode) {
	sb.WriteString(node.Name)
	if len(node.Children) == 0 {
		return
	}
	if tf.options.MaxDepth > 0 && node.Depth >= tf.options.MaxDepth {
		sb.WriteString(fmt.Sprintf("(+%d)", len(node.Children)))
		return
	}
	sb.WriteString("(")
	for i, child := range node.Children {
		if i > 0 {
			sb.WriteString(" ")
		}
		tf.writeCompact(sb, child)
	}
	sb.WriteString(")")
}

func (tf *TreeFormatter) formatJSON(tree *TagTree) string {
	data, err := json.MarshalIndent(tree, "", tf.options.Indent)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
