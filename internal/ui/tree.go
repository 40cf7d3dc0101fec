package ui

import (
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/repository"
)

// RenderTree draws a descendants tree below a root label. Folders are
// highlighted; folders at the depth limit are marked with "…".
func RenderTree(rootLabel string, nodes []*repository.Node) string {
	t := tree.Root(AccentBold.Render(rootLabel)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(Muted)
	addNodes(t, nodes)
	return t.String()
}

func addNodes(t *tree.Tree, nodes []*repository.Node) {
	for _, n := range nodes {
		label := NodeLabel(n.Object)
		if !n.Object.IsFolder() {
			t.Child(label)
			continue
		}
		if n.Children == nil {
			t.Child(Accent.Render(label) + Muted.Render(" …"))
			continue
		}
		sub := tree.Root(Accent.Render(label))
		addNodes(sub, n.Children)
		t.Child(sub)
	}
}

// NodeLabel is the name shown for an object, falling back to its id.
func NodeLabel(o *model.Object) string {
	if name := o.Name(); name != "" {
		return name
	}
	return o.ID
}
