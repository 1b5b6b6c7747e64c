package textnode

import "golang.org/x/net/html"

// FilterResult tells Walk what to do with a node.
type FilterResult int

const (
	// Accept visits the node and descends into its children.
	Accept FilterResult = iota
	// Skip does not visit the node but still descends into its children.
	Skip
	// Reject neither visits the node nor its subtree.
	Reject
)

// Filter decides per node whether Walk visits it.
type Filter func(n *html.Node) FilterResult

// Walk traverses the descendants of root in document order (pre-order,
// depth-first) and calls visit for every node the filter accepts. root
// itself is not offered to the filter. A nil filter accepts everything.
func Walk(root *html.Node, filter Filter, visit func(n *html.Node)) {
	if root == nil {
		return
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walkNode(c, filter, visit)
	}
}

func walkNode(n *html.Node, filter Filter, visit func(n *html.Node)) {
	res := Accept
	if filter != nil {
		res = filter(n)
	}
	switch res {
	case Reject:
		return
	case Accept:
		if visit != nil {
			visit(n)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNode(c, filter, visit)
	}
}
