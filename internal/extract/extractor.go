package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Thresholds for the selection and generic-block rules.
const (
	MinSelectionChars = 30
	MinBlockChars     = 100
)

// Strategy is one extraction rule. Extract returns candidate text or "" when
// the rule does not apply; root is nil when the markup could not be parsed.
type Strategy struct {
	Name    string
	Extract func(root *html.Node, selection string) string
}

// Chain is an ordered list of strategies; the first non-empty result wins.
type Chain []Strategy

// DefaultChain is selection, article, main, paragraphs, then large divs.
func DefaultChain() Chain {
	return Chain{
		SelectionStrategy(MinSelectionChars),
		LandmarkStrategy("article"),
		LandmarkStrategy("main"),
		JoinedStrategy("p", 0),
		JoinedStrategy("div", MinBlockChars),
	}
}

// SelectionStrategy returns the trimmed selection when it is longer than
// minChars characters.
func SelectionStrategy(minChars int) Strategy {
	return Strategy{
		Name: "selection",
		Extract: func(_ *html.Node, selection string) string {
			s := strings.TrimSpace(selection)
			if runeLen(s) > minChars {
				return s
			}
			return ""
		},
	}
}

// LandmarkStrategy returns the text of the first element named tag.
func LandmarkStrategy(tag string) Strategy {
	return Strategy{
		Name: tag,
		Extract: func(root *html.Node, _ string) string {
			n := findFirst(root, tag)
			if n == nil {
				return ""
			}
			return innerText(n)
		},
	}
}

// JoinedStrategy newline-joins the text of every element named tag whose
// text is longer than minChars characters.
func JoinedStrategy(tag string, minChars int) Strategy {
	return Strategy{
		Name: tag,
		Extract: func(root *html.Node, _ string) string {
			nodes := findAll(root, tag)
			parts := make([]string, 0, len(nodes))
			for _, n := range nodes {
				text := innerText(n)
				if minChars > 0 && runeLen(text) <= minChars {
					continue
				}
				parts = append(parts, text)
			}
			return strings.Join(parts, "\n")
		},
	}
}
