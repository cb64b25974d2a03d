// Package htmlview renders a view tree as HTML card markup.
//
// The markup mirrors what the page's client script builds in the browser,
// so a server-rendered tree and a client re-render are interchangeable.
// Components live in htmlview.templ; run `templ generate` after editing it.
package htmlview

import (
	"context"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbexplorer/internal/view"
)

// String renders t to a string.
func String(ctx context.Context, t *view.Tree) (string, error) {
	var sb strings.Builder
	if err := Tree(t).Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func placeholderText(t *view.Tree) string {
	if t != nil && t.Placeholder != "" {
		return t.Placeholder
	}
	return view.NoMatchesText
}

func toggleClasses(c view.Card) string {
	if c.Collapsed {
		return "card-toggle collapsed"
	}
	return "card-toggle"
}

func bodyClasses(c view.Card) string {
	if c.Collapsed {
		return "collapse"
	}
	return "collapse show"
}

func expanded(c view.Card) string { return strconv.FormatBool(!c.Collapsed) }

func cellClass(c view.Cell) string { return "cell-" + string(c.Class) }
