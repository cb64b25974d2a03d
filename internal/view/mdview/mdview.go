// Package mdview renders a view tree as Markdown by converting the HTML
// card markup, so Markdown output always matches what the page shows.
package mdview

import (
	"context"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/leapstack-labs/dbexplorer/internal/view"
	"github.com/leapstack-labs/dbexplorer/internal/view/htmlview"
)

// Render converts t to Markdown. Collapse state is ignored; every card is
// written in full.
func Render(ctx context.Context, t *view.Tree) (string, error) {
	markup, err := htmlview.String(ctx, t)
	if err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	md, err := conv.ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("failed to convert to markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}
