package page

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Assets are the client script and stylesheet inlined into the page.
type Assets struct {
	JS  string
	CSS string
}

// BundleAssets transforms the embedded script and stylesheet with esbuild.
func BundleAssets(minify bool) (*Assets, error) {
	js, err := transformAsset("static/app.js", api.LoaderJS, minify)
	if err != nil {
		return nil, err
	}
	css, err := transformAsset("static/styles.css", api.LoaderCSS, minify)
	if err != nil {
		return nil, err
	}
	return &Assets{JS: js, CSS: css}, nil
}

func transformAsset(name string, loader api.Loader, minify bool) (string, error) {
	src, err := staticFiles.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}

	opts := api.TransformOptions{
		Loader:     loader,
		Sourcefile: name,
		Target:     api.ES2017,
		LogLevel:   api.LogLevelWarning,
	}
	if loader == api.LoaderJS {
		opts.Format = api.FormatIIFE
	}
	if minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}

	result := api.Transform(string(src), opts)
	if len(result.Errors) > 0 {
		var msg strings.Builder
		for _, e := range result.Errors {
			if e.Location != nil {
				fmt.Fprintf(&msg, "%s:%d:%d: %s\n", e.Location.File, e.Location.Line, e.Location.Column, e.Text)
			} else {
				fmt.Fprintf(&msg, "%s\n", e.Text)
			}
		}
		return "", fmt.Errorf("esbuild errors:\n%s", msg.String())
	}
	// "</" must not appear inside an inline <script> or <style> element.
	return strings.ReplaceAll(string(result.Code), "</", `<\/`), nil
}
