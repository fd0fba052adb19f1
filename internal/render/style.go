// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import "github.com/pdiddy/pdf-annotate/pkg/types"

// RGB is a DeviceRGB colour with components in [0, 1].
type RGB [3]float64

// Style is the appearance of one annotation kind.
type Style struct {
	Accent RGB
	Fill   RGB
	Label  string
}

var styles = map[types.Kind]Style{
	types.KindDefinition: {Accent: RGB{0.12, 0.75, 0.68}, Fill: RGB{0.88, 1.00, 0.98}, Label: "DEF"},
	types.KindQuestion:   {Accent: RGB{0.90, 0.65, 0.05}, Fill: RGB{1.00, 0.97, 0.82}, Label: "Q?"},
	types.KindReaction:   {Accent: RGB{0.58, 0.45, 0.92}, Fill: RGB{0.96, 0.92, 1.00}, Label: "RXN"},
	types.KindDevice:     {Accent: RGB{0.18, 0.55, 0.92}, Fill: RGB{0.88, 0.95, 1.00}, Label: "LIT"},
	types.KindTheme:      {Accent: RGB{0.92, 0.45, 0.12}, Fill: RGB{1.00, 0.93, 0.86}, Label: "THM"},
	types.KindNotation:   {Accent: RGB{0.45, 0.50, 0.58}, Fill: RGB{0.94, 0.94, 0.96}, Label: "NB"},
	types.KindSummary:    {Accent: RGB{0.18, 0.75, 0.38}, Fill: RGB{0.88, 1.00, 0.93}, Label: "SUM"},
}

var defaultStyle = Style{Accent: RGB{0.45, 0.50, 0.58}, Fill: RGB{0.95, 0.95, 0.97}, Label: "ANN"}

// StyleFor returns the style of kind k, or a neutral style for kinds the
// renderer does not know.
func StyleFor(k types.Kind) Style {
	if s, ok := styles[k]; ok {
		return s
	}
	return defaultStyle
}
