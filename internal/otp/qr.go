package otp

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const svgModuleSize = 4 // px per QR module

// RenderQRSVG renders the enrolment URI as a scalable SVG string. qrcode
// only produces a bitmap ([]bool per module); the SVG markup itself is
// built here from that bitmap.
func RenderQRSVG(uri string) (string, error) {
	qr, err := qrcode.New(uri, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("otp: build qr code: %w", err)
	}

	bitmap := qr.Bitmap()
	dim := len(bitmap)
	side := dim * svgModuleSize

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, side, side)
	b.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="#000000"/>`,
				x*svgModuleSize, y*svgModuleSize, svgModuleSize, svgModuleSize)
		}
	}
	b.WriteString(`</svg>`)
	return b.String(), nil
}
