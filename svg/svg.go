// Package svg renders a decoded note (github.com/nasa-jpl/m210/notetaker/note)
// as a vector drawing. It is a separate concern from decoding: the decoder
// produces a structured in-memory note, and this package is one of
// potentially several renderers for it.
package svg

import (
	"fmt"
	"io"

	"github.com/nasa-jpl/m210/notetaker/note"
)

// margin padding, in device units, added around the note's bounding box.
const margin = 10

// Write renders n as an SVG document to w: one <path> element per stroke,
// in recording order. An empty note (no paths) still produces a valid,
// empty canvas.
func Write(w io.Writer, n *note.Note) error {
	minX, minY, maxX, maxY := bounds(n)
	width := maxX - minX + 2*margin
	height := maxY - minY + 2*margin

	if _, err := fmt.Fprintf(w,
		"<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"no\"?>\n"+
			"<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" "+
			"width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n",
		width, height, width, height); err != nil {
		return err
	}

	for _, p := range n.Paths {
		if len(p) == 0 {
			continue
		}
		if _, err := fmt.Fprint(w, "  <path d=\""); err != nil {
			return err
		}
		for i, c := range p {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			if _, err := fmt.Fprintf(w, "%s%d,%d ", cmd, int(c.X)-minX+margin, int(c.Y)-minY+margin); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, "\" fill=\"none\" stroke=\"black\" stroke-width=\"2\" stroke-linecap=\"round\" stroke-linejoin=\"round\"/>\n"); err != nil {
			return err
		}
	}

	_, err := fmt.Fprint(w, "</svg>\n")
	return err
}

func bounds(n *note.Note) (minX, minY, maxX, maxY int) {
	first := true
	for _, p := range n.Paths {
		for _, c := range p {
			x, y := int(c.X), int(c.Y)
			if first {
				minX, maxX, minY, maxY = x, x, y, y
				first = false
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if first {
		// No coordinates at all: a minimal empty canvas.
		return 0, 0, 0, 0
	}
	return
}
