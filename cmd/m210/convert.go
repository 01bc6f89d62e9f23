package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nasa-jpl/m210/notetaker/note"
	"github.com/nasa-jpl/m210/svg"
)

// convertTranscript decodes the transcript at inputPath and renders every
// non-empty note as outputDir/m210_note_<number>.svg (§6).
func convertTranscript(inputPath, outputDir string, overwrite bool) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	d := note.NewDecoder(f)
	written := 0
	for {
		n, derr := d.Next()
		if derr != nil {
			if errors.Is(derr, io.EOF) {
				break
			}
			return derr
		}
		if n.State == note.Empty {
			continue
		}

		name := fmt.Sprintf("m210_note_%d.svg", n.Number)
		path := filepath.Join(outputDir, name)

		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if !overwrite {
			flags |= os.O_EXCL
		}
		out, oerr := os.OpenFile(path, flags, 0o644)
		if oerr != nil {
			return fmt.Errorf("%s: %w", path, oerr)
		}
		werr := svg.Write(out, n)
		cerr := out.Close()
		if werr != nil {
			return werr
		}
		if cerr != nil {
			return cerr
		}
		written++
	}

	fmt.Printf("wrote %d note(s) to %s\n", written, outputDir)
	return nil
}
