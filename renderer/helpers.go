package renderer

import (
	"bytes"
	"fmt"
	"io"
)

// section writes a titled block to w, only if block reports it has written something.
func section(w io.Writer, title string, block func(io.Writer) bool) {
	var b bytes.Buffer
	if !block(&b) {
		return
	}
	fmt.Fprintf(w, "%s\n\n", title)
	io.Copy(w, &b)
}
