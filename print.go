package rntuple

import (
	"io"
	"strconv"
)

// Print writes a human-readable representation of the index to w, one line
// per field, column, cluster and page, indented with tabs.
func Print(w io.Writer, idx *Index) error {
	return PrintIndent(w, idx, "\t", "\n")
}

// PrintIndent is like Print but lets the caller choose the indentation pattern
// and the line separator.
func PrintIndent(w io.Writer, idx *Index, pattern, newline string) error {
	pw := &printWriter{writer: w}
	pi := &printIndent{pattern: pattern, newline: newline}

	pw.WriteString("rntuple ")
	pw.WriteString(idx.name)
	pw.WriteString(" {")
	pi.writeNewLine(pw)

	schema := idx.schema
	err := schema.walk(schema.roots, func(f *Field, depth int) error {
		pi.repeat = depth + 1
		printField(pw, f, pi)
		return pw.err
	}, nil)
	if err != nil {
		return err
	}

	pw.WriteString("}")
	pi.writeNewLine(pw)
	return pw.err
}

func printField(w io.StringWriter, f *Field, indent *printIndent) {
	indent.writeTo(w)
	w.WriteString("[")
	w.WriteString(strconv.Itoa(f.id))
	w.WriteString("] ")
	w.WriteString(f.name)
	w.WriteString(": ")
	w.WriteString(f.role.String())
	if !f.role.Known() {
		w.WriteString("(")
		w.WriteString(strconv.FormatUint(uint64(f.role), 10))
		w.WriteString(")")
	}

	if f.flagString != "" {
		w.WriteString(" [")
		w.WriteString(f.flagString)
		w.WriteString("]")
	}
	if f.typeString != "" {
		w.WriteString(" (")
		w.WriteString(f.typeString)
		w.WriteString(")")
	}
	indent.writeNewLine(w)

	indent.push()
	defer indent.pop()

	for _, c := range f.columns {
		printColumn(w, c, indent)
	}

	for _, alias := range f.aliasColumns {
		indent.writeTo(w)
		w.WriteString("alias column -> physical column ")
		w.WriteString(strconv.Itoa(alias.PhysicalColumnID))
		indent.writeNewLine(w)
	}
}

func printColumn(w io.StringWriter, c *Column, indent *printIndent) {
	indent.writeTo(w)
	w.WriteString("column ")
	w.WriteString(c.String())
	if flags := c.flags.String(); flags != "" {
		w.WriteString(" [")
		w.WriteString(flags)
		w.WriteString("]")
	}
	indent.writeNewLine(w)

	indent.push()
	defer indent.pop()

	for _, cluster := range c.clusters {
		indent.writeTo(w)
		w.WriteString("cluster ")
		w.WriteString(strconv.Itoa(cluster.ClusterID))
		w.WriteString(": FirstEntry: ")
		w.WriteString(strconv.FormatUint(cluster.FirstEntryNumber, 10))
		w.WriteString(", NEntries: ")
		w.WriteString(strconv.FormatUint(cluster.EntryCount, 10))
		w.WriteString(", FeatureFlag: ")
		w.WriteString(strconv.Itoa(int(cluster.FeatureFlag)))
		w.WriteString(", Pages: ")
		w.WriteString(strconv.Itoa(len(cluster.Pages)))
		indent.writeNewLine(w)

		indent.push()
		for _, page := range cluster.Pages {
			indent.writeTo(w)
			w.WriteString("page ")
			w.WriteString(page.String())
			indent.writeNewLine(w)
		}
		indent.pop()
	}
}

type printIndent struct {
	pattern string
	newline string
	repeat  int
}

func (i *printIndent) push() {
	i.repeat++
}

func (i *printIndent) pop() {
	i.repeat--
}

func (i *printIndent) writeTo(w io.StringWriter) {
	if i.pattern != "" {
		for n := i.repeat; n > 0; n-- {
			w.WriteString(i.pattern)
		}
	}
}

func (i *printIndent) writeNewLine(w io.StringWriter) {
	if i.newline != "" {
		w.WriteString(i.newline)
	}
}

type printWriter struct {
	writer io.Writer
	err    error
}

func (w *printWriter) Write(b []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.writer.Write(b)
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *printWriter) WriteString(s string) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := io.WriteString(w.writer, s)
	if err != nil {
		w.err = err
	}
	return n, err
}

var (
	_ io.StringWriter = (*printWriter)(nil)
)
