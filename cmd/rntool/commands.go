package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/segmentio/rntuple-go"
	"github.com/segmentio/rntuple-go/format"
	"github.com/segmentio/rntuple-go/profile"
	"github.com/segmentio/rntuple-go/sink"
	"github.com/segmentio/rntuple-go/sink/postgres"
)

func indexCommand(ctx context.Context, cmd *command, path string, f *format.File) error {
	indexes, err := cmd.indexFile(f)
	if err != nil {
		return err
	}

	return cmd.output(path, ".tree.txt", func(w io.Writer) error {
		for _, name := range sortedNames(indexes) {
			if err := rntuple.Print(w, indexes[name]); err != nil {
				return err
			}
		}
		return nil
	})
}

func layoutCommand(ctx context.Context, cmd *command, path string, f *format.File) error {
	codec, err := rntuple.LookupCodec(cmd.config.Compression)
	if err != nil {
		return err
	}

	indexes, err := cmd.indexFile(f)
	if err != nil {
		return err
	}

	p, err := rntuple.RenderLayout(f, indexes,
		rntuple.UniqueFields(cmd.config.UniqueFields),
		rntuple.UniqueColumns(cmd.config.UniqueColumns),
	)
	if err != nil {
		return err
	}

	cmd.metrics.RecordGaps(p.GapBytes())
	for _, gap := range p.Gaps {
		pdebugf("%s: %d bytes not covered at offset %d", f.Name, gap.Size, gap.Offset)
	}

	doc := profile.NewDocument(p, profile.Name(f.Name))

	return cmd.output(path, ".layout.json"+codec.Extension(), func(w io.Writer) error {
		return profile.WriteDocument(w, doc, codec)
	})
}

func pagesCommand(ctx context.Context, cmd *command, path string, f *format.File) error {
	indexes, err := cmd.indexFile(f)
	if err != nil {
		return err
	}

	if cmd.csv {
		return cmd.output(path, ".pages.csv", func(w io.Writer) error {
			return writePagesCSV(w, indexes)
		})
	}
	return cmd.output(path, ".pages.txt", func(w io.Writer) error {
		writePagesTable(w, indexes)
		return nil
	})
}

func writePagesCSV(w io.Writer, indexes map[string]*rntuple.Index) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ColumnType", "PageSize", "NumElements"}); err != nil {
		return err
	}

	for _, name := range sortedNames(indexes) {
		for _, stat := range rntuple.PageStats(indexes[name]) {
			record := []string{
				stat.ColumnType.String(),
				strconv.FormatInt(stat.Size, 10),
				strconv.FormatInt(stat.Elements, 10),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func writePagesTable(w io.Writer, indexes map[string]*rntuple.Index) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"RNTuple", "Column", "Cluster", "Type", "Size", "Elements", "Bytes/Element"})
	table.SetAutoFormatHeaders(false)

	for _, name := range sortedNames(indexes) {
		for _, stat := range rntuple.PageStats(indexes[name]) {
			table.Append([]string{
				name,
				strconv.Itoa(stat.Column),
				strconv.Itoa(stat.Cluster),
				stat.ColumnType.String(),
				strconv.FormatInt(stat.Size, 10),
				strconv.FormatInt(stat.Elements, 10),
				strconv.FormatFloat(stat.BytesPerElement(), 'f', 2, 64),
			})
		}
	}

	table.Render()
}

// rowStore is implemented by *postgres.Sink.
type rowStore interface {
	Store(ctx context.Context, rows *sink.Rows) (map[string]int, error)
}

func storeSetup(ctx context.Context, cmd *command) (func(), error) {
	if cmd.config.DatabaseURL == "" {
		return nil, fmt.Errorf("no database configured, use -database or database_url")
	}

	s, err := postgres.New(ctx, cmd.config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cmd.store = s
	return func() { s.Close() }, nil
}

func storeCommand(ctx context.Context, cmd *command, path string, f *format.File) error {
	indexes, err := cmd.indexFile(f)
	if err != nil {
		return err
	}

	rows, err := sink.Project(cmd.config.Dataset, f, indexes)
	if err != nil {
		return err
	}

	inserted, err := cmd.store.Store(ctx, rows)
	if err != nil {
		return err
	}

	for table, n := range inserted {
		cmd.metrics.RecordRows(table, n)
		pdebugf("%s: inserted %d rows into %s", path, n, table)
	}
	return nil
}

func sortedNames(indexes map[string]*rntuple.Index) []string {
	names := make([]string, 0, len(indexes))
	for name := range indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
