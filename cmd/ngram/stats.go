package main

import (
	"cmp"
	"fmt"
	"io"
	"strconv"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ieee0824/ngram-go/language"
)

type gramCount struct {
	context string
	next    string
	count   int
}

// byCount orders ascending by count, then descending by text, so the heap
// root is always the entry to evict first.
func byCount(x, y gramCount) int {
	if c := cmp.Compare(x.count, y.count); c != 0 {
		return c
	}
	if c := cmp.Compare(y.context, x.context); c != 0 {
		return c
	}
	return cmp.Compare(y.next, x.next)
}

// topGrams returns the k most frequent (context, next) pairs of m, most
// frequent first. Ties are broken alphabetically.
func topGrams(m *language.Model, k int) []gramCount {
	if k <= 0 {
		return nil
	}
	grams := heap.NewWith(byCount)
	m.Each(func(context []string, next string, count int) {
		grams.Push(gramCount{context: language.Join(context), next: next, count: count})
		if grams.Size() > k {
			grams.Pop()
		}
	})

	out := make([]gramCount, grams.Size())
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = grams.Pop()
	}
	return out
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func StatsHandler(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Sync() //nolint:errcheck

	sess, err := e.session()
	if err != nil {
		return err
	}

	var data [][]string
	for n := 2; n <= e.cfg.MaxOrder; n++ {
		st, err := sess.Stats(n)
		if err != nil {
			return err
		}
		data = append(data, []string{
			strconv.Itoa(st.Order),
			strconv.Itoa(st.Contexts),
			strconv.Itoa(st.Windows),
			strconv.Itoa(st.Vocabulary),
		})
	}

	table := newTable(cmd.OutOrStdout(), []string{"ORDER", "CONTEXTS", "WINDOWS", "VOCABULARY"})
	table.AppendBulk(data)
	table.Render()

	top, _ := cmd.Flags().GetInt("top")
	if top <= 0 {
		return nil
	}
	order, _ := cmd.Flags().GetInt("order")
	m, err := sess.Model(order)
	if err != nil {
		return err
	}

	data = data[:0]
	for _, g := range topGrams(m, top) {
		data = append(data, []string{g.context, g.next, strconv.Itoa(g.count)})
	}
	fmt.Fprintln(cmd.OutOrStdout())
	table = newTable(cmd.OutOrStdout(), []string{"CONTEXT", "NEXT", "COUNT"})
	table.AppendBulk(data)
	table.Render()
	return nil
}
