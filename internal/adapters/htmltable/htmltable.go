// Package htmltable binds a sortable.Table to existing <table> markup: it reads
// headers and rows from thead/tbody and writes the sorted order back.
package htmltable

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"babis/internal/domain/sortable"
)

// Errors returned by Parse.
var (
	ErrNoTable = errors.New("no matching <table> element")
	ErrNoBody  = errors.New("table has no <tbody>")
)

// Classes that mark a row as inactive, besides an inline line-through style.
var inactiveClasses = []string{"inactive", "inactive-client"}

// Options selects the table inside a document.
type Options struct {
	TableClass string // empty selects the first table
}

// Binding ties a parsed document to the sortable table built from it.
type Binding struct {
	Table *sortable.Table

	doc     *html.Node
	tbody   *html.Node
	headers []*html.Node
	rows    map[string]*html.Node
}

// Parse reads an HTML document and builds a table from its thead and tbody.
// Row IDs are the rows' original positions.
// PRE: r yields an HTML document
// POST: every <tr> in tbody is represented by exactly one Row
func Parse(r io.Reader, opts Options) (*Binding, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tableNode := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Table && (opts.TableClass == "" || hasClass(n, opts.TableClass))
	})
	if tableNode == nil {
		return nil, ErrNoTable
	}
	tbody := child(tableNode, atom.Tbody)
	if tbody == nil {
		return nil, ErrNoBody
	}

	b := &Binding{
		Table: &sortable.Table{},
		doc:   doc,
		tbody: tbody,
		rows:  make(map[string]*html.Node),
	}

	if thead := child(tableNode, atom.Thead); thead != nil {
		if tr := child(thead, atom.Tr); tr != nil {
			for c := tr.FirstChild; c != nil; c = c.NextSibling {
				if c.DataAtom != atom.Th && c.DataAtom != atom.Td {
					continue
				}
				b.headers = append(b.headers, c)
				b.Table.Headers = append(b.Table.Headers, sortable.Header{
					Label:   strings.TrimSpace(textContent(c)),
					Classes: strings.Fields(attr(c, "class")),
				})
			}
		}
	}

	i := 0
	for c := tbody.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom != atom.Tr {
			continue
		}
		id := strconv.Itoa(i)
		i++
		row := sortable.Row{ID: id, Inactive: isInactive(c)}
		for td := c.FirstChild; td != nil; td = td.NextSibling {
			if td.DataAtom == atom.Td || td.DataAtom == atom.Th {
				row.Cells = append(row.Cells, sortable.Cell{Text: textContent(td)})
			}
		}
		b.rows[id] = c
		b.Table.Rows = append(b.Table.Rows, row)
	}

	return b, nil
}

// Sync writes the table state back into the document: header classes,
// indicator visibility and row order.
func (b *Binding) Sync() {
	for i, th := range b.headers {
		if i >= len(b.Table.Headers) {
			break
		}
		h := b.Table.Headers[i]
		setAttr(th, "class", strings.Join(h.Classes, " "))
		if h.Indicator == nil {
			continue
		}
		icon := find(th, func(n *html.Node) bool { return n.DataAtom == atom.I && hasClass(n, "sort-icon") })
		if icon == nil {
			icon = &html.Node{Type: html.ElementNode, Data: "i", DataAtom: atom.I}
			setAttr(icon, "class", "fas fa-arrow-up sort-icon")
			th.AppendChild(icon)
		}
		opacity := "0"
		if h.Indicator.Visible {
			opacity = "1"
		}
		setAttr(icon, "style", "opacity: "+opacity)
	}

	for _, r := range b.Table.Rows {
		tr, ok := b.rows[r.ID]
		if !ok {
			continue
		}
		b.tbody.RemoveChild(tr)
		b.tbody.AppendChild(tr)
	}
}

// Render writes the whole document.
func (b *Binding) Render(w io.Writer) error {
	return html.Render(w, b.doc)
}

// SortDocument parses r, sorts the selected table by col and renders the result to w.
func SortDocument(r io.Reader, w io.Writer, col int, dir sortable.Direction, opts Options, sortOpts sortable.Options) error {
	b, err := Parse(r, opts)
	if err != nil {
		return err
	}
	sortOpts.SortBy = col
	sortOpts.SortOrder = dir
	sortable.New(b.Table, sortOpts)
	b.Sync()
	return b.Render(w)
}

func isInactive(tr *html.Node) bool {
	if lineThrough(tr) {
		return true
	}
	for _, c := range inactiveClasses {
		if hasClass(tr, c) {
			return true
		}
	}
	if td := child(tr, atom.Td); td != nil && lineThrough(td) {
		return true
	}
	return false
}

func lineThrough(n *html.Node) bool {
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(style, "text-decoration:line-through")
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func child(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
