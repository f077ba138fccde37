package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"invoicegen-backend/models"
)

var (
	// ErrNoInvoiceIDColumn means a flat table has no invoice_id column, so no
	// row can be addressed by the pipeline.
	ErrNoInvoiceIDColumn = errors.New("dataset has no invoice_id column")
	// ErrEmptyDataset means the file parsed but contains no records.
	ErrEmptyDataset = errors.New("dataset contains no records")
	// ErrUnrecognizedShape means the file is neither a flat table nor a list
	// of invoice objects.
	ErrUnrecognizedShape = errors.New("unrecognized data shape")
)

// scalarColumns are the top-level invoice fields copied verbatim from a flat
// table when the column exists.
var scalarColumns = []string{"customer_name", "date", "company_name", "address", "phone", "email"}

// Source is one loaded dataset. The two raw shapes (flat table, object list)
// each implement it, so the pipeline dispatches once at ingestion and never
// branches on the source format again.
type Source interface {
	// Validate reports whether the raw shape carries the fields the pipeline
	// requires. It is checked before any normalization is attempted.
	Validate() error
	// InvoiceIDs returns every addressable invoice id in source order. Rows
	// without a resolvable id are excluded, not errors.
	InvoiceIDs() []string
	// Invoice normalizes and returns the record with the given id, using
	// exact string matching.
	Invoice(id string) (*models.CanonicalInvoice, bool)
	// Invoices normalizes every addressable record in source order.
	Invoices() []*models.CanonicalInvoice
}

// FilterIDs returns the ids containing term, case-insensitively. An empty
// term matches everything.
func FilterIDs(ids []string, term string) []string {
	if term == "" {
		return ids
	}
	term = strings.ToLower(term)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.Contains(strings.ToLower(id), term) {
			out = append(out, id)
		}
	}
	return out
}

// tabularSource is a row-oriented table: ordered named columns, one string
// cell per row and column.
type tabularSource struct {
	columns []string
	rows    [][]string
	colIdx  map[string]int
}

func newTabularSource(columns []string, rows [][]string) *tabularSource {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return &tabularSource{columns: columns, rows: rows, colIdx: idx}
}

func (s *tabularSource) Validate() error {
	if _, ok := s.colIdx["invoice_id"]; !ok {
		return ErrNoInvoiceIDColumn
	}
	var missing []string
	for _, col := range []string{"customer_name", "date"} {
		if _, ok := s.colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	if len(s.rows) == 0 {
		return ErrEmptyDataset
	}
	return nil
}

func (s *tabularSource) cell(row []string, col string) string {
	i, ok := s.colIdx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (s *tabularSource) InvoiceIDs() []string {
	ids := make([]string, 0, len(s.rows))
	for _, row := range s.rows {
		if id := s.cell(row, "invoice_id"); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *tabularSource) Invoice(id string) (*models.CanonicalInvoice, bool) {
	for _, row := range s.rows {
		if s.cell(row, "invoice_id") == id {
			return s.normalizeRow(row), true
		}
	}
	return nil, false
}

func (s *tabularSource) Invoices() []*models.CanonicalInvoice {
	out := make([]*models.CanonicalInvoice, 0, len(s.rows))
	for _, row := range s.rows {
		if s.cell(row, "invoice_id") == "" {
			continue
		}
		out = append(out, s.normalizeRow(row))
	}
	return out
}

// normalizeRow converts one flat row into the canonical shape. Columns named
// item_<index>_<field> are grouped by index, in first-appearance order of
// each distinct index (natural column order, not numeric sort).
func (s *tabularSource) normalizeRow(row []string) *models.CanonicalInvoice {
	inv := &models.CanonicalInvoice{
		InvoiceID:    s.cell(row, "invoice_id"),
		CustomerName: s.cell(row, "customer_name"),
		Date:         s.cell(row, "date"),
		CompanyName:  s.cell(row, "company_name"),
		Address:      s.cell(row, "address"),
		Phone:        s.cell(row, "phone"),
		Email:        s.cell(row, "email"),
	}

	var order []string
	groups := make(map[string]map[string]string)
	for i, col := range s.columns {
		if !strings.HasPrefix(col, "item_") {
			continue
		}
		parts := strings.Split(col, "_")
		if len(parts) < 3 {
			continue
		}
		index := parts[1]
		field := strings.Join(parts[2:], "_")
		if _, ok := groups[index]; !ok {
			groups[index] = make(map[string]string)
			order = append(order, index)
		}
		if i < len(row) {
			groups[index][field] = strings.TrimSpace(row[i])
		} else {
			groups[index][field] = ""
		}
	}

	for _, index := range order {
		inv.Items = append(inv.Items, buildLineItem(groups[index]))
	}
	inv.GrandTotal = sumItemTotals(inv.Items)
	return inv
}

// buildLineItem derives the item total from qty * price unless the source
// carried an explicit, non-empty total cell. Presence is checked first; the
// supplied value is never recomputed.
func buildLineItem(fields map[string]string) models.LineItem {
	item := models.LineItem{
		ProductName: fields["name"],
		Quantity:    parseNumber(fields["qty"]),
		Price:       parseNumber(fields["price"]),
	}
	if total, ok := fields["total"]; ok && total != "" {
		item.Total = parseNumber(total)
	} else {
		item.Total = item.Quantity * item.Price
	}
	return item
}

// sumItemTotals recomputes the invoice grand total from the current item
// totals. Source-provided grand totals are always discarded so the value can
// never drift from the items.
func sumItemTotals(items []models.LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Total
	}
	return sum
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// objectListSource is a list of loosely-typed nested objects, each already
// carrying its own items list.
type objectListSource struct {
	records []interface{}
}

func (s *objectListSource) Validate() error {
	if len(s.records) == 0 {
		return ErrEmptyDataset
	}
	for i, raw := range s.records {
		rec, ok := raw.(map[string]interface{})
		if !ok {
			return fmt.Errorf("record %d is not an object", i)
		}
		var missing []string
		for _, key := range []string{"invoice_id", "customer_name", "date", "items"} {
			if _, ok := rec[key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("record %d missing keys: %s", i, strings.Join(missing, ", "))
		}
		items, ok := rec["items"].([]interface{})
		if !ok {
			return fmt.Errorf("record %d: items must be a list", i)
		}
		for j, rawItem := range items {
			item, ok := rawItem.(map[string]interface{})
			if !ok {
				return fmt.Errorf("record %d item %d: invalid item structure", i, j)
			}
			for _, key := range []string{"product_name", "quantity", "price"} {
				if _, ok := item[key]; !ok {
					return fmt.Errorf("record %d item %d: invalid item structure", i, j)
				}
			}
		}
	}
	return nil
}

func (s *objectListSource) InvoiceIDs() []string {
	ids := make([]string, 0, len(s.records))
	for _, raw := range s.records {
		rec, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if id := stringValue(rec["invoice_id"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *objectListSource) Invoice(id string) (*models.CanonicalInvoice, bool) {
	for _, raw := range s.records {
		rec, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if stringValue(rec["invoice_id"]) == id {
			return normalizeObject(rec), true
		}
	}
	return nil, false
}

func (s *objectListSource) Invoices() []*models.CanonicalInvoice {
	out := make([]*models.CanonicalInvoice, 0, len(s.records))
	for _, raw := range s.records {
		rec, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if stringValue(rec["invoice_id"]) == "" {
			continue
		}
		out = append(out, normalizeObject(rec))
	}
	return out
}

// normalizeObject converts one nested object into the canonical shape. Items
// are used as-is except for the total backfill; the invoice grand total is
// always recomputed from the item totals even when the source supplied one.
func normalizeObject(rec map[string]interface{}) *models.CanonicalInvoice {
	inv := &models.CanonicalInvoice{
		InvoiceID:    stringValue(rec["invoice_id"]),
		CustomerName: stringValue(rec["customer_name"]),
		Date:         stringValue(rec["date"]),
		CompanyName:  stringValue(rec["company_name"]),
		Address:      stringValue(rec["address"]),
		Phone:        stringValue(rec["phone"]),
		Email:        stringValue(rec["email"]),
	}

	items, _ := rec["items"].([]interface{})
	for _, rawItem := range items {
		m, ok := rawItem.(map[string]interface{})
		if !ok {
			continue
		}
		item := models.LineItem{
			ProductName: stringValue(m["product_name"]),
			Quantity:    numberValue(m["quantity"]),
			Price:       numberValue(m["price"]),
		}
		if total, ok := m["total"]; ok {
			item.Total = numberValue(total)
		} else {
			item.Total = item.Quantity * item.Price
		}
		inv.Items = append(inv.Items, item)
	}
	inv.GrandTotal = sumItemTotals(inv.Items)
	return inv
}

// stringValue renders a loosely-typed value the way it would read in the
// source file. Whole-number floats keep their integer form so numeric ids
// like 1001 match the string "1001".
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func numberValue(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		return parseNumber(t)
	default:
		return 0
	}
}
