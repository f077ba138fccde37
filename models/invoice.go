package models

// CanonicalInvoice is the normalized, shape-independent representation of one
// billable record. It is rebuilt from the raw source on every lookup and is
// never cached or mutated between generations.
type CanonicalInvoice struct {
	InvoiceID    string     `json:"invoice_id"`
	CustomerName string     `json:"customer_name"`
	Date         string     `json:"date"`
	CompanyName  string     `json:"company_name"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
	Items        []LineItem `json:"items"`
	GrandTotal   float64    `json:"grand_total"`
}

// LineItem is one priced product entry within an invoice. Total equals
// Quantity * Price unless the source supplied an explicit total, in which
// case the supplied value wins.
type LineItem struct {
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

// TemplateContext flattens the invoice into the binding map consumed by the
// template engine. Keys match the placeholder names templates use.
func (inv *CanonicalInvoice) TemplateContext() map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, map[string]interface{}{
			"product_name": it.ProductName,
			"quantity":     it.Quantity,
			"price":        it.Price,
			"total":        it.Total,
		})
	}
	return map[string]interface{}{
		"invoice_id":    inv.InvoiceID,
		"customer_name": inv.CustomerName,
		"date":          inv.Date,
		"company_name":  inv.CompanyName,
		"address":       inv.Address,
		"phone":         inv.Phone,
		"email":         inv.Email,
		"items":         items,
		"grand_total":   inv.GrandTotal,
	}
}
