package extract

import "invomatch/internal/domain"

// BuildPrompt returns the extraction instruction for one document. The
// schema it spells out is the same one the response is validated against:
// the model is told exactly which fields exist and that everything else is
// noise.
func BuildPrompt(kind domain.DocumentKind) string {
	docName := "invoice"
	numberHint := "the invoice number"
	if kind == domain.KindPurchaseOrder {
		docName = "purchase order"
		numberHint = "the PO number / purchase order reference"
	}

	return `You are an expert accounts payable specialist. Analyze the provided ` + docName + ` and extract its key fields.

Extract:
- document_number: ` + numberHint + `
- document_date: the document's issue date, exactly as printed
- vendor_name: the vendor / supplier name
- line_items: every line item with description, quantity, unit_price and line_total
- subtotal, tax, total: the money totals, exactly as printed (keep currency symbols and separators)

It is critical that you extract EVERY line item. Do not skip, summarize, or merge items.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation. The JSON structure must be:
{
  "document_number": "",
  "document_date": "",
  "vendor_name": "",
  "line_items": [
    {"description": "", "quantity": "", "unit_price": "", "line_total": ""}
  ],
  "subtotal": "",
  "tax": "",
  "total": ""
}

All values are strings copied from the document. If a field is not present on the document, omit the key entirely. Never invent a value and never substitute "0" or "N/A".`
}
