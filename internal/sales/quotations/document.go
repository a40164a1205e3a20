package quotations

import (
	"context"
	"sort"
	"strings"
	"time"

	salesshared "github.com/jag-erp/jag-erp/internal/sales/shared"
)

// Seller is the issuing business printed in the document header.
type Seller struct {
	Name    string
	Address string
	GSTIN   string
	State   string
}

type DocumentLine struct {
	SerialNo        int
	ProductCode     string
	ProductName     string
	HSNCode         string
	ImageURL        string
	UOM             string
	Quantity        float64
	Rate            float64
	DiscountPercent float64
	GSTPercentage   float64
	TaxableAmount   float64
	GSTAmount       float64
	LineTotal       float64
}

// SiteGroup collects the lines delivered to one site. Lines without a site
// share a group with an empty SiteName.
type SiteGroup struct {
	SiteName string
	Location string
	Lines    []DocumentLine
	Subtotal float64
}

// Document is the printable view of a quotation.
type Document struct {
	QuotationID        int64
	QuotationNo        string
	Final              bool
	UpdatedAt          time.Time
	QuotationDate      time.Time
	ValidTill          *time.Time
	Seller             Seller
	CustomerName       string
	CompanyName        string
	GSTIN              string
	BillingAddress     []string
	SiteName           string
	SalespersonName    string
	PaymentTerms       string
	Groups             []SiteGroup
	Subtotal           float64
	TotalDiscount      float64
	AdditionalDiscount float64
	GSTBreakup         salesshared.GSTBreakup
	IntraState         bool
	RoundOff           float64
	GrandTotal         float64
	AmountInWords      string
	Terms              []string
}

// CacheKey identifies a rendering of the document. It changes whenever the
// stored quotation does.
func (d *Document) CacheKey() string {
	return d.QuotationNo + "@" + d.UpdatedAt.UTC().Format(time.RFC3339Nano)
}

// Document assembles the printable view of a quotation visible to the actor.
func (s *Service) Document(ctx context.Context, id int64) (*Document, error) {
	detail, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildDocument(detail, s.cfg.Seller, s.cfg.SellerHomeState), nil
}

func buildDocument(q *QuotationDetail, seller Seller, sellerHomeState string) *Document {
	if seller.State == "" {
		seller.State = sellerHomeState
	}
	doc := &Document{
		QuotationID:        q.ID,
		QuotationNo:        q.QuotationNo,
		Final:              q.IsFinal(),
		UpdatedAt:          q.UpdatedAt,
		QuotationDate:      q.QuotationDate,
		ValidTill:          q.ValidTill,
		Seller:             seller,
		SalespersonName:    deref(q.SalespersonName),
		PaymentTerms:       deref(q.PaymentTerms),
		Subtotal:           q.Subtotal,
		TotalDiscount:      q.TotalDiscount,
		AdditionalDiscount: q.AdditionalDiscount,
		GSTBreakup:         q.GSTBreakup,
		RoundOff:           q.RoundOff,
		GrandTotal:         q.GrandTotal,
		AmountInWords:      salesshared.AmountInWords(q.GrandTotal),
	}
	if c := q.Customer; c != nil {
		doc.CustomerName = c.CustomerName
		doc.CompanyName = c.CompanyName
		doc.GSTIN = c.GSTIN
		doc.BillingAddress = addressLines(c.BillingAddress.Line1, c.BillingAddress.Line2, c.BillingAddress.City,
			joinNonEmpty(" - ", c.BillingAddress.State, c.BillingAddress.Pincode))
		doc.IntraState = salesshared.IsIntraState(c.BillingState(), sellerHomeState)
	}
	if q.Site != nil {
		doc.SiteName = q.Site.SiteName
	}
	doc.Groups = groupBySite(q.Items)

	if q.TermsTemplate != nil {
		doc.Terms = append(doc.Terms, splitTerms(q.TermsTemplate.Content)...)
	}
	if q.CustomTerms != nil {
		doc.Terms = append(doc.Terms, splitTerms(*q.CustomTerms)...)
	}
	return doc
}

func groupBySite(items []LineDetail) []SiteGroup {
	index := map[string]int{}
	var groups []SiteGroup
	for i, item := range items {
		var name, location string
		if item.Site != nil {
			name = item.Site.SiteName
			location = item.Site.Location
		}
		pos, ok := index[name]
		if !ok {
			pos = len(groups)
			index[name] = pos
			groups = append(groups, SiteGroup{SiteName: name, Location: location})
		}
		g := &groups[pos]
		g.Lines = append(g.Lines, DocumentLine{
			SerialNo:        i + 1,
			ProductCode:     item.Snapshot.ProductCode,
			ProductName:     item.Snapshot.ProductName,
			HSNCode:         item.Snapshot.HSNCode,
			ImageURL:        deref(item.Snapshot.ProductImageURL),
			UOM:             item.Snapshot.UOM,
			Quantity:        item.Quantity,
			Rate:            item.Rate,
			DiscountPercent: item.DiscountPercent,
			GSTPercentage:   item.Snapshot.GSTPercentage,
			TaxableAmount:   item.TaxableAmount,
			GSTAmount:       item.GSTAmount,
			LineTotal:       item.LineTotal,
		})
		g.Subtotal = salesshared.Round2(g.Subtotal + item.LineTotal)
	}
	// Unassigned lines print last.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].SiteName != "" && groups[j].SiteName == ""
	})
	return groups
}

func splitTerms(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func addressLines(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	return strings.Join(addressLines(parts...), sep)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
