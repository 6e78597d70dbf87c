package delivery

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/devsergyo/sales-commissions/internal/reports"
	"github.com/devsergyo/sales-commissions/pkg/mailer"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sellerSubjectPrefix = "Relatório Diário de Vendas"
	adminSubjectPrefix  = "Resumo de Vendas Diárias"
)

// Renderer turns envelopes into HTML emails.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

type sellerView struct {
	Title  string
	Date   string
	Year   int
	Report *reports.SellerReport
}

type adminView struct {
	Title  string
	Date   string
	Year   int
	Report *reports.AdminReport
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("emails").Funcs(template.FuncMap{
		"brl": mailer.FormatBRL,
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, now: time.Now}, nil
}

func (r *Renderer) Render(envelope Envelope) (mailer.Message, error) {
	if err := envelope.Validate(); err != nil {
		return mailer.Message{}, err
	}

	var (
		name    string
		date    types.Date
		subject string
		view    any
	)
	year := r.now().Year()
	switch envelope.Kind {
	case reports.KindSellerDaily:
		date = envelope.Report.Seller.Date
		subject = fmt.Sprintf("%s - %s", sellerSubjectPrefix, date.Display())
		name = "seller_daily.html"
		view = sellerView{Title: subject, Date: date.Display(), Year: year, Report: envelope.Report.Seller}
	case reports.KindAdminDaily:
		date = envelope.Report.Admin.Date
		subject = fmt.Sprintf("%s - %s", adminSubjectPrefix, date.Display())
		name = "admin_daily.html"
		view = adminView{Title: subject, Date: date.Display(), Year: year, Report: envelope.Report.Admin}
	}

	var body bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&body, name, view); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return mailer.Message{To: envelope.Recipient, Subject: subject, HTMLBody: body.String()}, nil
}
