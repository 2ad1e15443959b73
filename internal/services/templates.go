package services

import (
	"fmt"
	"time"

	"github.com/quotemint/billing-service/internal/constants"
	"github.com/quotemint/billing-service/internal/models"
)

// reminderData feeds the dunning templates.
type reminderData struct {
	ClientName    string
	InvoiceNumber string
	AmountCents   int64
	DueDate       time.Time
	DaysOverdue   int
	CompanyName   string
	PaymentURL    string
}

// followUpData feeds the follow-up templates.
type followUpData struct {
	ClientName  string
	ProjectName string
	CompanyName string
	ShareURL    string
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100.0)
}

const reminderEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333333; background-color: #f4f4f4; margin: 0; padding: 0; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #dddddd; border-radius: 8px; }
.header { font-size: 22px; font-weight: bold; color: %s; margin-bottom: 15px; }
.amount { font-size: 18px; font-weight: bold; }
.button-container { text-align: center; margin: 30px 0; }
.button { background-color: #2f6f4f; color: white !important; padding: 12px 25px; text-align: center; text-decoration: none; display: inline-block; border-radius: 5px; font-weight: bold; }
.footer { margin-top: 20px; font-size: 12px; color: #777777; text-align: center; }
p { margin-bottom: 15px; }
</style>
</head>
<body>
<div class="container">
<p class="header">%s</p>
<p>Hi %s,</p>
%s
<p><span class="amount">Amount due: %s</span><br>Invoice %s, due %s (%d day(s) overdue).</p>
<div class="button-container">
  <a href="%s" class="button">View &amp; Pay Invoice</a>
</div>
<div class="footer">%s</div>
</div>
</body>
</html>`

// renderReminderEmail maps a dunning template kind to a rendered
// subject/plain/html triple. The enum is closed: an unknown kind is an
// error the sweep records, never a silent skip.
func renderReminderEmail(kind models.ReminderTemplate, d reminderData) (subject, plain, html string, err error) {
	amount := formatCents(d.AmountCents)
	due := d.DueDate.Format("January 2, 2006")

	switch kind {
	case models.TemplateFriendlyReminder:
		subject = fmt.Sprintf("Friendly reminder: invoice %s from %s", d.InvoiceNumber, d.CompanyName)
		plain = fmt.Sprintf(
			"Hi %s,\n\nJust a friendly reminder that invoice %s for %s was due on %s. You can view and pay it here: %s\n\nThanks,\n%s",
			d.ClientName, d.InvoiceNumber, amount, due, d.PaymentURL, d.CompanyName,
		)
		html = fmt.Sprintf(reminderEmailHTML,
			"#2f6f4f", "Just a quick reminder", d.ClientName,
			fmt.Sprintf("<p>Invoice <strong>%s</strong> was due on %s. If you've already sent payment, please disregard this note.</p>", d.InvoiceNumber, due),
			amount, d.InvoiceNumber, due, d.DaysOverdue, d.PaymentURL, d.CompanyName)

	case models.TemplateFirmReminder:
		subject = fmt.Sprintf("Second notice: invoice %s is %d days past due", d.InvoiceNumber, d.DaysOverdue)
		plain = fmt.Sprintf(
			"Hi %s,\n\nInvoice %s for %s is now %d days past due (due %s). Please arrange payment at your earliest convenience: %s\n\n%s",
			d.ClientName, d.InvoiceNumber, amount, d.DaysOverdue, due, d.PaymentURL, d.CompanyName,
		)
		html = fmt.Sprintf(reminderEmailHTML,
			"#b7791f", "Your invoice is past due", d.ClientName,
			fmt.Sprintf("<p>Invoice <strong>%s</strong> is now <strong>%d days past due</strong>. Please arrange payment at your earliest convenience.</p>", d.InvoiceNumber, d.DaysOverdue),
			amount, d.InvoiceNumber, due, d.DaysOverdue, d.PaymentURL, d.CompanyName)

	case models.TemplateFinalNotice:
		subject = fmt.Sprintf("Final notice: invoice %s from %s", d.InvoiceNumber, d.CompanyName)
		plain = fmt.Sprintf(
			"Hi %s,\n\nThis is a final notice for invoice %s (%s), which is %d days past due. Please pay immediately to avoid interruption of service: %s\n\n%s",
			d.ClientName, d.InvoiceNumber, amount, d.DaysOverdue, d.PaymentURL, d.CompanyName,
		)
		html = fmt.Sprintf(reminderEmailHTML,
			"#d9534f", "Final notice", d.ClientName,
			fmt.Sprintf("<p>This is a <strong>final notice</strong> for invoice <strong>%s</strong>, now %d days past due. Please pay immediately.</p>", d.InvoiceNumber, d.DaysOverdue),
			amount, d.InvoiceNumber, due, d.DaysOverdue, d.PaymentURL, d.CompanyName)

	default:
		return "", "", "", fmt.Errorf("unknown reminder template %q", kind)
	}
	return subject, plain, html, nil
}

const followUpEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f4f4f4; margin: 0; padding: 0; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background: #fff; border: 1px solid #ddd; border-radius: 8px; }
.header { font-size: 22px; font-weight: bold; color: #2b4f81; margin-bottom: 15px; }
.button-container { text-align: center; margin: 30px 0; }
.button { background-color: #2b4f81; color: white !important; padding: 12px 25px; text-decoration: none; display: inline-block; border-radius: 5px; font-weight: bold; }
.footer { margin-top: 20px; font-size: 12px; color: #777; text-align: center; }
</style>
</head>
<body>
<div class="container">
<p class="header">%s</p>
<p>Hi %s,</p>
%s
<div class="button-container">
  <a href="%s" class="button">%s</a>
</div>
<div class="footer">%s</div>
</div>
</body>
</html>`

// renderFollowUpEmail renders the fixed subject/body pair for each
// follow-up type.
func renderFollowUpEmail(t models.FollowUpType, d followUpData) (subject, plain, html string, err error) {
	switch t {
	case models.FollowUpQuoteReminder:
		subject = fmt.Sprintf("Your quote from %s is waiting", d.CompanyName)
		plain = fmt.Sprintf(
			"Hi %s,\n\nJust checking in — the quote for %s is still waiting for your review. You can view and approve it here: %s\n\n%s",
			d.ClientName, d.ProjectName, d.ShareURL, d.CompanyName,
		)
		html = fmt.Sprintf(followUpEmailHTML,
			"Your quote is waiting", d.ClientName,
			fmt.Sprintf("<p>Just checking in — the quote for <strong>%s</strong> is still waiting for your review.</p>", d.ProjectName),
			d.ShareURL, "Review Quote", d.CompanyName)

	case models.FollowUpQuoteExpiring:
		subject = fmt.Sprintf("Your quote from %s expires soon", d.CompanyName)
		plain = fmt.Sprintf(
			"Hi %s,\n\nHeads up: the quote for %s expires in the next couple of days. Approve it before it lapses: %s\n\n%s",
			d.ClientName, d.ProjectName, d.ShareURL, d.CompanyName,
		)
		html = fmt.Sprintf(followUpEmailHTML,
			"Your quote expires soon", d.ClientName,
			fmt.Sprintf("<p>Heads up: the quote for <strong>%s</strong> expires in the next couple of days.</p>", d.ProjectName),
			d.ShareURL, "Approve Quote", d.CompanyName)

	case models.FollowUpInvoiceReminder:
		subject = fmt.Sprintf("Invoice from %s — payment pending", d.CompanyName)
		plain = fmt.Sprintf(
			"Hi %s,\n\nThe invoice for %s hasn't been paid yet. You can view and pay it here: %s\n\n%s",
			d.ClientName, d.ProjectName, d.ShareURL, d.CompanyName,
		)
		html = fmt.Sprintf(followUpEmailHTML,
			"Payment pending", d.ClientName,
			fmt.Sprintf("<p>The invoice for <strong>%s</strong> hasn't been paid yet.</p>", d.ProjectName),
			d.ShareURL, "View &amp; Pay Invoice", d.CompanyName)

	case models.FollowUpReviewRequest:
		subject = fmt.Sprintf("How did %s do?", d.CompanyName)
		plain = fmt.Sprintf(
			"Hi %s,\n\nThanks again for choosing %s for %s. If you have a minute, we'd love to hear how it went.\n\n%s",
			d.ClientName, d.CompanyName, d.ProjectName, d.CompanyName,
		)
		html = fmt.Sprintf(followUpEmailHTML,
			"How did we do?", d.ClientName,
			fmt.Sprintf("<p>Thanks again for choosing %s for <strong>%s</strong>. If you have a minute, we'd love to hear how it went.</p>", d.CompanyName, d.ProjectName),
			d.ShareURL, "Leave a Review", d.CompanyName)

	case models.FollowUpMaintenanceReminder:
		subject = fmt.Sprintf("Time for a check-up? — %s", d.CompanyName)
		plain = fmt.Sprintf(
			"Hi %s,\n\nIt's been about a month since we finished %s. If anything needs a follow-up visit or seasonal maintenance, we're happy to help.\n\n%s",
			d.ClientName, d.ProjectName, d.CompanyName,
		)
		html = fmt.Sprintf(followUpEmailHTML,
			"Time for a check-up?", d.ClientName,
			fmt.Sprintf("<p>It's been about a month since we finished <strong>%s</strong>. If anything needs a follow-up visit or seasonal maintenance, we're happy to help.</p>", d.ProjectName),
			d.ShareURL, "Get in Touch", d.CompanyName)

	default:
		return "", "", "", fmt.Errorf("unknown follow-up type %q", t)
	}
	return subject, plain, html, nil
}

const paymentReceivedEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { padding: 20px; max-width: 600px; margin: auto; border: 1px solid #ddd; border-radius: 5px; }
.header { font-size: 24px; font-weight: bold; color: #2f6f4f; }
.data-label { font-weight: bold; }
ul { list-style-type: none; padding: 0; }
li { margin-bottom: 10px; }
</style>
</head>
<body>
<div class="container">
<p class="header">Payment received</p>
<p>Good news — an invoice was just paid.</p>
<ul>
  <li><span class="data-label">Client:</span> %s</li>
  <li><span class="data-label">Invoice:</span> %s</li>
  <li><span class="data-label">Amount:</span> %s</li>
</ul>
</div>
</body>
</html>`

func renderPaymentReceivedEmail(clientName, invoiceNumber string, amountCents int64) (subject, plain, html string) {
	amount := formatCents(amountCents)
	subject = fmt.Sprintf(constants.EmailSubjectPaymentReceived, invoiceNumber)
	plain = fmt.Sprintf(
		"Good news — %s just paid invoice %s (%s).",
		clientName, invoiceNumber, amount,
	)
	html = fmt.Sprintf(paymentReceivedEmailHTML, clientName, invoiceNumber, amount)
	return subject, plain, html
}
