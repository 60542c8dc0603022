package phishing

import (
	"context"
	"fmt"
)

// seedExamples populates the example set on first run. Idempotent: skipped
// when any examples already exist.
func seedExamples(ctx context.Context, store *Store) error {
	n, err := store.CountExamples(ctx)
	if err != nil {
		return fmt.Errorf("count examples: %w", err)
	}
	if n > 0 {
		return nil
	}

	for i := range defaultExamples {
		if err := store.InsertExample(ctx, &defaultExamples[i]); err != nil {
			return fmt.Errorf("seed example %q: %w", defaultExamples[i].Subject, err)
		}
	}
	return nil
}

// defaultExamples is the built-in training set: a mix of phishing attempts
// and legitimate mail.
var defaultExamples = []Example{
	{
		Sender:      "PayPal Security",
		SenderEmail: "security@paypa1-alerts.com",
		Subject:     "Your account has been limited",
		Content: "Dear Customer,\n\nWe noticed unusual activity in your account. " +
			"Your account access has been limited. Click the link below within 24 hours " +
			"to verify your identity or your account will be permanently suspended.\n\n" +
			"http://paypa1-alerts.com/verify?id=8832\n\nPayPal Security Team",
		IsPhishing: true,
		Indicators: []string{
			"Sender domain misspells the company name (paypa1 with a digit one)",
			"Generic greeting instead of your name",
			"Urgency and threat of account suspension",
			"Link points to a non-PayPal domain",
		},
	},
	{
		Sender:      "IT Helpdesk",
		SenderEmail: "helpdesk@yourcompany-support.net",
		Subject:     "Password expires today - immediate action required",
		Content: "Your network password expires in 2 hours. To keep your account active, " +
			"confirm your current credentials at the portal below:\n\n" +
			"http://yourcompany-support.net/sso/login\n\nIT Helpdesk",
		IsPhishing: true,
		Indicators: []string{
			"External domain pretending to be internal IT",
			"Asks you to enter current credentials via a link",
			"Artificial time pressure",
		},
	},
	{
		Sender:      "Amazon",
		SenderEmail: "order-update@amazon.com",
		Subject:     "Your order has shipped",
		Content: "Hello,\n\nYour order #112-9982710-1234567 has shipped and is on its way. " +
			"Track your package from Your Orders in your account.\n\nThank you for shopping with us.",
		IsPhishing: false,
		Indicators: []string{
			"Legitimate sender domain",
			"No request for credentials or personal data",
			"Directs you to the site's own account area, not an embedded link",
		},
	},
	{
		Sender:      "Microsoft 365",
		SenderEmail: "no-reply@micros0ft-verify.com",
		Subject:     "Unusual sign-in activity",
		Content: "We detected a sign-in from a new device in Kyiv, Ukraine. " +
			"If this wasn't you, secure your account immediately:\n\n" +
			"http://micros0ft-verify.com/secure\n\nAttached is the full sign-in report (report.zip).",
		IsPhishing: true,
		Indicators: []string{
			"Typosquatted sender domain (micros0ft with a zero)",
			"Unexpected attachment (zip archive)",
			"Fear-based call to action with an external link",
		},
	},
	{
		Sender:      "HR Department",
		SenderEmail: "hr@yourcompany.com",
		Subject:     "Updated holiday calendar for next year",
		Content: "Hi all,\n\nThe holiday calendar for next year has been published on the " +
			"intranet under HR > Policies. No action is required.\n\nBest,\nHR",
		IsPhishing: false,
		Indicators: []string{
			"Internal sender domain",
			"No links to external sites, no urgency",
			"Informational only, no data requested",
		},
	},
	{
		Sender:      "Netflix Billing",
		SenderEmail: "billing@netflix-payments.info",
		Subject:     "Payment declined - update your card",
		Content: "Your last payment was declined. To avoid interruption of service, " +
			"update your payment details now:\n\nhttp://netflix-payments.info/update-card\n\n" +
			"Failure to update within 48 hours will result in account cancellation.",
		IsPhishing: true,
		Indicators: []string{
			"Suspicious .info domain unrelated to the real company",
			"Requests payment card details via emailed link",
			"Deadline pressure",
		},
	},
	{
		Sender:      "GitHub",
		SenderEmail: "noreply@github.com",
		Subject:     "[GitHub] A personal access token was added to your account",
		Content: "A fine-grained personal access token was recently added to your account. " +
			"If this was you, no action is needed. If not, visit your account security " +
			"settings to review active tokens.",
		IsPhishing: false,
		Indicators: []string{
			"Legitimate sender domain",
			"Tells you to navigate to settings yourself rather than clicking a link",
			"Routine security notification format",
		},
	},
	{
		Sender:      "CEO",
		SenderEmail: "ceo.office@gmail.com",
		Subject:     "Quick favor",
		Content: "Are you at your desk? I need you to purchase some gift cards for a client " +
			"meeting this afternoon. Keep this between us for now - it's a surprise. " +
			"Send me the card codes as soon as you have them.",
		IsPhishing: true,
		Indicators: []string{
			"Executive impersonation from a free webmail address",
			"Gift card purchase request",
			"Secrecy request and urgency",
		},
	},
}
