// Package quote drafts English quotation-request emails from free-text
// product descriptions.
package quote

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ipartes/quote-cli/internal/apperr"
	"github.com/ipartes/quote-cli/internal/llm"
)

// Client-facing messages.
const (
	MsgProductRequired = "Dados do produto são obrigatórios"
	MsgDraftFailed     = "Erro ao gerar email"
)

// DefaultShippingAddress is printed in every draft unless configured
// otherwise.
const DefaultShippingAddress = "SERVER X SYSTEMS\n10451 NW 28th St, Suite F101\nDoral, FL 33172, USA"

const systemPromptTemplate = `You are an assistant that creates professional quotation emails in English.
Follow this format exactly:

Hello Sales Team,

I hope this message finds you well.

I am reaching out to request a quote for the following items:

[QUANTITY] Unit(s) OF [MANUFACTURER] [MODEL/PARTNUMBER] [PRODUCT TYPE]

Quick Specifications:
[SPEC 1]: [VALUE]
[SPEC 2]: [VALUE]
[SPEC n]: [VALUE]

Please include pricing, lead time, and shipping

Shipping Address:
{{ADDRESS}}

Thank you in advance for your assistance. Please let me know if you need any additional information.`

// SystemPrompt returns the drafting template with address as the shipping
// block. An empty address uses DefaultShippingAddress.
func SystemPrompt(address string) string {
	if strings.TrimSpace(address) == "" {
		address = DefaultShippingAddress
	}
	return strings.Replace(systemPromptTemplate, "{{ADDRESS}}", strings.TrimSpace(address), 1)
}

// UserPrompt wraps the raw product description.
func UserPrompt(input string) string {
	return "TRANSLATE TO ENGLISH AND CREATE AN EMAIL WITH QUICK SPECS OF " + input
}

// Drafter turns a product description into an email body.
type Drafter struct {
	llm    llm.Completer
	system string
}

// NewDrafter creates a Drafter that prints shippingAddress in every email.
func NewDrafter(completer llm.Completer, shippingAddress string) *Drafter {
	return &Drafter{llm: completer, system: SystemPrompt(shippingAddress)}
}

// Draft returns the model's email verbatim. The whole input is sent as one
// request even when it lists several products.
func (d *Drafter) Draft(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", apperr.Validation(MsgProductRequired).WithOp("quote.Draft")
	}

	zap.L().Info("quote: drafting email", zap.Int("input_len", len(input)))
	resp, err := d.llm.Complete(ctx, llm.Request{
		Operation: "draft",
		System:    d.system,
		User:      UserPrompt(input),
	})
	if err != nil {
		return "", apperr.Upstream(MsgDraftFailed, err).WithOp("quote.Draft")
	}
	return resp.Text, nil
}
