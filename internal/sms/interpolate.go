package sms

import (
	"strings"

	"github.com/qhosting/cloudsms/internal/models"
)

// Personalization tokens understood in campaign templates.
const (
	TokenFirstName = "{firstName}"
	TokenLastName  = "{lastName}"
	TokenCompany   = "{company}"
)

var knownTokens = []string{TokenFirstName, TokenLastName, TokenCompany}

// Interpolate renders template for contact. A token whose attribute is
// missing or empty is left verbatim, so a message is never silently blanked.
func Interpolate(template string, contact *models.Contact) string {
	if contact == nil {
		return template
	}

	var pairs []string
	if contact.FirstName.Valid && contact.FirstName.String != "" {
		pairs = append(pairs, TokenFirstName, contact.FirstName.String)
	}
	if contact.LastName.Valid && contact.LastName.String != "" {
		pairs = append(pairs, TokenLastName, contact.LastName.String)
	}
	if contact.CompanyName.Valid && contact.CompanyName.String != "" {
		pairs = append(pairs, TokenCompany, contact.CompanyName.String)
	}
	if len(pairs) == 0 {
		return template
	}

	return strings.NewReplacer(pairs...).Replace(template)
}

// UnresolvedTokens lists the known tokens still present in rendered text.
func UnresolvedTokens(rendered string) []string {
	var out []string
	for _, tok := range knownTokens {
		if strings.Contains(rendered, tok) {
			out = append(out, tok)
		}
	}
	return out
}
