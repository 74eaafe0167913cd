package catalog

import (
	"fmt"
	"strings"

	"github.com/conciergedev/concierge/core"
)

// Options computes the next-step suggestion menu attached to every reply.
// It is a pure function of (context, entries, friendly): the same inputs
// always produce the same ordered list. The friendly form phrases options
// as suggestions; the terse form lists bare labels.
func Options(contextName string, entries []core.CatalogEntry, friendly bool) []string {
	contextName = strings.ToLower(strings.TrimSpace(contextName))
	display := strings.ToUpper(contextName)

	var menu []string
	for _, e := range entries {
		if !e.Available || e.Context != contextName {
			continue
		}
		if friendly {
			menu = append(menu, fmt.Sprintf("Deploy a %s on %s", strings.ToLower(e.Name), display))
		} else {
			menu = append(menu, e.Name)
		}
	}

	if friendly {
		menu = append(menu,
			"View my cart",
			"Process my order",
			fmt.Sprintf("List my %s resources", display),
			"Switch provider",
			"Just chat",
		)
	} else {
		menu = append(menu,
			"view cart",
			"process order",
			"list resources",
			"switch provider",
			"chat",
		)
	}
	return menu
}
