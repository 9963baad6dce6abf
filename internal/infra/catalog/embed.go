package catalog

import (
	_ "embed"

	"github.com/greenhouse-games/accolade/internal/domain"
)

//go:embed default.toml
var defaultCatalog []byte

// Default returns the embedded built-in catalog. It panics on parse
// failure; the embedded file is covered by tests and cannot drift at
// runtime.
func Default() ([]domain.AccomplishmentDef, []domain.MetaRule) {
	defs, rules, err := Parse(defaultCatalog)
	if err != nil {
		panic("embedded catalog invalid: " + err.Error())
	}
	return defs, rules
}
