package docevents

import (
	"log/slog"

	"github.com/randalmurphal/docevents/pkg/docevents/product"
	"github.com/randalmurphal/docevents/pkg/docevents/usage"
)

func init() {
	product.MustRegister(CoreProduct, usage.New(usage.Options{Logger: slog.Default()}))
}
