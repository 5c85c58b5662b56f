package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts domain-level shopping activity. HTTP-level metrics live in
// the platform middleware; these track aggregate lifecycle regardless of
// transport.
type Metrics struct {
	ListsCreated prometheus.Counter
	ListsDeleted prometheus.Counter
	ItemsCreated prometheus.Counter
	ItemsDeleted prometheus.Counter
	Searches     prometheus.Counter
	AccessDenied prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ListsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basket_shopping_lists_created_total",
			Help: "Shopping lists created.",
		}),
		ListsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basket_shopping_lists_deleted_total",
			Help: "Shopping lists deleted.",
		}),
		ItemsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basket_shopping_items_created_total",
			Help: "Shopping items created.",
		}),
		ItemsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basket_shopping_items_deleted_total",
			Help: "Shopping items deleted.",
		}),
		Searches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basket_shopping_item_searches_total",
			Help: "Cross-list item searches served.",
		}),
		AccessDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basket_shopping_access_denied_total",
			Help: "Requests rejected by the membership guard.",
		}),
	}
}
