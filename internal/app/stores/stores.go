// Package stores builds the five domain stores as one set. The set is
// created once at bootstrap, registered in the DI container, and handed to
// both the listener lifecycle (for mutation) and the HTTP adapter (for
// reads). Tests build a fresh set per test.
package stores

import (
	"log/slog"

	"github.com/jsamuelsen11/storefeed/internal/app/store"
	"github.com/jsamuelsen11/storefeed/internal/domain/customer"
	"github.com/jsamuelsen11/storefeed/internal/domain/event"
	"github.com/jsamuelsen11/storefeed/internal/domain/invoice"
	"github.com/jsamuelsen11/storefeed/internal/domain/order"
	"github.com/jsamuelsen11/storefeed/internal/domain/payment"
	"github.com/jsamuelsen11/storefeed/internal/domain/service"
	"github.com/jsamuelsen11/storefeed/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.EventHandler = (*store.Store[customer.Customer])(nil)
	_ ports.StoreReader  = (*store.Store[customer.Customer])(nil)
	_ ports.EventHandler = (*store.Store[payment.Payment])(nil)
	_ ports.EventHandler = (*store.Store[invoice.Invoice])(nil)
	_ ports.EventHandler = (*store.Store[order.Order])(nil)
	_ ports.EventHandler = (*store.Store[service.Service])(nil)
)

// Options configures every store in the set.
type Options struct {
	// DedupWindow is the number of recent event keys each store remembers.
	// Zero selects store.DefaultDedupWindow; a negative value disables it.
	DedupWindow int
	Logger      *slog.Logger
}

// Entry pairs a domain with its store's mutation and read surfaces.
type Entry struct {
	Domain  event.Domain
	Handler ports.EventHandler
	Reader  ports.StoreReader
}

// Set holds exactly one store per domain.
type Set struct {
	Customers *store.Store[customer.Customer]
	Payments  *store.Store[payment.Payment]
	Invoices  *store.Store[invoice.Invoice]
	Orders    *store.Store[order.Order]
	Services  *store.Store[service.Service]
}

// New creates the five stores with the domain-specific event kinds
// registered.
func New(opts Options) *Set {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	window := opts.DedupWindow
	if window == 0 {
		window = store.DefaultDedupWindow
	}

	return &Set{
		Customers: store.New[customer.Customer](event.DomainCustomer,
			store.WithDedupWindow[customer.Customer](window),
			store.WithLogger[customer.Customer](logger.With(slog.String("store", "customer"))),
		),
		Payments: store.New[payment.Payment](event.DomainPayment,
			store.WithDedupWindow[payment.Payment](window),
			store.WithLogger[payment.Payment](logger.With(slog.String("store", "payment"))),
			store.WithMutation[payment.Payment](payment.KindRefund, payment.Refund),
		),
		Invoices: store.New[invoice.Invoice](event.DomainInvoice,
			store.WithDedupWindow[invoice.Invoice](window),
			store.WithLogger[invoice.Invoice](logger.With(slog.String("store", "invoice"))),
		),
		Orders: store.New[order.Order](event.DomainOrder,
			store.WithDedupWindow[order.Order](window),
			store.WithLogger[order.Order](logger.With(slog.String("store", "order"))),
			store.WithMutation[order.Order](order.KindCancel, order.Cancel),
		),
		Services: store.New[service.Service](event.DomainService,
			store.WithDedupWindow[service.Service](window),
			store.WithLogger[service.Service](logger.With(slog.String("store", "service"))),
		),
	}
}

// Entries returns one entry per domain in event.Domains() order.
func (s *Set) Entries() []Entry {
	return []Entry{
		{Domain: event.DomainCustomer, Handler: s.Customers, Reader: s.Customers},
		{Domain: event.DomainPayment, Handler: s.Payments, Reader: s.Payments},
		{Domain: event.DomainInvoice, Handler: s.Invoices, Reader: s.Invoices},
		{Domain: event.DomainOrder, Handler: s.Orders, Reader: s.Orders},
		{Domain: event.DomainService, Handler: s.Services, Reader: s.Services},
	}
}

// Reader returns the read surface for a domain.
func (s *Set) Reader(d event.Domain) (ports.StoreReader, bool) {
	for _, e := range s.Entries() {
		if e.Domain == d {
			return e.Reader, true
		}
	}
	return nil, false
}
