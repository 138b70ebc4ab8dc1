// Package metrics содержит счётчики Prometheus, отдаваемые через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated количество успешно созданных заказов номеров.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numvault_orders_created_total",
		Help: "Total number of successfully placed number orders.",
	})

	// RentalsCreated количество успешно созданных аренд.
	RentalsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numvault_rentals_created_total",
		Help: "Total number of successfully created rentals.",
	})

	// DepositsCompleted количество депозитов, зачисленных на баланс.
	DepositsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numvault_deposits_completed_total",
		Help: "Total number of deposits credited to user balances.",
	})
)
