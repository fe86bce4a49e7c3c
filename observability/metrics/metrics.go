package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type registry struct {
	txApplied     *prometheus.CounterVec
	txReverted    *prometheus.CounterVec
	txRejected    *prometheus.CounterVec
	poolConflicts *prometheus.CounterVec
}

var (
	once sync.Once
	reg  *registry
)

func get() *registry {
	once.Do(func() {
		reg = &registry{
			txApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nft_tx_applied_total",
				Help: "Confirmed marketplace transactions applied, by kind.",
			}, []string{"kind"}),
			txReverted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nft_tx_reverted_total",
				Help: "Marketplace transactions reverted during reorgs, by kind.",
			}, []string{"kind"}),
			txRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nft_tx_rejected_total",
				Help: "Marketplace transactions rejected at validation, by kind.",
			}, []string{"kind"}),
			poolConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nft_pool_conflicts_total",
				Help: "Pending transactions rejected by the pool admission guard, by kind.",
			}, []string{"kind"}),
		}
		prometheus.MustRegister(
			reg.txApplied,
			reg.txReverted,
			reg.txRejected,
			reg.poolConflicts,
		)
	})
	return reg
}

// TxApplied counts a confirmed transaction application.
func TxApplied(kind string) { get().txApplied.WithLabelValues(kind).Inc() }

// TxReverted counts a reorg-driven revert.
func TxReverted(kind string) { get().txReverted.WithLabelValues(kind).Inc() }

// TxRejected counts a validation rejection.
func TxRejected(kind string) { get().txRejected.WithLabelValues(kind).Inc() }

// PoolConflict counts a pool admission rejection.
func PoolConflict(kind string) { get().poolConflicts.WithLabelValues(kind).Inc() }
