package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nftchain/config"
	"nftchain/core/state"
	"nftchain/core/types"
	"nftchain/mempool"
	"nftchain/native/common"
	"nftchain/native/exchange"
	"nftchain/native/nft"
	"nftchain/observability/logging"
	"nftchain/storage"
)

// chainTip reports the node's view of the confirmed height. It advances once
// per applied block.
type chainTip uint64

func (t *chainTip) Height() uint64 { return uint64(*t) }

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	dataDir := flag.String("data", "./nftnode-data", "Path to the node data directory")
	listenAddr := flag.String("listen", ":9110", "Listen address for the node HTTP surface")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("NFT_ENV"))
	logger := logging.Setup("nftnode", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	schedule, err := cfg.FeeSchedule()
	if err != nil {
		logger.Error("Invalid fee configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(*dataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	history, err := storage.NewHistory(db)
	if err != nil {
		logger.Error("Failed to open transaction history", slog.Any("error", err))
		os.Exit(1)
	}

	ledger := state.NewManager()
	tip := new(chainTip)
	handlers := []common.Handler{
		nft.NewRegistryHandler(ledger, ledger, history, nil, cfg.AuthorizedRegistrators),
		nft.NewCreateHandler(ledger, ledger, history, nil, nil),
		nft.NewTransferHandler(ledger, ledger, history, nil),
		nft.NewBurnHandler(ledger, ledger, history, nil),
		exchange.NewAuctionHandler(ledger, ledger, history, tip, nil),
		exchange.NewAuctionCancelHandler(ledger, ledger, history, nil),
		exchange.NewBidHandler(ledger, ledger, history, tip, nil),
		exchange.NewBidCancelHandler(ledger, ledger, history, nil),
		exchange.NewAcceptTradeHandler(ledger, ledger, history, nil),
	}

	if err := state.Bootstrap(handlers); err != nil {
		logger.Error("Bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Ledger state rebuilt", slog.Int("handlers", len(handlers)))

	processor := state.NewProcessor(handlers, history, schedule, logger)
	pool := mempool.NewPool()
	guard := mempool.NewGuard(pool, handlers)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/tx", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var tx types.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := guard.Admit(&tx); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintln(w, tx.ID())
	})
	// Block application is strictly serial; the mutex holds that invariant
	// against concurrent HTTP callers.
	var applyMu sync.Mutex
	mux.HandleFunc("/block", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var txs []*types.Transaction
		if err := json.NewDecoder(r.Body).Decode(&txs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		applyMu.Lock()
		defer applyMu.Unlock()
		for _, tx := range txs {
			if err := processor.Apply(tx); err != nil {
				http.Error(w, fmt.Sprintf("%s: %v", tx.ID(), err), http.StatusUnprocessableEntity)
				return
			}
			pool.Remove(tx.ID())
		}
		*tip++
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, uint64(*tip))
	})

	logger.Info("Serving node HTTP surface", slog.String("addr", *listenAddr))
	if err := http.ListenAndServe(*listenAddr, mux); err != nil {
		logger.Error("HTTP listener failed", slog.Any("error", err))
		os.Exit(1)
	}
}
