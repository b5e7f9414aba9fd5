// Command activator runs the off-chain reconciliation loop (C6) against the
// ledger substrate: it observes account updates and drives Pending→Activated
// transitions, sweeps for users whose AccessPass has lapsed, and runs a
// periodic mirror-consistency check under the scheduler's safety mechanisms
// (C7), grounded on activator/src/main.rs and doublezero-scheduler's
// execution.rs in original_source.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"github.com/malbeclabs/doublezero-sub004/internal/activator"
	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/program"
	"github.com/malbeclabs/doublezero-sub004/pkg/ledger"
	"github.com/malbeclabs/doublezero-sub004/pkg/scheduler"
)

const (
	defaultSleepDurationSecs   = 5
	defaultObserverConcurrency = 8
	defaultUserMonitorInterval = 60 * time.Second
	defaultJobTimeout          = 30 * time.Second
)

var (
	// Set by LDFLAGS.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	var (
		rpcURL              = pflag.String("rpc-url", os.Getenv("RPC_URL"), "Solana RPC endpoint used to track the current epoch")
		websocketURL        = pflag.String("websocket-url", os.Getenv("WEBSOCKET_URL"), "Solana websocket endpoint (reserved for a live-cluster account-subscription bridge)")
		programIDStr        = pflag.String("program-id", os.Getenv("PROGRAM_ID"), "serviceability program ID this activator reconciles")
		keypairPath         = pflag.String("keypair", os.Getenv("KEYPAIR"), "path to the activator's signer keypair")
		sleepDurationSecs   = pflag.Int("sleep-duration-secs", defaultSleepDurationSecs, "fallback poll interval in seconds (overridden by SLEEP_DURATION_SECS)")
		observerConcurrency = pflag.Int("observer-concurrency", defaultObserverConcurrency, "worker pool size for the reconciler observer")
		userMonitorInterval = pflag.Duration("user-monitor-interval", defaultUserMonitorInterval, "how often to sweep for expired AccessPass users")
		jobTimeout          = pflag.Duration("job-timeout", defaultJobTimeout, "watchdog timeout for scheduled safety-checked jobs")
		verbose             = pflag.Bool("verbose", false, "enable debug logging")
		showVersion         = pflag.Bool("version", false, "print version information and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: logLevel}))
	slog.SetDefault(log)

	if envSleep := os.Getenv("SLEEP_DURATION_SECS"); envSleep != "" {
		if n, err := fmt.Sscanf(envSleep, "%d", sleepDurationSecs); err != nil || n != 1 {
			log.Warn("ignoring invalid SLEEP_DURATION_SECS", "value", envSleep)
		}
	}

	if *programIDStr == "" {
		log.Error("missing required flag/env", "flag", "program-id", "env", "PROGRAM_ID")
		os.Exit(1)
	}
	programID, err := solana.PublicKeyFromBase58(*programIDStr)
	if err != nil {
		log.Error("failed to parse program id", "error", err)
		os.Exit(1)
	}

	if *keypairPath == "" {
		log.Error("missing required flag/env", "flag", "keypair", "env", "KEYPAIR")
		os.Exit(1)
	}
	signer, err := solana.PrivateKeyFromSolanaKeygenFile(*keypairPath)
	if err != nil {
		log.Error("failed to load signer keypair", "path", *keypairPath, "error", err)
		os.Exit(1)
	}
	signerPK := signer.PublicKey()

	log.Info("starting activator",
		"version", version,
		"programID", programID.String(),
		"signer", signerPK.String(),
		"rpcURL", *rpcURL,
		"websocketURL", *websocketURL,
	)
	if *websocketURL != "" {
		log.Debug("websocket-url configured but not dialed: this repo's ledger substrate stands in for the live cluster (see pkg/ledger), so there is no account-subscription bridge for it to drive yet")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := ledger.New(programID)
	prog := program.New(programID, l)

	snapshot := l.Snapshot()
	mirrors, err := activator.RebuildMirrors(snapshot)
	if err != nil {
		log.Error("failed to rebuild allocator mirrors at boot", "error", err)
		os.Exit(1)
	}
	log.Info("rebuilt allocator mirrors from ledger snapshot",
		"accounts", len(snapshot),
		"segmentRoutingScopes", len(mirrors.SegmentRoutingIDs),
		"loopbackScopes", len(mirrors.LoopbackIPs),
	)

	currentEpoch := currentEpochFunc(*rpcURL)

	recon := activator.NewReconciler(prog, signerPK)
	observer := activator.NewObserver(l, recon, *observerConcurrency)
	userMonitor := activator.NewUserMonitor(prog, l, signerPK, currentEpoch, *userMonitorInterval)

	breaker := scheduler.NewCircuitBreaker(nil)
	watchdog := scheduler.NewWatchdog(*jobTimeout)
	recorder := scheduler.NewRecorder(programID, l)
	engine := scheduler.NewEngine(breaker, watchdog, recorder, nil)

	go observer.Run(ctx)
	go userMonitor.Run(ctx)
	go runMirrorConsistencyChecks(ctx, engine, l, time.Duration(*sleepDurationSecs)*time.Second)

	<-ctx.Done()
	log.Info("shutting down")
}

// currentEpochFunc returns the UserMonitor's epoch source: the current
// Solana epoch from rpcURL when one is configured, or a constant zero epoch
// when running without a live cluster (this repo's ledger substrate has no
// validator behind it to ask otherwise).
func currentEpochFunc(rpcURL string) func(ctx context.Context) (uint64, error) {
	if rpcURL == "" {
		return func(ctx context.Context) (uint64, error) { return 0, nil }
	}
	client := rpc.New(rpcURL)
	return func(ctx context.Context) (uint64, error) {
		info, err := client.GetEpochInfo(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return 0, fmt.Errorf("fetching epoch info: %w", err)
		}
		return info.Epoch, nil
	}
}

// runMirrorConsistencyChecks periodically re-derives the allocator mirrors
// from the ledger's current snapshot and returns the number of device-scoped
// mirror scopes as the job payload (no comparison with earlier passes is
// made), running the check itself through the scheduler
// engine so a stuck or panicking rebuild is bounded by the watchdog and
// backed off by the circuit breaker like any other scheduled job (§4.7).
func runMirrorConsistencyChecks(ctx context.Context, engine *scheduler.Engine, l *ledger.Ledger, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSleepDurationSecs * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job := scheduler.Job{
				ID:      "mirror-consistency-check",
				Seeds:   []byte(time.Now().UTC().Truncate(interval).String()),
				Timeout: interval,
				Run: func(runCtx context.Context) ([]byte, error) {
					mirrors, err := activator.RebuildMirrors(l.Snapshot())
					if err != nil {
						return nil, err
					}
					return fmt.Appendf(nil, "%d", len(mirrors.SegmentRoutingIDs)+len(mirrors.LoopbackIPs)), nil
				},
			}
			if _, err := engine.Execute(ctx, job); err != nil {
				slog.Default().Debug("mirror consistency check did not run", "error", err)
			}
		}
	}
}
