package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/teardown/pkg/api"
	"github.com/cuemby/teardown/pkg/cluster"
	"github.com/cuemby/teardown/pkg/driver"
	"github.com/cuemby/teardown/pkg/log"
	"github.com/cuemby/teardown/pkg/metrics"
	"github.com/cuemby/teardown/pkg/secrets"
	"github.com/cuemby/teardown/pkg/security"
	"github.com/cuemby/teardown/pkg/storage"
	"github.com/cuemby/teardown/pkg/uninstall"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Uninstall coordinator for a two-level resource-offer scheduler",
	Long: `teardown drives a service's resources through kill, release,
optional TLS-cleanup and deregister phases against a resource-offer
master, reading and persisting its plan through a bbolt-backed store.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("data-dir", "./teardown-data", "Data directory for the persisted task store and raft log")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planDumpCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// coordinatorStack is every long-lived object the run and plan-dump
// commands both need to assemble from a data directory.
type coordinatorStack struct {
	store   *storage.CachedStore
	tasks   *uninstall.TaskStore
	secrets secrets.Client
	gate    *cluster.Gate
}

func openStack(dataDir, nodeID, bindAddr string) (*coordinatorStack, error) {
	backing, err := storage.NewBoltStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	cached := storage.NewCachedStore(backing)
	tasks := uninstall.NewTaskStore(cached)

	secManager, err := security.NewSecretsManager(security.DeriveKeyFromClusterID(nodeID))
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets manager: %w", err)
	}
	secretsClient := secrets.NewBoltClient(cached, secManager)

	gate, err := cluster.NewGate(cluster.Config{
		NodeID:   nodeID,
		BindAddr: bindAddr,
		DataDir:  dataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create leader gate: %w", err)
	}

	return &coordinatorStack{store: cached, tasks: tasks, secrets: secretsClient, gate: gate}, nil
}

func (s *coordinatorStack) buildPlan(tlsEnabled bool, secretsNamespace string) (*uninstall.Plan, error) {
	taskRecords, err := s.tasks.ListTasks()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	_, hasFrameworkID, err := s.tasks.FrameworkID()
	if err != nil {
		return nil, fmt.Errorf("failed to read framework id: %w", err)
	}

	return uninstall.BuildPlan(uninstall.PlanInput{
		Tasks:                taskRecords,
		FrameworkIDPersisted: hasFrameworkID,
		TLSCleanupEnabled:    tlsEnabled,
		SecretsNamespace:     secretsNamespace,
	}), nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the uninstall coordinator against a dry-run driver",
	Long: `run rebuilds the uninstall plan from the persisted task store,
then ticks empty offer cycles through the in-memory dry-run driver (no
real master connection is wired in this binary; see pkg/driver.Driver for
the interface a real deployment implements). The dry-run driver delivers
no task status updates and no offers, so kill and release steps are
issued but do not complete here; run exits once the plan is complete, on
a signal, or on an HTTP server error. It exposes /plans, /metrics, /health
and /ready for operators.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		nodeID, _ := cmd.Flags().GetString("node-id")
		bindAddr, _ := cmd.Flags().GetString("bind-addr")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		tlsEnabled, _ := cmd.Flags().GetBool("tls-cleanup")
		secretsNamespace, _ := cmd.Flags().GetString("secrets-namespace")
		offerInterval, _ := cmd.Flags().GetDuration("offer-interval")
		reconcileInterval, _ := cmd.Flags().GetDuration("reconcile-interval")

		stack, err := openStack(dataDir, nodeID, bindAddr)
		if err != nil {
			return err
		}
		defer stack.store.Close()

		if err := stack.gate.Bootstrap(); err != nil {
			return fmt.Errorf("failed to bootstrap leader gate: %w", err)
		}
		defer stack.gate.Shutdown()

		// The gate becomes leader only once raft's election completes; wait
		// for that before the restart gate consults it.
		for deadline := time.Now().Add(10 * time.Second); !stack.gate.IsLeader() && time.Now().Before(deadline); {
			time.Sleep(50 * time.Millisecond)
		}

		raftCollector := cluster.NewCollector(stack.gate)
		raftCollector.Start()
		defer raftCollector.Stop()

		restartGate := uninstall.NewRestartGate(stack.tasks, stack.gate)
		should, err := restartGate.ShouldRegister()
		if err != nil {
			return fmt.Errorf("failed to evaluate restart gate: %w", err)
		}
		if !should {
			log.Info("nothing left to tear down or this process is not the registrant; exiting")
			return nil
		}

		plan, err := stack.buildPlan(tlsEnabled, secretsNamespace)
		if err != nil {
			return err
		}

		coordinator := uninstall.NewCoordinator(plan)
		fd := driver.NewFakeDriver(nil)
		recorder := uninstall.NewRecorder(fd, stack.tasks, coordinator)
		sched := uninstall.NewScheduler(recorder, coordinator, stack.tasks, stack.secrets)
		reconciler := uninstall.NewReconciler(recorder, sched, reconcileInterval)
		reconciler.Start()
		defer reconciler.Stop()

		metrics.SetVersion("dev")
		metrics.RegisterComponent("raft", true, "bootstrapped")
		metrics.RegisterComponent("store", true, "ready")

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())
		mux.Handle("/plans", api.PlansHandler(coordinator))

		errCh := make(chan error, 1)
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				errCh <- fmt.Errorf("operator HTTP server error: %w", err)
			}
		}()
		log.Info(fmt.Sprintf("operator surface listening on %s (/plans, /metrics, /health, /ready)", metricsAddr))

		ticker := time.NewTicker(offerInterval)
		defer ticker.Stop()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case <-ticker.C:
				sched.Offers(fd, nil)
				if coordinator.IsComplete() {
					log.Info("uninstall plan complete")
					return nil
				}
			case <-sigCh:
				log.Info("shutting down")
				return nil
			case err := <-errCh:
				return err
			}
		}
	},
}

func init() {
	runCmd.Flags().String("node-id", "teardown-1", "Unique node ID for leader election")
	runCmd.Flags().String("bind-addr", "127.0.0.1:7946", "Address for raft communication")
	runCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the operator HTTP surface")
	runCmd.Flags().Bool("tls-cleanup", false, "Build the TLS-cleanup phase between release and deregister")
	runCmd.Flags().String("secrets-namespace", "", "Secrets namespace to purge when tls-cleanup is set")
	runCmd.Flags().Duration("offer-interval", 5*time.Second, "How often to tick an offer cycle through the dry-run driver")
	runCmd.Flags().Duration("reconcile-interval", time.Minute, "How often to ask the driver to reconcile outstanding kills")
}

var planDumpCmd = &cobra.Command{
	Use:   "plan-dump",
	Short: "Build and print the uninstall plan without running it",
	Long: `plan-dump rebuilds the plan from the persisted task store and
prints its completion, overall status and phase/step structure as JSON,
without driving any offer cycles. Phases and steps are encoded with their
Go field names (Name, Steps, Kind, Status, AssetID); unlike
pkg/api.PlansHandler, the output has no per-phase status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		nodeID, _ := cmd.Flags().GetString("node-id")
		tlsEnabled, _ := cmd.Flags().GetBool("tls-cleanup")
		secretsNamespace, _ := cmd.Flags().GetString("secrets-namespace")

		stack, err := openStack(dataDir, nodeID, "127.0.0.1:0")
		if err != nil {
			return err
		}
		defer stack.store.Close()

		plan, err := stack.buildPlan(tlsEnabled, secretsNamespace)
		if err != nil {
			return err
		}

		coordinator := uninstall.NewCoordinator(plan)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Complete bool                 `json:"complete"`
			Status   uninstall.StepStatus `json:"status"`
			Phases   []*uninstall.Phase   `json:"phases"`
		}{
			Complete: coordinator.IsComplete(),
			Status:   coordinator.PlanStatus(),
			Phases:   plan.Phases,
		})
	},
}

func init() {
	planDumpCmd.Flags().String("node-id", "teardown-1", "Unique node ID (used to derive the secrets encryption key)")
	planDumpCmd.Flags().Bool("tls-cleanup", false, "Build the TLS-cleanup phase between release and deregister")
	planDumpCmd.Flags().String("secrets-namespace", "", "Secrets namespace the TLS-cleanup phase would purge")
}
