package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/util/retry"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/client"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/config"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/reconciler"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/ruler"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/rules"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

// Services holds all initialized components of the application.
//
// Components are created in dependency order:
//  1. Metrics registry and collectors
//  2. Ruler client, observed by the metrics
//  3. Reconciliation engine on top of the Kubernetes client
//  4. Syncer combining the Ruler client and the engine
//  5. Informer-based detector and the dispatcher
type Services struct {
	Registry *prometheus.Registry
	Metrics  *reconciler.Metrics

	Ruler *ruler.Client
	Kube  *client.KubernetesClient

	Engine   *reconciler.Engine
	Syncer   *reconciler.RuleGroupSyncer
	Detector *reconciler.KubernetesDetector
	Manager  *reconciler.Manager
}

// InitializeServices creates and wires every component from a validated
// configuration. Nothing is started; the detector only connects to the
// cluster when the manager starts.
func InitializeServices(settings *config.Config, restConfig *rest.Config, kc *client.KubernetesClient) (*Services, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := reconciler.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	rulerClient, err := ruler.NewClient(settings.Ruler.URL,
		ruler.WithTimeout(settings.Ruler.Timeout),
		ruler.WithObserver(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ruler client: %w", err)
	}

	strategy, err := rules.ParseMergeStrategy(settings.Reconciler.MergeStrategy)
	if err != nil {
		return nil, err
	}

	backoff := retry.DefaultRetry
	backoff.Steps = settings.Reconciler.ConflictRetries

	engine := reconciler.NewEngine(kc, reconciler.NewStatusPatcher(kc, kc),
		reconciler.WithMergeStrategy(strategy),
		reconciler.WithConflictBackoff(backoff),
		reconciler.WithEngineMetrics(metrics),
	)
	syncer := reconciler.NewRuleGroupSyncer(rulerClient, engine)

	detector := reconciler.NewKubernetesDetector(restConfig, settings.Kubernetes.Namespace, metrics)

	manager := reconciler.NewManager(managerConfig(settings.Reconciler), syncer, detector, metrics)

	logging.Info("Services", "Initialized with ruler %s, merge strategy %s, namespace %q",
		settings.Ruler.URL, strategy, settings.Kubernetes.Namespace)

	return &Services{
		Registry: registry,
		Metrics:  metrics,
		Ruler:    rulerClient,
		Kube:     kc,
		Engine:   engine,
		Syncer:   syncer,
		Detector: detector,
		Manager:  manager,
	}, nil
}

func managerConfig(c config.ReconcilerConfig) reconciler.ManagerConfig {
	return reconciler.ManagerConfig{
		WorkerCount:      c.Workers,
		MaxRetries:       c.MaxRetries,
		InitialBackoff:   c.InitialBackoff,
		MaxBackoff:       c.MaxBackoff,
		ReconcileTimeout: c.ReconcileTimeout,
	}
}

// SyncOnce runs a single request through r without retrying it.
func SyncOnce(ctx context.Context, r reconciler.Reconciler, req reconciler.ReconcileRequest) error {
	result := r.Reconcile(ctx, req)
	if result.Error != nil {
		if result.Fatal {
			return fmt.Errorf("sync of %s failed permanently: %w", req.Key(), result.Error)
		}
		return fmt.Errorf("sync of %s failed, it can be retried: %w", req.Key(), result.Error)
	}

	logging.Info("Sync", "%s of group %s done", req.Operation, req.Key())
	return nil
}
