// Package runtime assembles the explicit context object the DESIGN
// NOTES call for in place of the source's global state: a Runtime
// value holds the type table, logger configuration, certificate
// store, telemetry, and the id allocators every channel/session/
// subscription draws from. cmd/opcuad constructs exactly one Runtime
// per process and passes it (or values derived from it) down into
// pkg/ua's packages; nothing in pkg/ua reaches for a package-level
// global except typetable.Global, which Runtime itself freezes.
package runtime

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/ua-stack/opcua/internal/config"
	"github.com/ua-stack/opcua/internal/logger"
	"github.com/ua-stack/opcua/internal/telemetry"
	"github.com/ua-stack/opcua/pkg/ua/certs"
	"github.com/ua-stack/opcua/pkg/ua/dispatch"
	"github.com/ua-stack/opcua/pkg/ua/security"
	"github.com/ua-stack/opcua/pkg/ua/security/policies"
	"github.com/ua-stack/opcua/pkg/ua/typetable"
)

// Runtime is the process-wide context every server component is
// handed explicitly. It is safe for concurrent use: the mutable
// parts (id counters, certificate) are guarded internally.
type Runtime struct {
	Config *config.Config

	TypeTable *typetable.Table
	Certs     *certs.Store
	Dispatch  *dispatch.Dispatcher
	Metrics   *telemetry.Metrics
	Tracer    trace.Tracer

	// ServerCertificate is the loaded application instance
	// certificate/key pair, nil when every configured policy is
	// "...#None".
	ServerCertificate *tls.Certificate

	policies   []*security.Policy
	allowsNone bool

	shutdownTelemetry func(context.Context) error

	mu            sync.Mutex
	nextChannelID uint32
}

// New builds a Runtime from cfg: it initializes logging, tracing, the
// certificate store, loads the server certificate if one is
// required, resolves the configured security-policy allowlist, and
// freezes typetable.Global so no further Register call can race with
// a channel already decoding traffic.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	r := &Runtime{
		Config:        cfg,
		TypeTable:     typetable.Global,
		Certs:         certs.NewStore(cfg.Certificate.MaxChainDepth),
		Metrics:       telemetry.NewMetrics(nil),
		nextChannelID: 1,
	}

	if cfg.Metrics.Enabled {
		r.Metrics = telemetry.NewMetrics(prometheus.DefaultRegisterer)
	}

	for _, uri := range cfg.SecurityPolicies {
		if uri == policies.NoneURI {
			r.allowsNone = true
			continue
		}
		p, ok := policies.ByURI(uri)
		if !ok {
			return nil, fmt.Errorf("unsupported security policy %q", uri)
		}
		r.policies = append(r.policies, p)
	}

	if cfg.Certificate.CertPath != "" && cfg.Certificate.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.Certificate.CertPath, cfg.Certificate.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("load server certificate: %w", err)
		}
		r.ServerCertificate = &cert
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "opcuad",
		ServiceVersion: "dev",
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	r.shutdownTelemetry = shutdown
	r.Tracer = telemetry.Tracer()

	r.Dispatch = dispatch.New(r.Tracer)

	typetable.Global.Freeze()

	return r, nil
}

// AllowsPolicy reports whether uri is in the configured security
// policy allowlist.
func (r *Runtime) AllowsPolicy(uri string) bool {
	if uri == policies.NoneURI {
		return r.allowsNone
	}
	for _, p := range r.policies {
		if p.URI == uri {
			return true
		}
	}
	return false
}

// Policies returns the resolved, non-None security policies this
// Runtime accepts, in configuration order.
func (r *Runtime) Policies() []*security.Policy {
	return r.policies
}

// NextChannelID allocates the next server-assigned secure channel id.
// Id 0 is reserved (spec.md §6 treats 0 as "no channel yet" during
// HEL/ACK), so the counter starts at 1 and wraps past it, never past
// the 32-bit boundary itself.
func (r *Runtime) NextChannelID() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextChannelID
	r.nextChannelID++
	if r.nextChannelID == 0 {
		r.nextChannelID = 1
	}
	return id
}

// Shutdown releases resources Runtime acquired: the telemetry
// exporter pipeline, if any.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r.shutdownTelemetry == nil {
		return nil
	}
	return r.shutdownTelemetry(ctx)
}
