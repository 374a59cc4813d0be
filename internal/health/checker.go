package health

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

type Config struct {
	CheckTimeout time.Duration
}

type Component string

const (
	ComponentRedis    Component = "redis"
	ComponentDB       Component = "db"
	ComponentRabbitMQ Component = "rabbitmq"
)

type CheckResult struct {
	Timestamp time.Time `json:"timestamp"`
	Result    bool      `json:"result"`
	Error     string    `json:"error,omitempty"`
}

type HealthChecks map[Component]CheckResult

type HealthStatus struct {
	Healthy bool         `json:"healthy"`
	Checks  HealthChecks `json:"checks"`
}

// PingFunc reports whether a backend is reachable.
type PingFunc func(ctx context.Context) error

// Checker pings the optional backends of a run before anything is sent, so
// that a misconfigured sink fails the run early instead of losing its
// report afterwards.
type Checker struct {
	config     *Config
	components map[Component]PingFunc
	log        *slog.Logger
}

func NewChecker(config *Config) *Checker {
	return &Checker{
		config:     config,
		components: make(map[Component]PingFunc),
		log:        slog.With("component", "health"),
	}
}

func (c *Checker) Register(component Component, ping PingFunc) {
	c.components[component] = ping
}

func (c *Checker) Components() []Component {
	components := make([]Component, 0, len(c.components))
	for component := range c.components {
		components = append(components, component)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i] < components[j]
	})
	return components
}

func (c *Checker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Checks:  make(HealthChecks, len(c.components)),
	}

	for _, component := range c.Components() {
		checkCtx, cancel := context.WithTimeout(ctx, c.config.CheckTimeout)
		err := c.components[component](checkCtx)
		cancel()

		result := CheckResult{Timestamp: time.Now(), Result: err == nil}
		if err != nil {
			result.Error = err.Error()
			status.Healthy = false
			c.log.Error("Component health check failed",
				"component", component, "error", err)
		}

		status.Checks[component] = result
	}

	return status
}
