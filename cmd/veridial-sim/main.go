// Command veridial-sim replays a scripted call scenario through the
// verification flow and prints the resulting dialogue. By default it runs
// fully offline with the rule-based extractor; pass -provider to route
// extraction through a real language model.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/veridial/veridial/infrastructure/extract"
	"github.com/veridial/veridial/infrastructure/llm"
	"github.com/veridial/veridial/infrastructure/metrics"
	"github.com/veridial/veridial/internal/domain"
	"github.com/veridial/veridial/internal/flow"
	"github.com/veridial/veridial/internal/ports"
	"github.com/veridial/veridial/internal/verify"
)

// scenario is the YAML shape of a scripted call.
type scenario struct {
	Applicant  domain.Applicant `yaml:"applicant"`
	Utterances []string         `yaml:"utterances"`
}

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "Path to the scenario YAML (required)")
		flowPath     = flag.String("flow", "", "Path to a flow YAML; empty uses the built-in flow")
		provider     = flag.String("provider", "", "LLM provider (openai, anthropic, google); empty runs offline")
		model        = flag.String("model", "", "Model name; empty uses the provider default")
		maxAttempts  = flag.Int("max-identity-attempts", verify.DefaultMaxIdentityAttempts, "Identity attempts before termination")
		threshold    = flag.Int("tenure-threshold", verify.DefaultTenureThresholdMonths, "Tenure discrepancy threshold in months")
		timeout      = flag.Duration("timeout", 30*time.Second, "Per-request LLM timeout")
		metricsAddr  = flag.String("metrics-addr", "", "Address to serve Prometheus metrics on (e.g. :9090); empty disables metrics")
	)
	flag.Parse()

	if *scenarioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		log.Fatalf("load scenario: %v", err)
	}

	table, err := loadFlow(*flowPath)
	if err != nil {
		log.Fatalf("load flow: %v", err)
	}

	var collector ports.MetricsCollector
	if *metricsAddr != "" {
		collector = metrics.NewPrometheusMetrics()
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	extractor, err := buildExtractor(*provider, *model, *timeout, collector)
	if err != nil {
		log.Fatalf("build extractor: %v", err)
	}

	config := verify.Config{
		MaxIdentityAttempts:      *maxAttempts,
		JobTenureThresholdMonths: *threshold,
	}
	session, err := verify.NewSession(sc.Applicant, table, extractor, collector, config)
	if err != nil {
		log.Fatalf("create session: %v", err)
	}

	ctx := context.Background()

	prompt, err := session.RenderPrompt()
	if err != nil {
		log.Fatalf("render prompt: %v", err)
	}
	fmt.Printf("agent:  %s\n", prompt)

	for _, utterance := range sc.Utterances {
		if session.Done() {
			break
		}
		fmt.Printf("caller: %s\n", utterance)
		prompt, err = session.Submit(ctx, utterance)
		if err != nil {
			log.Fatalf("submit: %v", err)
		}
		fmt.Printf("agent:  %s\n", prompt)
	}

	fmt.Println()
	fmt.Printf("outcome:           %s\n", session.Outcome())
	fmt.Printf("identity verified: %v\n", session.IdentityVerified())
	printCollected(session.Collected())
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(sc.Utterances) == 0 {
		return nil, fmt.Errorf("%s: scenario has no utterances", path)
	}
	return &sc, nil
}

func loadFlow(path string) (*flow.Table, error) {
	if path == "" {
		return flow.Default(), nil
	}
	return flow.NewLoader().LoadFromFile(path)
}

// buildExtractor returns the offline rule extractor, or an LLM-backed
// one when a provider was requested. The API key comes from the
// provider's conventional environment variable. A non-nil collector is
// wired into both the client middleware chain and the extractor.
func buildExtractor(provider, model string, timeout time.Duration, collector ports.MetricsCollector) (ports.EntityExtractor, error) {
	if provider == "" {
		return extract.NewRuleExtractor(), nil
	}

	envVars := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"google":    "GOOGLE_API_KEY",
	}
	envVar, ok := envVars[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set", envVar)
	}

	middleware := []llm.Middleware{
		llm.RetryMiddleware(2, 200*time.Millisecond, 5*time.Second),
		llm.RateLimitMiddleware(10, 20),
		llm.BudgetMiddleware(100_000, 200),
		llm.TracingMiddleware("veridial-sim"),
	}
	if collector != nil {
		middleware = append(middleware, llm.MetricsMiddleware(collector))
	}

	client, err := llm.NewClient(provider, llm.ClientConfig{
		APIKey:     apiKey,
		Model:      model,
		Timeout:    timeout,
		Middleware: middleware,
	})
	if err != nil {
		return nil, err
	}

	return extract.NewLLMExtractor(client, collector, extract.DefaultConfig())
}

func printCollected(c domain.CollectedData) {
	fmt.Printf("collected:\n")
	fmt.Printf("  dob:        %s\n", c.DOB)
	fmt.Printf("  ssn_last4:  %s\n", c.SSNLast4)
	if c.Address != nil {
		fmt.Printf("  address:    %s, %s, %s %s\n", c.Address.Street, c.Address.City, c.Address.State, c.Address.ZipCode)
		if c.Address.Unit != "" {
			fmt.Printf("  unit:       %s\n", c.Address.Unit)
		}
	}
	if c.Email != nil {
		fmt.Printf("  email:      %s\n", *c.Email)
	}
	if c.MonthlyIncome > 0 {
		fmt.Printf("  income:     %.2f\n", c.MonthlyIncome)
	}
	if c.JobTenure != nil {
		fmt.Printf("  tenure:     %d months\n", *c.JobTenure)
	}
	if c.EmploymentStatus != "" {
		fmt.Printf("  employment: %s\n", c.EmploymentStatus)
	}
}
