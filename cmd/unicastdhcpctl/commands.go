package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthService = "unicastdhcp"
	metricPrefix  = "unicastdhcp_"
	locationInfo  = "unicastdhcp_server_location_info"
)

func defaultCommands() []*Command {
	return []*Command{
		{Path: []string{"help"}, Description: "List available commands", Handler: showHelp},
		{Path: []string{"show", "health"}, Description: "Show gateway and redirect service health", Handler: showHealth},
		{Path: []string{"show", "server"}, Description: "Show the DHCP server attachment point in effect", Handler: showServer},
		{Path: []string{"show", "metrics"}, Description: "Show redirect counters", Handler: showMetrics},
	}
}

func showHelp(ctx context.Context, c *CLI, args []string) error {
	for _, cmd := range c.commands {
		fmt.Fprintf(c.out, "  %-16s %s\n", strings.Join(cmd.Path, " "), cmd.Description)
	}
	return nil
}

func showHealth(ctx context.Context, c *CLI, args []string) error {
	for _, svc := range []string{"", healthService} {
		name := svc
		if name == "" {
			name = "gateway"
		}

		resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			return fmt.Errorf("health check %s: %w", name, err)
		}
		fmt.Fprintf(c.out, "%-12s %s\n", name, resp.GetStatus().String())
	}
	return nil
}

func showServer(ctx context.Context, c *CLI, args []string) error {
	families, err := c.fetchMetrics(ctx)
	if err != nil {
		return err
	}

	if mf, ok := families[locationInfo]; ok && len(mf.GetMetric()) > 0 {
		labels := labelMap(mf.GetMetric()[0])
		fmt.Fprintf(c.out, "%s/%s\n", labels["device"], labels["port"])
		return nil
	}

	fmt.Fprintln(c.out, "DHCP server location is not set")
	return nil
}

func showMetrics(ctx context.Context, c *CLI, args []string) error {
	families, err := c.fetchMetrics(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(families))
	for name := range families {
		if name != locationInfo {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		mf := families[name]
		for _, m := range mf.GetMetric() {
			value, ok := sampleValue(mf.GetType(), m)
			if !ok {
				continue
			}
			fmt.Fprintf(c.out, "%s%s %s\n", name, formatLabels(m), strconv.FormatFloat(value, 'g', -1, 64))
		}
	}
	return nil
}

// fetchMetrics returns the unicastdhcp metric families from the exporter,
// keyed by name.
func (c *CLI) fetchMetrics(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+c.metricsAddr+"/metrics", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch metrics: %s", resp.Status)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}

	for name := range families {
		if !strings.HasPrefix(name, metricPrefix) {
			delete(families, name)
		}
	}
	return families, nil
}

func labelMap(m *dto.Metric) map[string]string {
	labels := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	return labels
}

func formatLabels(m *dto.Metric) string {
	if len(m.GetLabel()) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// sampleValue returns the single value of a counter, gauge or untyped sample.
func sampleValue(t dto.MetricType, m *dto.Metric) (float64, bool) {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue(), true
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue(), true
	case dto.MetricType_UNTYPED:
		return m.GetUntyped().GetValue(), true
	default:
		return 0, false
	}
}
