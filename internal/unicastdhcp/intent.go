package unicastdhcp

import (
	"fmt"

	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
	"github.com/veesix-networks/unicastdhcp/pkg/flow"
	"github.com/veesix-networks/unicastdhcp/pkg/intent"
)

// IntentPriority sits above reactive forwarding and below operator overrides.
const IntentPriority = 50000

// submitPath requests one unidirectional path. The result of installation is
// not observed; only a request that cannot be built is reported.
func (c *Component) submitPath(ingress, egress connectpoint.ConnectPoint, selector *flow.TrafficSelector) error {
	in, err := intent.NewBuilder().
		AppID(c.appID).
		FilteredIngressPoint(intent.NewFilteredConnectPoint(ingress)).
		FilteredEgressPoint(intent.NewFilteredConnectPoint(egress)).
		Priority(IntentPriority).
		Selector(selector).
		Build()
	if err != nil {
		return fmt.Errorf("build intent %s => %s: %w", ingress, egress, err)
	}

	c.intents.Submit(in)

	c.logger.Info("Intent submitted",
		"ingress_device", ingress.DeviceID,
		"ingress_port", ingress.Port,
		"egress_device", egress.DeviceID,
		"egress_port", egress.Port,
	)
	return nil
}
