package discovery

import (
	"fmt"
	"net"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Registration describes a service instance announced to Consul.
type Registration struct {
	Name     string
	Host     string
	HTTPPort int
	GRPCPort int
	Tags     []string
}

// ID is unique per host and port so replicas do not overwrite each other.
func (r Registration) ID() string {
	return fmt.Sprintf("%s-%s-%d", r.Name, r.Host, r.HTTPPort)
}

type serviceAgent interface {
	ServiceRegister(service *consulapi.AgentServiceRegistration) error
	ServiceDeregister(serviceID string) error
}

type ConsulRegistry struct {
	agent  serviceAgent
	logger *zerolog.Logger
}

func NewConsulRegistry(address string, logger *zerolog.Logger) (*ConsulRegistry, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = address

	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ConsulRegistry{agent: client.Agent(), logger: logger}, nil
}

// Register announces the instance with a gRPC health check against the health server.
func (c *ConsulRegistry) Register(reg Registration) error {
	service := &consulapi.AgentServiceRegistration{
		ID:      reg.ID(),
		Name:    reg.Name,
		Address: reg.Host,
		Port:    reg.HTTPPort,
		Tags:    reg.Tags,
		Meta: map[string]string{
			"grpc_port": strconv.Itoa(reg.GRPCPort),
		},
		Check: &consulapi.AgentServiceCheck{
			GRPC:                           net.JoinHostPort(reg.Host, strconv.Itoa(reg.GRPCPort)),
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := c.agent.ServiceRegister(service); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	c.logger.Info().Str("service_id", service.ID).Msg("registered service with consul")
	return nil
}

func (c *ConsulRegistry) Deregister(reg Registration) error {
	if err := c.agent.ServiceDeregister(reg.ID()); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}

	c.logger.Info().Str("service_id", reg.ID()).Msg("deregistered service from consul")
	return nil
}
