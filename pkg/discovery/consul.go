package discovery

import (
	"fmt"
	"log"
	"strconv"

	"fiscal_service/internal/config"

	"github.com/hashicorp/consul/api"
)

// ServiceRegistry announces this instance to Consul so the gateway can
// route /public/fiscal and /protected/fiscal traffic to healthy
// instances, and resolves the sibling fiscal records service that backs
// the record summary view on responsibility centre reads.
type ServiceRegistry struct {
	client *api.Client
	config *config.Config
}

var ServiceDiscovery *ServiceRegistry

func init() {
	var err error
	ServiceDiscovery, err = NewServiceRegistry(config.ServiceConfig)
	if err != nil {
		log.Fatalf("Service Discovery Init Failed: %s", err)
	}
}

func NewServiceRegistry(config *config.Config) (*ServiceRegistry, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = config.ConsulAddress

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %v", err)
	}

	return &ServiceRegistry{
		client: client,
		config: config,
	}, nil
}

func (sr *ServiceRegistry) Register() error {
	port, err := strconv.Atoi(sr.config.Port)
	if err != nil {
		return fmt.Errorf("invalid service port '%s': %w", sr.config.Port, err)
	}

	registration := &api.AgentServiceRegistration{
		ID:      sr.config.ServiceID,
		Name:    sr.config.ServiceName,
		Port:    port,
		Address: sr.config.ServiceAddress,
		Tags:    []string{"fiscal", "rbac", "access-control"},
		// The gateway reads these to decide which route prefixes to pin
		// to this service and whether directory logins are worth routing.
		Meta: map[string]string{
			"subsystem":       "access-control",
			"publicRoutes":    "/public/fiscal",
			"protectedRoutes": "/protected/fiscal",
			"directorySync":   strconv.FormatBool(sr.config.DirectorySync.Enabled),
		},
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%s/health", sr.config.ServiceAddress, sr.config.Port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := sr.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register fiscal service with Consul: %v", err)
	}

	log.Printf("Registered %s with Consul as %s", sr.config.ServiceName, sr.config.ServiceID)
	return nil
}

func (sr *ServiceRegistry) Deregister() error {
	return sr.client.Agent().ServiceDeregister(sr.config.ServiceID)
}

// RecordsServiceAddress resolves a healthy instance of the fiscal records
// service, the collaborator behind the RecordSource interface.
func (sr *ServiceRegistry) RecordsServiceAddress() (string, error) {
	return sr.healthyAddress(sr.config.RecordsServiceName)
}

func (sr *ServiceRegistry) healthyAddress(serviceName string) (string, error) {
	services, _, err := sr.client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to query Consul for %s: %v", serviceName, err)
	}
	if len(services) == 0 {
		return "", fmt.Errorf("no healthy instances of %s found", serviceName)
	}

	service := services[0]
	address := service.Service.Address
	if address == "" {
		address = service.Node.Address
	}

	return fmt.Sprintf("%s:%d", address, service.Service.Port), nil
}
