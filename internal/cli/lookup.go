package cli

import (
	"context"
	"errors"

	"github.com/tphakala/go-leakix"
)

func newHostCommand() *Command {
	return &Command{
		Name:        "host",
		Description: "Show services and leaks of one or more IP addresses",
		Run:         runHost,
	}
}

func newDomainCommand() *Command {
	return &Command{
		Name:        "domain",
		Description: "Show services and leaks of a domain",
		Run:         runDomain,
	}
}

func newSubdomainsCommand() *Command {
	return &Command{
		Name:        "subdomains",
		Description: "List the subdomains of a domain",
		Run:         runSubdomains,
	}
}

func newPluginsCommand() *Command {
	return &Command{
		Name:        "plugins",
		Description: "List the plugins available to the API key",
		Run:         runPlugins,
	}
}

// hostOutput is one host in the output of the host command.
type hostOutput struct {
	IP       string             `json:"ip"`
	Services []leakix.HostEvent `json:"services"`
	Leaks    []leakix.HostEvent `json:"leaks"`
}

func runHost(ctx context.Context, s *session, args []string) error {
	flags, of := s.newFlagSet("host")
	concurrency := flags.Int("concurrency", 4, "Maximum concurrent lookups")

	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	ips := flags.Args()
	if len(ips) == 0 {
		return errors.New("host: at least one IP address is required")
	}

	client, err := s.asyncClient()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	results, err := client.Hosts(ctx, ips, *concurrency)
	if err != nil {
		return err
	}

	return s.withOutput(of, true, func(p *printer) error {
		for i, resp := range results {
			if !resp.IsSuccess() {
				return responseError(resp.RawResponse)
			}
			host := resp.Data()
			if err := p.emit(hostOutput{IP: ips[i], Services: host.Services, Leaks: host.Leaks}); err != nil {
				return err
			}
		}
		return nil
	})
}

func runDomain(ctx context.Context, s *session, args []string) error {
	flags, of := s.newFlagSet("domain")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("domain: exactly one domain is required")
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	resp, err := client.Domain(ctx, flags.Arg(0))
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return responseError(resp.RawResponse)
	}

	return s.withOutput(of, true, func(p *printer) error {
		return p.emit(resp.Data())
	})
}

func runSubdomains(ctx context.Context, s *session, args []string) error {
	flags, of := s.newFlagSet("subdomains")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("subdomains: exactly one domain is required")
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	resp, err := client.Subdomains(ctx, flags.Arg(0))
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return responseError(resp.RawResponse)
	}

	return s.withOutput(of, true, func(p *printer) error {
		return p.emit(resp.Data())
	})
}

func runPlugins(ctx context.Context, s *session, args []string) error {
	flags, of := s.newFlagSet("plugins")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	resp, err := client.Plugins(ctx)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return responseError(resp.RawResponse)
	}

	return s.withOutput(of, true, func(p *printer) error {
		return p.emit(resp.Data())
	})
}
