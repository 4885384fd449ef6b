package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"nexuslm/customer"
)

// InstructionCatalog holds base security instructions plus extras keyed by
// compute type (e.g. "n2-standard").
type InstructionCatalog struct {
	Base   []string
	ByType map[string][]string
}

func DefaultInstructions() InstructionCatalog {
	return InstructionCatalog{
		Base: []string{
			"- Use the principle of least privilege for IAM roles and service accounts",
			"- Regularly audit and rotate service account keys",
			"- Enable OS Login and avoid project-wide SSH keys",
			"- Keep the OS and installed software patched",
			"- Restrict ingress with VPC firewall rules and network tags",
			"- Enable Cloud Audit Logs and alert on suspicious activity",
		},
		ByType: map[string][]string{
			"n2-standard": {
				"- Enable Shielded VM secure boot and integrity monitoring",
				"- Put public web workloads behind a load balancer with Cloud Armor",
				"- Use Identity-Aware Proxy instead of external IPs for admin access",
			},
			"c2-standard": {
				"- Encrypt persistent disks with customer-managed keys (Cloud KMS)",
				"- Run batch jobs with a dedicated, minimally scoped service account",
				"- Use Private Google Access so workers need no external IPs",
			},
			"e2-standard": {
				"- Use hardened images and keep startup scripts free of secrets",
			},
		},
	}
}

// LoadInstructions reads a catalog file (YAML, JSON or TOML) of the form
//
//	base: [..]
//	types:
//	  n2-standard: [..]
//
// An empty base keeps the default base instructions.
func LoadInstructions(path string) (InstructionCatalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return InstructionCatalog{}, fmt.Errorf("reading security catalog %s: %w", path, err)
	}

	cat := InstructionCatalog{
		Base:   v.GetStringSlice("base"),
		ByType: v.GetStringMapStringSlice("types"),
	}
	if len(cat.Base) == 0 {
		cat.Base = DefaultInstructions().Base
	}
	if cat.ByType == nil {
		cat.ByType = map[string][]string{}
	}
	return cat, nil
}

// For returns base plus type-specific instructions. known is false when the
// type has no specific entry, in which case only the base is returned.
func (c InstructionCatalog) For(computeType string) (lines []string, known bool) {
	lines = append(lines, c.Base...)
	specific, known := c.ByType[normalizeComputeType(computeType)]
	return append(lines, specific...), known
}

// normalizeComputeType maps "N2-Standard-4" to the family key "n2-standard".
func normalizeComputeType(computeType string) string {
	t := strings.ToLower(strings.TrimSpace(computeType))
	parts := strings.Split(t, "-")
	if len(parts) > 2 {
		t = parts[0] + "-" + parts[1]
	}
	return t
}

// Security delivers instruction sets to a customer's preferred contact.
type Security struct {
	catalog   InstructionCatalog
	customers customer.Repository
	mailer    Mailer
	sms       SMSSender
	logger    zerolog.Logger
}

// NewSecurity builds a sender. sms may be nil when SMS is not configured.
func NewSecurity(catalog InstructionCatalog, customers customer.Repository, mailer Mailer, sms SMSSender) *Security {
	return &Security{
		catalog:   catalog,
		customers: customers,
		mailer:    mailer,
		sms:       sms,
		logger:    log.With().Str("component", "security").Logger(),
	}
}

func (s *Security) Send(ctx context.Context, customerID, computeType, method string) Result {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		method = "email"
	}
	if method != "email" && method != "sms" {
		return failed(fmt.Sprintf("delivery_method must be email or sms, got %q", method))
	}

	c, err := s.customers.Get(ctx, customerID)
	if errors.Is(err, customer.ErrNotFound) {
		return failed(fmt.Sprintf("customer %s not found", customerID))
	}
	if err != nil {
		return failed(fmt.Sprintf("looking up customer: %v", err))
	}

	label := strings.TrimSpace(computeType)
	if label == "" {
		label = "Compute Engine"
	}
	lines, known := s.catalog.For(computeType)
	if !known {
		s.logger.Warn().Str("compute_type", computeType).Msg("no type-specific instructions, sending base set")
	}
	body := fmt.Sprintf("Security Best Practices for %s:\n%s", label, strings.Join(lines, "\n"))

	s.logger.Info().Str("customer_id", c.CustomerID).Str("method", method).Str("compute_type", label).Msg("sending security instructions")
	switch method {
	case "sms":
		if !c.CommunicationPreferences.SMS {
			return failed(fmt.Sprintf("customer %s has opted out of sms", c.CustomerID))
		}
		if s.sms == nil {
			return failed("sms delivery is not configured")
		}
		err = s.sms.SendSMS(ctx, c.PhoneNumber, body)
	default:
		if !c.CommunicationPreferences.Email {
			return failed(fmt.Sprintf("customer %s has opted out of email", c.CustomerID))
		}
		err = s.mailer.Send(ctx, Message{
			To:      c.Email,
			Subject: "Security Best Practices for " + label,
			Text:    body,
		})
	}
	if err != nil {
		s.logger.Error().Err(err).Str("customer_id", c.CustomerID).Msg("delivering security instructions failed")
		return failed(fmt.Sprintf("failed to deliver security instructions via %s: %v", method, err))
	}

	msg := fmt.Sprintf("Security instructions for %s sent via %s.", label, method)
	if !known {
		msg += " Only general guidance was included."
	}
	return Result{Status: StatusSuccess, Message: msg}
}
