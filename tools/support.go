package tools

import (
	"context"
	"errors"
	"fmt"

	"nexuslm/cart"
	"nexuslm/crm"
	"nexuslm/notify"
	"nexuslm/recommend"
)

// InvitationTool mails a video-session link to a customer.
type InvitationTool struct {
	invitations *notify.Invitations
}

func NewInvitationTool(invitations *notify.Invitations) *InvitationTool {
	return &InvitationTool{invitations: invitations}
}

func (t *InvitationTool) Name() string {
	return "send_meeting_invitation"
}

func (t *InvitationTool) Description() string {
	return "Send a video meeting invitation link to the customer's e-mail address so a support engineer can investigate an issue live."
}

func (t *InvitationTool) Parameters() map[string]any {
	return schema([]string{"receiver_email"}, map[string]any{
		"receiver_email": prop("string", "E-mail address that receives the invitation"),
	})
}

func (t *InvitationTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	recipient, err := stringArg(args, "receiver_email", true)
	if err != nil {
		return "", err
	}
	return jsonResult(t.invitations.Send(ctx, recipient))
}

// CRMTool pushes confirmed customer detail updates to HubSpot.
type CRMTool struct {
	updater *crm.Updater
}

func NewCRMTool(updater *crm.Updater) *CRMTool {
	return &CRMTool{updater: updater}
}

func (t *CRMTool) Name() string {
	return "update_hubspot_crm"
}

func (t *CRMTool) Description() string {
	return "Update the customer's HubSpot CRM record. Ask the customer to confirm the exact changes first and only set confirmed=true once they have agreed."
}

func (t *CRMTool) Parameters() map[string]any {
	return schema([]string{"customer_id", "details"}, map[string]any{
		"customer_id": prop("string", "HubSpot contact id of the customer"),
		"details":     prop("object", "Properties to update, e.g. {\"phone\": \"+1 555 0100\"}"),
		"confirmed":   prop("boolean", "True only after the customer confirmed the update"),
	})
}

func (t *CRMTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	confirmed, err := boolArg(args, "confirmed")
	if err != nil {
		return "", err
	}
	if !confirmed {
		customerID, _ := stringArg(args, "customer_id", false)
		return jsonResult(t.updater.Update(ctx, crm.UpdateRequest{CustomerID: customerID}, false))
	}
	customerID, err := stringArg(args, "customer_id", true)
	if err != nil {
		return "", err
	}
	details, err := objectArg(args, "details")
	if err != nil {
		return "", err
	}
	res := t.updater.Update(ctx, crm.UpdateRequest{CustomerID: customerID, Details: details}, confirmed)
	return jsonResult(res)
}

// CartTool prices the compute resources a customer has deployed.
type CartTool struct {
	calculator  *cart.Calculator
	defaultZone string
}

func NewCartTool(calculator *cart.Calculator, defaultZone string) *CartTool {
	return &CartTool{calculator: calculator, defaultZone: defaultZone}
}

func (t *CartTool) Name() string {
	return "retrieve_cart_information"
}

func (t *CartTool) Description() string {
	return "List the customer's Compute Engine instances and disks with their estimated monthly cost and subtotal."
}

func (t *CartTool) Parameters() map[string]any {
	return schema([]string{"customer_id"}, map[string]any{
		"customer_id": prop("string", "Customer id used to label their resources"),
		"zone":        prop("string", "Compute zone, defaults to the configured zone"),
	})
}

func (t *CartTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	customerID, err := stringArg(args, "customer_id", true)
	if err != nil {
		return "", err
	}
	zone, err := stringArg(args, "zone", false)
	if err != nil {
		return "", err
	}
	if zone == "" {
		zone = t.defaultZone
	}

	summary, err := t.calculator.Calculate(ctx, customerID, zone)
	if errors.Is(err, cart.ErrInvalidRequest) {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err != nil {
		return "", err
	}
	return jsonResult(summary)
}

// RecommendationTool suggests machine and disk types for a workload.
type RecommendationTool struct {
	engine      *recommend.Engine
	defaultZone string
}

func NewRecommendationTool(engine *recommend.Engine, defaultZone string) *RecommendationTool {
	return &RecommendationTool{engine: engine, defaultZone: defaultZone}
}

func (t *RecommendationTool) Name() string {
	return "get_product_recommendations"
}

func (t *RecommendationTool) Description() string {
	return "Recommend Compute Engine machine types and a disk type for a web-server or data-processing workload with the given vCPU, memory and storage needs."
}

func (t *RecommendationTool) Parameters() map[string]any {
	return schema([]string{"customer_id", "workload_type", "vcpu_count", "memory_gb", "storage_gb"}, map[string]any{
		"customer_id": prop("string", "Customer id"),
		"workload_type": map[string]any{
			"type":        "string",
			"enum":        []string{string(recommend.WebServer), string(recommend.DataProcessing)},
			"description": "Kind of workload",
		},
		"vcpu_count": prop("integer", "Required vCPUs"),
		"memory_gb":  prop("number", "Required memory in GB"),
		"storage_gb": prop("integer", "Required storage in GB"),
		"zone":       prop("string", "Compute zone, defaults to the configured zone"),
	})
}

func (t *RecommendationTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if _, err := stringArg(args, "customer_id", true); err != nil {
		return "", err
	}
	workload, err := stringArg(args, "workload_type", true)
	if err != nil {
		return "", err
	}
	zone, err := stringArg(args, "zone", false)
	if err != nil {
		return "", err
	}
	if zone == "" {
		zone = t.defaultZone
	}

	req, err := recommend.ParseRequest(workload, args["vcpu_count"], args["memory_gb"], args["storage_gb"], zone)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	items, err := t.engine.Recommend(ctx, req)
	if errors.Is(err, recommend.ErrInvalidRequest) {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err != nil {
		return "", err
	}
	return jsonResult(map[string]any{"recommendations": items})
}

// SecurityTool sends security best practices for a compute type.
type SecurityTool struct {
	security *notify.Security
}

func NewSecurityTool(security *notify.Security) *SecurityTool {
	return &SecurityTool{security: security}
}

func (t *SecurityTool) Name() string {
	return "send_security_instructions"
}

func (t *SecurityTool) Description() string {
	return "Send security best practices for a Compute Engine machine type to the customer by e-mail or SMS."
}

func (t *SecurityTool) Parameters() map[string]any {
	return schema([]string{"customer_id"}, map[string]any{
		"customer_id":  prop("string", "Customer id"),
		"compute_type": prop("string", "Machine type or family, e.g. n2-standard-4"),
		"delivery_method": map[string]any{
			"type":        "string",
			"enum":        []string{"email", "sms"},
			"description": "How to deliver the instructions, defaults to email",
		},
	})
}

func (t *SecurityTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	customerID, err := stringArg(args, "customer_id", true)
	if err != nil {
		return "", err
	}
	computeType, err := stringArg(args, "compute_type", false)
	if err != nil {
		return "", err
	}
	method, err := stringArg(args, "delivery_method", false)
	if err != nil {
		return "", err
	}
	return jsonResult(t.security.Send(ctx, customerID, computeType, method))
}
