package routing

import (
	"context"
	"fmt"

	"github.com/d5/tengo/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RoutingService evaluates routing-rule scripts against a resolved
// default chain. A broken or failing rule is logged and skipped so a
// bad script can never block request creation.
type RoutingService interface {
	ExtraApprovers(ctx context.Context, input ChainInput) ([]primitive.ObjectID, error)
	CreateRule(ctx context.Context, rule *RoutingRule) (*RoutingRule, error)
	GetRule(ctx context.Context, id string) (*RoutingRule, error)
	ListRules(ctx context.Context) ([]RoutingRule, error)
	UpdateRule(ctx context.Context, id string, rule *RoutingRule) error
	DeleteRule(ctx context.Context, id string) error
}

type RoutingServiceImpl struct {
	repo RoutingRuleRepository
	log  *zap.Logger
}

func NewRoutingService(repo RoutingRuleRepository, log *zap.Logger) RoutingService {
	return &RoutingServiceImpl{
		repo: repo,
		log:  log,
	}
}

// ExtraApprovers runs every applicable rule, highest priority first,
// and collects the approver ids the scripts appended. Duplicates and
// invalid ids are dropped here; the chain resolver still dedups
// against the base chain.
func (s *RoutingServiceImpl) ExtraApprovers(ctx context.Context, input ChainInput) ([]primitive.ObjectID, error) {
	rules, err := s.repo.FindApplicable(ctx, input.BranchID, input.RequestType)
	if err != nil {
		return nil, err
	}

	var extras []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool)

	for _, rule := range rules {
		ids, err := s.runRule(rule, input)
		if err != nil {
			s.log.Warn("routing rule failed, skipping",
				zap.String("rule", rule.Name),
				zap.Error(err))
			continue
		}
		for _, id := range ids {
			if id == input.RequesterID || seen[id] {
				continue
			}
			seen[id] = true
			extras = append(extras, id)
		}
	}

	return extras, nil
}

func (s *RoutingServiceImpl) runRule(rule RoutingRule, input ChainInput) ([]primitive.ObjectID, error) {
	script := tengo.NewScript([]byte(rule.Script))

	script.Add("request_type", input.RequestType)
	script.Add("branch_id", input.BranchID.Hex())
	script.Add("requester_id", input.RequesterID.Hex())
	script.Add("noted_by", hexSlice(input.NotedBy))
	script.Add("approved_by", hexSlice(input.ApprovedBy))
	script.Add("extra_approved_by", []interface{}{})

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile script: %w", err)
	}

	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("failed to run script: %w", err)
	}

	raw := compiled.Get("extra_approved_by").Array()
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		hex, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("extra_approved_by entries must be strings, got %T", v)
		}
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, fmt.Errorf("invalid approver id %q: %w", hex, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func hexSlice(ids []primitive.ObjectID) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

func (s *RoutingServiceImpl) CreateRule(ctx context.Context, rule *RoutingRule) (*RoutingRule, error) {
	if rule.Script == "" {
		return nil, fmt.Errorf("script content is required")
	}
	if _, err := tengo.NewScript([]byte(rule.Script)).Compile(); err != nil {
		return nil, fmt.Errorf("failed to compile script: %w", err)
	}
	return s.repo.Create(ctx, rule)
}

func (s *RoutingServiceImpl) GetRule(ctx context.Context, id string) (*RoutingRule, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid rule ID")
	}
	return s.repo.FindByID(ctx, objID)
}

func (s *RoutingServiceImpl) ListRules(ctx context.Context) ([]RoutingRule, error) {
	return s.repo.List(ctx)
}

func (s *RoutingServiceImpl) UpdateRule(ctx context.Context, id string, rule *RoutingRule) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid rule ID")
	}
	if rule.Script == "" {
		return fmt.Errorf("script content is required")
	}
	if _, err := tengo.NewScript([]byte(rule.Script)).Compile(); err != nil {
		return fmt.Errorf("failed to compile script: %w", err)
	}
	return s.repo.Update(ctx, objID, rule)
}

func (s *RoutingServiceImpl) DeleteRule(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid rule ID")
	}
	return s.repo.Delete(ctx, objID)
}
