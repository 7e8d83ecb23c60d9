package routing

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeRuleRepo struct {
	rules []RoutingRule
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *RoutingRule) (*RoutingRule, error) {
	f.rules = append(f.rules, *rule)
	return rule, nil
}

func (f *fakeRuleRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*RoutingRule, error) {
	return nil, nil
}

func (f *fakeRuleRepo) FindApplicable(ctx context.Context, branchID primitive.ObjectID, requestType string) ([]RoutingRule, error) {
	return f.rules, nil
}

func (f *fakeRuleRepo) List(ctx context.Context) ([]RoutingRule, error) { return f.rules, nil }

func (f *fakeRuleRepo) Update(ctx context.Context, id primitive.ObjectID, rule *RoutingRule) error {
	return nil
}

func (f *fakeRuleRepo) Delete(ctx context.Context, id primitive.ObjectID) error { return nil }

func TestExtraApproversAppendsFromScript(t *testing.T) {
	extra := primitive.NewObjectID()
	repo := &fakeRuleRepo{rules: []RoutingRule{
		{
			Name:    "add compliance officer",
			Enabled: true,
			Script:  `extra_approved_by = append(extra_approved_by, "` + extra.Hex() + `")`,
		},
	}}
	service := NewRoutingService(repo, zap.NewNop())

	ids, err := service.ExtraApprovers(context.Background(), ChainInput{
		RequestType: "purchase",
		BranchID:    primitive.NewObjectID(),
		RequesterID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("ExtraApprovers: %v", err)
	}
	if len(ids) != 1 || ids[0] != extra {
		t.Fatalf("expected [%s], got %v", extra.Hex(), ids)
	}
}

func TestExtraApproversConditionalOnType(t *testing.T) {
	extra := primitive.NewObjectID()
	repo := &fakeRuleRepo{rules: []RoutingRule{
		{
			Name:    "big purchase escalation",
			Enabled: true,
			Script: `if request_type == "purchase" {
	extra_approved_by = append(extra_approved_by, "` + extra.Hex() + `")
}`,
		},
	}}
	service := NewRoutingService(repo, zap.NewNop())

	ids, err := service.ExtraApprovers(context.Background(), ChainInput{
		RequestType: "leave",
		BranchID:    primitive.NewObjectID(),
		RequesterID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("ExtraApprovers: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no extras for non-matching type, got %v", ids)
	}
}

func TestExtraApproversSkipsRequesterAndDuplicates(t *testing.T) {
	requester := primitive.NewObjectID()
	extra := primitive.NewObjectID()
	script := `extra_approved_by = append(extra_approved_by, "` + extra.Hex() + `", "` + extra.Hex() + `", "` + requester.Hex() + `")`
	repo := &fakeRuleRepo{rules: []RoutingRule{
		{Name: "dupes", Enabled: true, Script: script},
	}}
	service := NewRoutingService(repo, zap.NewNop())

	ids, err := service.ExtraApprovers(context.Background(), ChainInput{
		RequesterID: requester,
	})
	if err != nil {
		t.Fatalf("ExtraApprovers: %v", err)
	}
	if len(ids) != 1 || ids[0] != extra {
		t.Fatalf("expected deduped [%s], got %v", extra.Hex(), ids)
	}
}

func TestExtraApproversSkipsBrokenRule(t *testing.T) {
	extra := primitive.NewObjectID()
	repo := &fakeRuleRepo{rules: []RoutingRule{
		{Name: "broken", Enabled: true, Script: `this is not tengo`},
		{Name: "good", Enabled: true, Script: `extra_approved_by = append(extra_approved_by, "` + extra.Hex() + `")`},
	}}
	service := NewRoutingService(repo, zap.NewNop())

	ids, err := service.ExtraApprovers(context.Background(), ChainInput{
		RequesterID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("broken rule must not fail resolution: %v", err)
	}
	if len(ids) != 1 || ids[0] != extra {
		t.Fatalf("expected [%s] from surviving rule, got %v", extra.Hex(), ids)
	}
}

func TestCreateRuleRejectsBadScript(t *testing.T) {
	service := NewRoutingService(&fakeRuleRepo{}, zap.NewNop())

	if _, err := service.CreateRule(context.Background(), &RoutingRule{Name: "x", Script: ""}); err == nil {
		t.Fatal("expected error for empty script")
	}
	if _, err := service.CreateRule(context.Background(), &RoutingRule{Name: "x", Script: `for {`}); err == nil {
		t.Fatal("expected error for invalid script")
	}
}
