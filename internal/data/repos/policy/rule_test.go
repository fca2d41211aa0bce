package policy

import (
	"context"
	"testing"

	"github.com/policyforge/policyforge-backend/internal/data/repos/testutil"
)

func TestRuleRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewRuleRepo(db, testutil.Logger(t))

	tmpl := testutil.SeedTemplate(t, ctx, tx, "tmpl-for-rules")
	rule := testutil.SeedRule(t, ctx, tx, tmpl.ID, "rule-repo")

	got, err := repo.GetByID(ctx, tx, rule.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TemplateID != tmpl.ID {
		t.Fatalf("rule references wrong template: %s", got.TemplateID)
	}

	count, err := repo.CountByTemplateID(ctx, tx, tmpl.ID)
	if err != nil || count != 1 {
		t.Fatalf("CountByTemplateID: err=%v count=%d", err, count)
	}

	rows, err := repo.List(ctx, tx)
	if err != nil || len(rows) == 0 {
		t.Fatalf("List: err=%v len=%d", err, len(rows))
	}

	if err := repo.DeleteByID(ctx, tx, rule.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if count, err := repo.CountByTemplateID(ctx, tx, tmpl.ID); err != nil || count != 0 {
		t.Fatalf("count after delete: err=%v count=%d", err, count)
	}
}

func TestRuleVersionRepoChain(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewRuleVersionRepo(db, testutil.Logger(t))

	tmpl := testutil.SeedTemplate(t, ctx, tx, "tmpl-for-rule-versions")
	rule := testutil.SeedRule(t, ctx, tx, tmpl.ID, "rule-versions")

	v1 := testutil.SeedRuleVersion(t, ctx, tx, rule.ID, "rule-001-a", nil)
	v2 := testutil.SeedRuleVersion(t, ctx, tx, rule.ID, "rule-002-a", testutil.PtrUUID(v1.ID))

	rows, err := repo.ListByRuleID(ctx, tx, rule.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByRuleID: err=%v len=%d", err, len(rows))
	}
	if rows[0].ID != v2.ID {
		t.Fatalf("expected newest first, got %s", rows[0].VersionRef)
	}
	if rows[1].ParentID != nil {
		t.Fatalf("root version should have nil parent")
	}
	if rows[0].ParentID == nil || *rows[0].ParentID != v1.ID {
		t.Fatalf("chain broken: %+v", rows[0].ParentID)
	}

	latest, err := repo.LatestByRuleID(ctx, tx, rule.ID)
	if err != nil || latest.ID != v2.ID {
		t.Fatalf("LatestByRuleID: err=%v got=%v", err, latest)
	}

	if err := repo.DeleteByRuleID(ctx, tx, rule.ID); err != nil {
		t.Fatalf("DeleteByRuleID: %v", err)
	}
	if count, err := repo.CountByRuleID(ctx, tx, rule.ID); err != nil || count != 0 {
		t.Fatalf("count after delete: err=%v count=%d", err, count)
	}
}
