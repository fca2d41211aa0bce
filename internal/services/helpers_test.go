package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/policyforge/policyforge-backend/internal/data/repos"
	"github.com/policyforge/policyforge-backend/internal/data/repos/testutil"
	"github.com/policyforge/policyforge-backend/internal/platform/jfrog"
)

// fakeRemote stands in for the unified policy API. It records the last
// payload it saw and answers with whatever the test configured.
type fakeRemote struct {
	object      *jfrog.RemoteObject
	err         error
	lastPayload map[string]any
	lastMethod  string
}

func (f *fakeRemote) CreateTemplate(_ context.Context, payload map[string]any) (*jfrog.RemoteObject, error) {
	f.lastMethod = "CreateTemplate"
	f.lastPayload = payload
	return f.object, f.err
}

func (f *fakeRemote) UpdateTemplate(_ context.Context, _ string, payload map[string]any) (*jfrog.RemoteObject, error) {
	f.lastMethod = "UpdateTemplate"
	f.lastPayload = payload
	return f.object, f.err
}

func (f *fakeRemote) GetTemplate(_ context.Context, _ string) (*jfrog.RemoteObject, error) {
	return f.object, f.err
}

func (f *fakeRemote) DeleteTemplate(_ context.Context, _ string) error {
	return f.err
}

func (f *fakeRemote) CreateRule(_ context.Context, payload map[string]any) (*jfrog.RemoteObject, error) {
	f.lastMethod = "CreateRule"
	f.lastPayload = payload
	return f.object, f.err
}

func (f *fakeRemote) UpdateRule(_ context.Context, _ string, payload map[string]any) (*jfrog.RemoteObject, error) {
	f.lastMethod = "UpdateRule"
	f.lastPayload = payload
	return f.object, f.err
}

func (f *fakeRemote) GetRule(_ context.Context, _ string) (*jfrog.RemoteObject, error) {
	return f.object, f.err
}

func (f *fakeRemote) DeleteRule(_ context.Context, _ string) error {
	return f.err
}

type serviceEnv struct {
	tx                  *gorm.DB
	remote              *fakeRemote
	templateRepo        repos.TemplateRepo
	templateVersionRepo repos.TemplateVersionRepo
	ruleRepo            repos.RuleRepo
	ruleVersionRepo     repos.RuleVersionRepo
	versioning          VersioningService
	templates           TemplateService
	rules               RuleService
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	conn := testutil.DB(t)
	logg := testutil.Logger(t)
	tx := testutil.Tx(t, conn)

	templateRepo := repos.NewTemplateRepo(conn, logg)
	templateVersionRepo := repos.NewTemplateVersionRepo(conn, logg)
	ruleRepo := repos.NewRuleRepo(conn, logg)
	ruleVersionRepo := repos.NewRuleVersionRepo(conn, logg)

	remote := &fakeRemote{}
	versioning := NewVersioningService(conn, logg, templateVersionRepo, ruleVersionRepo)

	return &serviceEnv{
		tx:                  tx,
		remote:              remote,
		templateRepo:        templateRepo,
		templateVersionRepo: templateVersionRepo,
		ruleRepo:            ruleRepo,
		ruleVersionRepo:     ruleVersionRepo,
		versioning:          versioning,
		templates:           NewTemplateService(conn, logg, templateRepo, templateVersionRepo, ruleRepo, versioning, remote),
		rules:               NewRuleService(conn, logg, ruleRepo, ruleVersionRepo, templateRepo, versioning, remote),
	}
}

func remoteObject(id string) *jfrog.RemoteObject {
	return &jfrog.RemoteObject{ID: id, StatusCode: 200}
}

func templateInput(name, rego string) TemplateInput {
	return TemplateInput{
		Name:           name,
		Description:    "checks artifact provenance",
		Category:       "security",
		DataSourceType: "scan_result",
		Version:        "1.0.0",
		Rego:           rego,
		Parameters:     []TemplateParameter{{Name: "severity", Type: "string"}},
		Scanners:       []string{"xray"},
		CommitMessage:  "initial draft",
		Author:         "tester",
	}
}
