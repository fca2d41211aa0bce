package opatool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/policyforge/policyforge-backend/internal/platform/ctxutil"
	"github.com/policyforge/policyforge-backend/internal/platform/envutil"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

// Tools shells out to the OPA binary for policy validation and evaluation.
// When the binary is absent the service degrades to a structural check and
// says so in the warnings, rather than failing hard.
//
// REQUIRED BINARY (optional at runtime): opa
type Tools interface {
	Available() bool
	Validate(ctx context.Context, rego string) (*ValidationResult, error)
	Evaluate(ctx context.Context, rego string, input map[string]any) (*EvaluationResult, error)
}

type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type EvaluationResult struct {
	Result   map[string]any `json:"result,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Command  string         `json:"command,omitempty"`
}

type tools struct {
	log *logger.Logger

	opaPath        string
	evalQuery      string
	defaultTimeout time.Duration
}

func New(log *logger.Logger) Tools {
	opaPath := envutil.String("OPA_BINARY_PATH", "")
	if opaPath == "" {
		if found, err := exec.LookPath("opa"); err == nil {
			opaPath = found
		}
	}
	return &tools{
		log:            log.With("tools", "opa"),
		opaPath:        opaPath,
		evalQuery:      envutil.String("OPA_EVAL_QUERY", "data.curation.policies.allow"),
		defaultTimeout: time.Duration(envutil.Int("OPA_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func (t *tools) Available() bool { return t.opaPath != "" }

func (t *tools) Validate(ctx context.Context, rego string) (*ValidationResult, error) {
	ctx = ctxutil.Default(ctx)
	res := &ValidationResult{}

	if strings.TrimSpace(rego) == "" {
		res.Errors = append(res.Errors, "rego content is empty")
		return res, nil
	}

	if !t.Available() {
		res.Warnings = append(res.Warnings, "opa binary not configured; performed only basic validation")
		if !strings.Contains(rego, "package") {
			res.Errors = append(res.Errors, "rego policy must contain a package declaration")
		}
		res.Valid = len(res.Errors) == 0
		return res, nil
	}

	dir, err := os.MkdirTemp("", "opatool-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	regoPath := filepath.Join(dir, "policy.rego")
	if err := os.WriteFile(regoPath, []byte(rego), 0o644); err != nil {
		return nil, fmt.Errorf("write policy file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.defaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.opaPath, "fmt", regoPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = "opa returned non-zero exit status during validation"
		}
		res.Errors = append(res.Errors, msg)
		return res, nil
	}

	res.Valid = true
	return res, nil
}

func (t *tools) Evaluate(ctx context.Context, rego string, input map[string]any) (*EvaluationResult, error) {
	ctx = ctxutil.Default(ctx)
	res := &EvaluationResult{}

	if strings.TrimSpace(rego) == "" {
		res.Errors = append(res.Errors, "rego content is empty")
		return res, nil
	}

	if !t.Available() {
		res.Warnings = append(res.Warnings, "opa binary not configured; evaluation is unavailable")
		return res, nil
	}

	dir, err := os.MkdirTemp("", "opatool-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	regoPath := filepath.Join(dir, "policy.rego")
	if err := os.WriteFile(regoPath, []byte(rego), 0o644); err != nil {
		return nil, fmt.Errorf("write policy file: %w", err)
	}

	inputRaw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal eval input: %w", err)
	}
	inputPath := filepath.Join(dir, "input.json")
	if err := os.WriteFile(inputPath, inputRaw, 0o644); err != nil {
		return nil, fmt.Errorf("write input file: %w", err)
	}

	args := []string{
		"eval",
		"-f", "json",
		"-i", inputPath,
		"-d", regoPath,
		t.evalQuery,
	}
	res.Command = t.opaPath + " " + strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(ctx, t.defaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.opaPath, args...)
	stdout, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		if stderr == "" {
			stderr = "opa evaluation failed"
		}
		res.Errors = append(res.Errors, stderr)
		return res, nil
	}

	trimmed := strings.TrimSpace(string(stdout))
	if trimmed == "" {
		res.Warnings = append(res.Warnings, "opa returned an empty result set")
		return res, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		res.Errors = append(res.Errors, "failed to parse opa output")
		return res, nil
	}
	res.Result = parsed
	return res, nil
}
