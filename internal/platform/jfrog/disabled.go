package jfrog

import (
	"context"
	"fmt"
)

// Disabled returns a client that rejects every call. It keeps the server
// bootable when no unified policy credentials are configured; publish
// attempts fail with a clear error instead of a nil dereference.
func Disabled() Client {
	return disabledClient{}
}

type disabledClient struct{}

func (disabledClient) err() error {
	return fmt.Errorf("unified policy client not configured (set JFROG_BASE_URL and JFROG_API_TOKEN)")
}

func (d disabledClient) CreateTemplate(context.Context, map[string]any) (*RemoteObject, error) {
	return nil, d.err()
}

func (d disabledClient) UpdateTemplate(context.Context, string, map[string]any) (*RemoteObject, error) {
	return nil, d.err()
}

func (d disabledClient) GetTemplate(context.Context, string) (*RemoteObject, error) {
	return nil, d.err()
}

func (d disabledClient) DeleteTemplate(context.Context, string) error {
	return d.err()
}

func (d disabledClient) CreateRule(context.Context, map[string]any) (*RemoteObject, error) {
	return nil, d.err()
}

func (d disabledClient) UpdateRule(context.Context, string, map[string]any) (*RemoteObject, error) {
	return nil, d.err()
}

func (d disabledClient) GetRule(context.Context, string) (*RemoteObject, error) {
	return nil, d.err()
}

func (d disabledClient) DeleteRule(context.Context, string) error {
	return d.err()
}
