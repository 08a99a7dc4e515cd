// keymgr_plugin.go: Key manager provider backed by an out-of-process plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"context"
	"fmt"
	"sync"

	goerrors "github.com/agilira/go-errors"
	goplugins "github.com/agilira/go-plugins"
)

// KeymgrOpDerive is the KeymgrRequest operation asking a plugin for key shares.
const KeymgrOpDerive = "derive"

// KeymgrPluginExecutor runs a request against a named plugin.
type KeymgrPluginExecutor interface {
	Execute(ctx context.Context, pluginName string, request KeymgrRequest) (KeymgrResponse, error)
}

var _ KeymgrPluginExecutor = (*goplugins.Manager[KeymgrRequest, KeymgrResponse])(nil)

// PluginKeymgr forwards derivations to the plugin pluginName through an executor,
// normally the go-plugins manager given to NewKeymgrManager.
type PluginKeymgr struct {
	mu         sync.RWMutex
	pluginName string
	executor   KeymgrPluginExecutor
	closed     bool
}

// NewPluginKeymgr creates a provider for pluginName. It is ready for use without
// Initialize.
func NewPluginKeymgr(pluginName string, executor KeymgrPluginExecutor) *PluginKeymgr {
	return &PluginKeymgr{pluginName: pluginName, executor: executor}
}

func (p *PluginKeymgr) Name() string    { return p.pluginName }
func (p *PluginKeymgr) Version() string { return "plugin" }

// Initialize reopens a closed provider. The configuration is owned by the plugin.
func (p *PluginKeymgr) Initialize(ctx context.Context, config map[string]interface{}) error {
	if p.executor == nil {
		return fmt.Errorf("%w: plugin %s has no executor", ErrKeymgrInvalidConfig, p.pluginName)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = false
	return nil
}

func (p *PluginKeymgr) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *PluginKeymgr) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.executor != nil && !p.closed
}

// Derive sends a KeymgrOpDerive request and checks the returned share sizes.
func (p *PluginKeymgr) Derive(ctx context.Context, div Diversification, shareWords int) ([]uint32, []uint32, error) {
	if shareWords <= 0 {
		return nil, nil, badArgs(ErrCodeInvalidLength, fmt.Sprintf("share size must be positive, got %d", shareWords))
	}
	if !p.IsHealthy() {
		return nil, nil, fmt.Errorf("%w: plugin %s", ErrKeymgrNotInitialized, p.pluginName)
	}

	resp, err := p.executor.Execute(ctx, p.pluginName, KeymgrRequest{
		Operation:       KeymgrOpDerive,
		Diversification: div,
		ShareWords:      shareWords,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("plugin %s: %w", p.pluginName, err)
	}
	if resp.Error != "" {
		ZeroizeWords(resp.Share0)
		ZeroizeWords(resp.Share1)
		return nil, nil, goerrors.New("KEYMGR_PLUGIN", fmt.Sprintf("plugin %s: %s", p.pluginName, resp.Error))
	}
	if len(resp.Share0) != shareWords || len(resp.Share1) != shareWords {
		ZeroizeWords(resp.Share0)
		ZeroizeWords(resp.Share1)
		return nil, nil, fmt.Errorf("plugin %s returned shares of %d and %d words, want %d",
			p.pluginName, len(resp.Share0), len(resp.Share1), shareWords)
	}
	return resp.Share0, resp.Share1, nil
}
