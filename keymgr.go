// keymgr.go: Key manager provider interface for deriving hardware-backed keys
//
// A hardware-backed blinded key stores only diversification data. A key manager
// provider turns that data into the two shares of the actual key. Providers are
// registered with a KeymgrManager, which can also front out-of-process providers
// through github.com/agilira/go-plugins.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"context"
	"errors"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	goerrors "github.com/agilira/go-errors"
	goplugins "github.com/agilira/go-plugins"
	"golang.org/x/crypto/hkdf"
)

// KeymgrProvider derives key shares from diversification data.
type KeymgrProvider interface {
	// Provider Information
	Name() string    // Provider name (e.g., "software", "otp-keymgr")
	Version() string // Provider version

	// Lifecycle Management
	Initialize(ctx context.Context, config map[string]interface{}) error
	Close() error
	IsHealthy() bool

	// Derive returns two shares of shareWords words each whose XOR is the key
	// selected by div.
	Derive(ctx context.Context, div Diversification, shareWords int) (share0, share1 []uint32, err error)
}

// KeymgrManagerConfig provides configuration for the key manager registry
type KeymgrManagerConfig struct {
	DefaultProvider  string                            `json:"default_provider"`  // Default provider to use
	ProviderConfigs  map[string]map[string]interface{} `json:"provider_configs"`  // Per-provider configurations
	OperationTimeout time.Duration                     `json:"operation_timeout"` // Timeout for Initialize and Derive
}

// KeymgrRequest is a derivation request sent to a plugin provider
type KeymgrRequest struct {
	Operation       string          `json:"operation"`   // "derive"
	Diversification Diversification `json:"diversification"`
	ShareWords      int             `json:"share_words"`
}

// KeymgrResponse is a plugin provider's answer to a KeymgrRequest
type KeymgrResponse struct {
	Share0 []uint32 `json:"share0"`
	Share1 []uint32 `json:"share1"`
	Error  string   `json:"error"`
}

// Key manager errors with codes for auditing
var (
	ErrKeymgrNotInitialized   = goerrors.New("KEYMGR_001", "key manager provider not initialized")
	ErrKeymgrProviderNotFound = goerrors.New("KEYMGR_002", "key manager provider not found")
	ErrKeymgrUnhealthy        = goerrors.New("KEYMGR_003", "key manager health check failed")
	ErrKeymgrDerivation       = goerrors.New("KEYMGR_004", "key manager derivation failed")
	ErrKeymgrInvalidConfig    = goerrors.New("KEYMGR_005", "invalid key manager configuration")
)

// KeymgrManager holds the registered key manager providers.
type KeymgrManager struct {
	mu              sync.RWMutex
	pluginManager   *goplugins.Manager[KeymgrRequest, KeymgrResponse] // Out-of-process providers
	plugins         KeymgrPluginExecutor                              // pluginManager, or nil
	providers       map[string]KeymgrProvider
	defaultProvider string
	config          *KeymgrManagerConfig
	remasker        *Remasker
}

// NewKeymgrManager creates a manager. A nil config uses a 10 second operation
// timeout; pluginManager may be nil when only in-process providers are used.
func NewKeymgrManager(config *KeymgrManagerConfig, pluginManager *goplugins.Manager[KeymgrRequest, KeymgrResponse]) *KeymgrManager {
	if config == nil {
		config = &KeymgrManagerConfig{
			OperationTimeout: 10 * time.Second,
		}
	}

	m := &KeymgrManager{
		pluginManager: pluginManager,
		providers:     make(map[string]KeymgrProvider),
		config:        config,
		remasker:      defaultRemasker,
	}
	if pluginManager != nil {
		m.plugins = pluginManager
	}
	return m
}

// PluginManager returns the plugin manager backing out-of-process providers, or nil.
func (m *KeymgrManager) PluginManager() *goplugins.Manager[KeymgrRequest, KeymgrResponse] {
	return m.pluginManager
}

func (m *KeymgrManager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := m.config.OperationTimeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// RegisterProvider initializes provider with its configured settings and adds it
// under name.
func (m *KeymgrManager) RegisterProvider(name string, provider KeymgrProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if provider == nil {
		return fmt.Errorf("%w: provider cannot be nil", ErrBadArgs)
	}

	ctx, cancel := m.withTimeout(context.Background())
	defer cancel()

	if err := provider.Initialize(ctx, m.config.ProviderConfigs[name]); err != nil {
		return fmt.Errorf("failed to initialize key manager provider %s: %w", name, err)
	}

	m.providers[name] = provider

	if m.defaultProvider == "" || m.config.DefaultProvider == name {
		m.defaultProvider = name
	}

	Logger().Debug("key manager provider registered", "provider", name, "version", provider.Version())
	return nil
}

// GetProvider returns a healthy provider by name; "" selects the default.
//
// Names not registered in-process are resolved as plugins of the plugin manager,
// when one was supplied.
func (m *KeymgrManager) GetProvider(name string) (KeymgrProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == "" {
		name = m.defaultProvider
	}

	provider, exists := m.providers[name]
	if !exists {
		if m.plugins == nil || name == "" {
			return nil, fmt.Errorf("%w: provider %s", ErrKeymgrProviderNotFound, name)
		}
		return NewPluginKeymgr(name, m.plugins), nil
	}
	if !provider.IsHealthy() {
		return nil, fmt.Errorf("%w: provider %s", ErrKeymgrUnhealthy, name)
	}
	return provider, nil
}

// DeriveBlindedKey derives the key selected by the hardware-backed key hwKey and
// returns it as an XOR-masked blinded key with the same mode and length.
func (m *KeymgrManager) DeriveBlindedKey(ctx context.Context, providerName string, hwKey *BlindedKey) (key *BlindedKey, err error) {
	defer func() { recordOperation(OpDerive, err) }()

	div, err := ExtractDiversification(hwKey)
	if err != nil {
		return nil, err
	}

	provider, err := m.GetProvider(providerName)
	if err != nil {
		return nil, err
	}

	config := hwKey.Config
	config.HWBacked = HardenedBoolFalse
	if err := EnsureXorMaskable(config); err != nil {
		return nil, err
	}
	w := ShareSizeWords(config)

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	share0, share1, err := provider.Derive(ctx, div, w)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeymgrDerivation, err)
	}
	defer ZeroizeWords(share0)
	defer ZeroizeWords(share1)

	total := TotalBlobWords(config)
	key = &BlindedKey{
		Config:        config,
		Keyblob:       make([]uint32, total),
		KeyblobLength: total * wordBytes,
	}
	if err := CombineFromShares(share0, share1, config, key.Keyblob); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeymgrDerivation, err)
	}
	key.Checksum = m.remasker.checksum(key.Config, key.Keyblob)

	Logger().Debug("derived hardware-backed key", "provider", provider.Name(), "config", config.String(), "version", div.Version)
	return key, nil
}

// Close shuts down every registered provider and reports all failures together.
// Plugins resolved through the plugin manager are owned by it and stay open.
func (m *KeymgrManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("key manager provider %s: %w", name, err))
		}
		delete(m.providers, name)
	}
	m.defaultProvider = ""
	return errors.Join(errs...)
}

// SoftwareKeymgr is an in-process KeymgrProvider for development and tests.
//
// Keys are HKDF-SHA256 of a device secret, salted with the diversification salt
// and bound to its version, and are returned under a fresh random mask. It offers
// none of the protection of a hardware key manager.
type SoftwareKeymgr struct {
	mu     sync.RWMutex
	secret []byte
}

// MinDeviceSecretSize is the smallest device secret SoftwareKeymgr accepts.
const MinDeviceSecretSize = 32

const softwareKeymgrInfo = "keyblob-keymgr"

// NewSoftwareKeymgr creates an uninitialized software provider.
func NewSoftwareKeymgr() *SoftwareKeymgr {
	return &SoftwareKeymgr{}
}

func (s *SoftwareKeymgr) Name() string    { return "software" }
func (s *SoftwareKeymgr) Version() string { return "1.0.0" }

// Initialize reads "device_secret" ([]byte, at least MinDeviceSecretSize bytes).
func (s *SoftwareKeymgr) Initialize(ctx context.Context, config map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	secret, ok := config["device_secret"].([]byte)
	if !ok || len(secret) < MinDeviceSecretSize {
		return fmt.Errorf("%w: device_secret must be at least %d bytes", ErrKeymgrInvalidConfig, MinDeviceSecretSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = append([]byte(nil), secret...)
	return nil
}

// Close wipes the device secret.
func (s *SoftwareKeymgr) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	Zeroize(s.secret)
	s.secret = nil
	return nil
}

func (s *SoftwareKeymgr) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secret != nil
}

// Derive implements KeymgrProvider.
func (s *SoftwareKeymgr) Derive(ctx context.Context, div Diversification, shareWords int) ([]uint32, []uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if shareWords <= 0 {
		return nil, nil, badArgs(ErrCodeInvalidLength, fmt.Sprintf("share size must be positive, got %d", shareWords))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.secret == nil {
		return nil, nil, ErrKeymgrNotInitialized
	}

	salt := make([]byte, KeymgrSaltNumWords*wordBytes)
	for i, w := range div.Salt {
		binary.LittleEndian.PutUint32(salt[i*wordBytes:], w)
	}
	info := binary.LittleEndian.AppendUint32([]byte(softwareKeymgrInfo), div.Version)

	okm := make([]byte, shareWords*wordBytes)
	defer Zeroize(okm)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.secret, salt, info), okm); err != nil {
		return nil, nil, goerrors.Wrap(err, "KEYMGR_HKDF", "failed to derive key material")
	}
	key := WordsFromBytes(okm)
	defer ZeroizeWords(key)

	maskBytes := make([]byte, shareWords*wordBytes)
	defer Zeroize(maskBytes)
	if _, err := io.ReadFull(randReader, maskBytes); err != nil {
		return nil, nil, goerrors.Wrap(err, ErrCodeMaskGen, "failed to generate mask")
	}
	mask := WordsFromBytes(maskBytes)

	share0 := make([]uint32, shareWords)
	for i := range share0 {
		share0[i] = key[i] ^ mask[i]
	}
	return share0, mask, nil
}
