package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"solana-orchestrator/crypto"
)

// credentialTTL bounds how long a staged credential can be taken; an expired
// entry is refused by Take and evicted by Take or by the next Put.
const credentialTTL = 2 * time.Minute

// credentialCache holds the custody private key POST /sol/swap carries on
// every call, encrypted at rest with crypto/encryption.go the way the
// teacher encrypts a user's private key, for the span between decoding the
// request and actually needing the key to sign — never written to disk,
// purged immediately after a single read, or by the next Put once expired.
type credentialCache struct {
	mu      sync.Mutex
	entries map[string]cachedCredential
}

type cachedCredential struct {
	wallet    *crypto.EncryptedWallet
	expiresAt time.Time
}

func newCredentialCache() *credentialCache {
	return &credentialCache{entries: make(map[string]cachedCredential)}
}

// Put encrypts value under passphrase and stores it under key, replacing
// any existing entry and evicting every expired one.
func (c *credentialCache) Put(key, value, passphrase string) error {
	enc, err := crypto.EncryptPrivateKey(value, passphrase)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cachedCredential{wallet: enc, expiresAt: time.Now().Add(credentialTTL)}
	return nil
}

// Take decrypts and removes the entry under key, failing closed once it has
// expired or already been consumed.
func (c *credentialCache) Take(key, passphrase string) (string, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if !ok {
		return "", errors.New("credential cache: no entry for key")
	}
	if time.Now().After(entry.expiresAt) {
		return "", errors.New("credential cache: entry expired")
	}
	return crypto.DecryptPrivateKey(entry.wallet, passphrase)
}

// randomPassphrase generates a one-time passphrase to stage a single
// request's credential under; never transmitted or reused.
func randomPassphrase() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
