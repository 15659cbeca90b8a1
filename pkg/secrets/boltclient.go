package secrets

import (
	"fmt"

	"github.com/cuemby/teardown/pkg/security"
	"github.com/cuemby/teardown/pkg/storage"
)

// secretsRoot is the store subtree under which every namespace's secrets
// live, keeping TLS material out of the coordinator's own FrameworkId/Tasks
// subtree.
const secretsRoot = "Secrets"

// BoltClient implements Client over a storage.Store, encrypting each
// secret's contents at rest with a security.SecretsManager (AES-256-GCM).
// The namespace-scoped list/delete idiom scopes a framework's secrets to
// its own namespace, the same way a task's secrets are scoped to its own
// directory elsewhere in the codebase.
type BoltClient struct {
	store   storage.Store
	manager *security.SecretsManager
}

// NewBoltClient returns a Client backed by store, encrypting with manager.
func NewBoltClient(store storage.Store, manager *security.SecretsManager) *BoltClient {
	return &BoltClient{store: store, manager: manager}
}

func namespacePath(namespace string) string {
	return secretsRoot + "/" + namespace
}

func secretPath(namespace, name string) string {
	return namespacePath(namespace) + "/" + name
}

// List returns the names of every secret stored under namespace.
func (c *BoltClient) List(namespace string) ([]string, error) {
	children, err := c.store.GetChildren(namespacePath(namespace))
	if err != nil {
		return nil, fmt.Errorf("secrets: listing namespace %q: %w", namespace, err)
	}
	return children, nil
}

// Delete removes the named secret from namespace.
func (c *BoltClient) Delete(namespace, name string) error {
	if err := c.store.DeleteAll(secretPath(namespace, name)); err != nil {
		return fmt.Errorf("secrets: deleting %s/%s: %w", namespace, name, err)
	}
	return nil
}

// Put encrypts plaintext and stores it under namespace/name. Secrets never
// arrive through the coordinator's Client interface, but something upstream
// of the TLS-cleanup phase has to seed them; this is that seam for
// deployments and tests wiring a BoltClient directly.
func (c *BoltClient) Put(namespace, name string, plaintext []byte) error {
	secret, err := c.manager.CreateSecret(name, plaintext)
	if err != nil {
		return fmt.Errorf("secrets: encrypting %s/%s: %w", namespace, name, err)
	}
	if err := c.store.Set(secretPath(namespace, name), secret.Data); err != nil {
		return fmt.Errorf("secrets: storing %s/%s: %w", namespace, name, err)
	}
	return nil
}

// Get decrypts and returns the plaintext contents of the named secret.
func (c *BoltClient) Get(namespace, name string) ([]byte, error) {
	data, err := c.store.Get(secretPath(namespace, name))
	if err != nil {
		return nil, fmt.Errorf("secrets: reading %s/%s: %w", namespace, name, err)
	}
	plaintext, err := c.manager.DecryptSecret(data)
	if err != nil {
		return nil, fmt.Errorf("secrets: decrypting %s/%s: %w", namespace, name, err)
	}
	return plaintext, nil
}
