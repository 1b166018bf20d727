package consul

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"

	"github.com/mwantia/snaptree/data"
	"github.com/mwantia/snaptree/source"
)

// ConsulSource browses a HashiCorp Consul KV namespace as a snapshot
// hierarchy. Keys are laid out as "<prefix><root>/<snapshot><path>";
// immediate children come from separator key listings, so directories
// are the subprefixes Consul reports.
//
// Consul keys carry no metadata beyond the key itself, so file sizes
// and modification times stay unset.
type ConsulSource struct {
	mu     sync.RWMutex
	client *api.Client
	kv     *api.KV

	config *ConsulSourceConfig
}

// ConsulSourceConfig contains configuration options for the Consul source
type ConsulSourceConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Prefix for all keys in Consul KV (optional)
	Prefix string
}

// NewConsulSource creates a Consul-backed child source
func NewConsulSource(config *ConsulSourceConfig) (*ConsulSource, error) {
	if config == nil {
		config = &ConsulSourceConfig{}
	}

	// Set defaults
	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulSource{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Name returns the identifier name defined for this source.
func (*ConsulSource) Name() string {
	return "consul"
}

// Open is part of the lifecycle behaviour and gets called when opening this source.
func (cs *ConsulSource) Open(ctx context.Context) error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if _, err := cs.client.Status().Leader(); err != nil {
		return fmt.Errorf("consul: unable to reach cluster: %w", err)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this source.
func (cs *ConsulSource) Close(ctx context.Context) error {
	return nil
}

// FetchImmediateChildren returns every direct child of parentPath
// under the given browse context.
func (cs *ConsulSource) FetchImmediateChildren(ctx context.Context, bctx data.BrowseContext, parentPath string) ([]data.Entry, error) {
	base := fmt.Sprintf("%s%d/%d", cs.config.Prefix, bctx.RootID, bctx.SnapshotID)
	prefix := base + data.NormalizePath(parentPath)
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	cs.mu.RLock()
	defer cs.mu.RUnlock()

	keys, _, err := cs.kv.Keys(prefix, "/", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}

	entries := make([]data.Entry, 0, len(keys))
	for _, key := range keys {
		if key == prefix {
			continue
		}

		path := data.NormalizePath(strings.TrimPrefix(key, base))
		entry := data.NewEntry(source.PathID(path), path, data.KindFile)
		if strings.HasSuffix(key, "/") {
			entry.Kind = data.KindDirectory
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
