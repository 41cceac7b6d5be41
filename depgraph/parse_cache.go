package depgraph

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/PillarGame/TokenSales/depgraph/solidity"
)

const defaultParseCacheSize = 1024

// parseCache memoizes import extraction by content hash, so unchanged files are not
// re-parsed when the same Resolver rebuilds a graph.
type parseCache struct {
	imports *lru.Cache[string, []string]
}

func newParseCache(size int) (*parseCache, error) {
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &parseCache{imports: cache}, nil
}

func (c *parseCache) parseImports(content []byte) ([]string, error) {
	sum := sha256.Sum256(content)
	key := hex.EncodeToString(sum[:])

	if imports, ok := c.imports.Get(key); ok {
		return imports, nil
	}

	imports, err := solidity.ParseImports(content)
	if err != nil {
		return nil, err
	}
	c.imports.Add(key, imports)
	return imports, nil
}
