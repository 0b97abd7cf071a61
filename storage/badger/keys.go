package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/quarrydocs/quarry/core"
)

// Key prefixes for different data types. Every key embeds the tenant id
// right after the type prefix, so a prefix scan is tenant-scoped by
// construction and cross-tenant reads are structurally impossible.
const (
	documentPrefix = "docrec"
	chunkPrefix    = "chkrec"
)

// makeDocumentKey generates a key for a document.
// Format: docrec:tenant:uuid
func makeDocumentKey(tenant core.TenantID, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentPrefix, tenant, id))
}

// makeTenantDocumentPrefix generates the scan prefix for a tenant's documents.
func makeTenantDocumentPrefix(tenant core.TenantID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentPrefix, tenant))
}

// makeChunkKey generates a composite key for a chunk.
// Format: chkrec:tenant:docUUID:index
// The index is written in BigEndian order so lexicographic iteration
// returns chunks in document order.
func makeChunkKey(tenant core.TenantID, docID uuid.UUID, index int) []byte {
	prefix := makeDocumentChunkPrefix(tenant, docID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makeDocumentChunkPrefix generates the scan prefix for one document's chunks.
func makeDocumentChunkPrefix(tenant core.TenantID, docID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", chunkPrefix, tenant, docID))
}

// makeTenantChunkPrefix generates the scan prefix for all of a tenant's chunks.
func makeTenantChunkPrefix(tenant core.TenantID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, tenant))
}
