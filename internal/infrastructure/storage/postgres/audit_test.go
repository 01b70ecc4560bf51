package postgres

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_PackRoundTrip(t *testing.T) {
	log, err := NewAuditLog(nil)
	require.NoError(t, err)

	small := []byte(`{"price":{"old":"10","new":"12"}}`)
	changes, compressed, algo := log.pack(small)
	assert.Equal(t, CompressionNone, algo)
	assert.Nil(t, compressed)
	assert.JSONEq(t, string(small), string(changes))

	large, err := json.Marshal(map[string]string{"otherSpecifications": string(bytes.Repeat([]byte("a"), DefaultCompressThreshold*2))})
	require.NoError(t, err)
	changes, compressed, algo = log.pack(large)
	assert.Equal(t, CompressionZstd, algo)
	assert.Nil(t, changes)
	assert.Less(t, len(compressed), len(large))

	entry := AuditEntry{ChangesCompressed: compressed, CompressionAlgo: algo}
	require.NoError(t, log.unpack(&entry))
	assert.Equal(t, large, []byte(entry.Changes))
	assert.Nil(t, entry.ChangesCompressed)
}

func TestDetailValue(t *testing.T) {
	assert.Equal(t, "356789012345678", detailValue("Key (imei_number)=(356789012345678) already exists."))
	assert.Equal(t, "", detailValue("something else"))
}
