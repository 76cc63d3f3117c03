package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

const (
	hashEntriesPerStripe = 200
)

// ring is a consistent hash ring mapping arbitrary keys onto stripe indices
type ring struct {
	hashRing *treemap.Map

	// minStripe caches the value of the min entry in hashRing, which is used
	// when a key hashes past the last entry. treemap.Map.Min() is O(log n).
	minStripe int
}

// newRing returns a consistent hash ring over stripes [0, stripes), with each
// stripe having replicationFactor entries in the ring
func newRing(stripes, replicationFactor uint) *ring {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for stripe := 0; stripe < int(stripes); stripe++ {
		keyHash, _ := murmur3.Sum128([]byte(fmt.Sprintf("stripe%d", stripe)))
		keyHashBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(keyHashBytes, keyHash)

		for i := 0; i < int(replicationFactor); i++ {
			indexBytes := make([]byte, 4)
			binary.LittleEndian.PutUint32(indexBytes, uint32(i))

			hasher := murmur3.New128()
			hasher.Write(keyHashBytes)
			hasher.Write(indexBytes)
			hash, _ := hasher.Sum128()
			hashRing.Put(int64(hash), stripe)
		}
	}

	var minStripe int
	if _, v := hashRing.Min(); v != nil {
		minStripe = v.(int)
	}

	return &ring{
		hashRing:  hashRing,
		minStripe: minStripe,
	}
}

// shard consistently hashes the key and returns its stripe index
func (r *ring) shard(key []byte) int {
	hasher := murmur3.New128()
	hasher.Write(key)
	raw, _ := hasher.Sum128()
	_, stripe := r.hashRing.Ceiling(int64(raw))
	if stripe != nil {
		return stripe.(int)
	}
	return r.minStripe
}
