package rerank

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// fingerprint hashes the normalized request. Candidate order and every
// scoring input take part; topN does not, since it only trims the output.
func fingerprint(n normalized) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}
