package salesforce

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// decodeDescription reads a describe response body. A body without an
// object name is treated as malformed.
func decodeDescription(r io.Reader) (*SObjectDescription, error) {
	var desc SObjectDescription
	if err := json.NewDecoder(r).Decode(&desc); err != nil {
		return nil, eris.Wrap(err, "decode describe")
	}
	if desc.Name == "" {
		return nil, eris.New("decode describe: missing object name")
	}
	return &desc, nil
}
