package callback

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-openapi/runtime/middleware/header"
	"github.com/pkg/errors"
)

const maxBodyBytes = 100 * 1024

var errNotJSON = errors.New("expected a JSON request")

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Header.Get("Content-Type") != "" {
		value, _ := header.ParseValueAndParams(r.Header, "Content-Type")
		if value != "application/json" {
			return errors.Wrapf(errNotJSON, "content type %s", value)
		}
	}

	reader := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(reader)

	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decoding body")
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must only contain a single JSON object")
	}

	return nil
}
